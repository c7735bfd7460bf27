package bunsink

import (
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewEventsRepository(db *bun.DB) repository.Repository[*EventModel] {
	return repository.NewRepository[*EventModel](db, repository.ModelHandlers[*EventModel]{
		NewRecord: func() *EventModel { return &EventModel{} },
		GetID: func(record *EventModel) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *EventModel, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "actor_id"
		},
	})
}

func NewIdentitiesRepository(db *bun.DB) repository.Repository[*IdentityModel] {
	return repository.NewRepository[*IdentityModel](db, repository.ModelHandlers[*IdentityModel]{
		NewRecord: func() *IdentityModel { return &IdentityModel{} },
		GetID: func(record *IdentityModel) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *IdentityModel, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	})
}

func NewPropertiesRepository(db *bun.DB) repository.Repository[*PropertiesModel] {
	return repository.NewRepository[*PropertiesModel](db, repository.ModelHandlers[*PropertiesModel]{
		NewRecord: func() *PropertiesModel { return &PropertiesModel{} },
		GetID: func(record *PropertiesModel) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PropertiesModel, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	})
}

// upsertOn turns an insert into an upsert keyed by the unique column,
// overwriting columns with the incoming values.
func upsertOn(key string, columns ...string) repository.InsertCriteria {
	return func(q *bun.InsertQuery) *bun.InsertQuery {
		q = q.On(fmt.Sprintf("CONFLICT (%s) DO UPDATE", key))
		for _, column := range columns {
			q = q.Set(fmt.Sprintf("%s = EXCLUDED.%s", column, column))
		}
		return q
	}
}

func whereActor(actorID string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.actor_id = ?", strings.TrimSpace(actorID))
	}
}

func orderByOccurred(direction string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.occurred_at " + direction)
	}
}

func limitTo(limit int) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if limit > 0 {
			return q.Limit(limit)
		}
		return q
	}
}
