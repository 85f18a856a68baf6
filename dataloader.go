package main

import (
	"context"
	"strings"
	"time"

	"github.com/frndr/backend/match"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DataLoaderContextKey is the key used to store dataloaders in context
type DataLoaderContextKey string

const dataLoaderKey DataLoaderContextKey = "dataloader"

// answerFieldPrefix prefixes question ids in user_custom_fields.name.
const answerFieldPrefix = "user_field_"

// DataLoaders holds the per-request loaders.
type DataLoaders struct {
	AnswerLoader *dataloader.Loader[int, match.AnswerSet]
}

// NewDataLoaders creates loaders that batch lookups arriving within wait.
func NewDataLoaders(db *sqlx.DB, wait time.Duration) *DataLoaders {
	return &DataLoaders{
		AnswerLoader: dataloader.NewBatchedLoader(answersBatchFn(db), dataloader.WithWait[int, match.AnswerSet](wait)),
	}
}

// GetDataLoadersFromContext retrieves dataloaders from context
func GetDataLoadersFromContext(ctx context.Context) *DataLoaders {
	if dl, ok := ctx.Value(dataLoaderKey).(*DataLoaders); ok {
		return dl
	}
	return nil
}

// WithDataLoaders adds dataloaders to context
func WithDataLoaders(ctx context.Context, dl *DataLoaders) context.Context {
	return context.WithValue(ctx, dataLoaderKey, dl)
}

type answerRow struct {
	UserID int    `db:"user_id"`
	Name   string `db:"name"`
	Value  string `db:"value"`
}

// answersBatchFn loads the answer sets of many users in one query. Users
// without answers get an empty set, never an error.
func answersBatchFn(db *sqlx.DB) dataloader.BatchFunc[int, match.AnswerSet] {
	return func(ctx context.Context, keys []int) []*dataloader.Result[match.AnswerSet] {
		results := make([]*dataloader.Result[match.AnswerSet], len(keys))
		positions := make(map[int][]int, len(keys)) // userID -> indexes in results
		ids := make([]int64, 0, len(keys))
		for i, key := range keys {
			results[i] = &dataloader.Result[match.AnswerSet]{Data: match.AnswerSet{}}
			if _, seen := positions[key]; !seen {
				ids = append(ids, int64(key))
			}
			positions[key] = append(positions[key], i)
		}
		if len(keys) == 0 {
			return results
		}

		var rows []answerRow
		err := db.SelectContext(ctx, &rows, `
			SELECT user_id, name, COALESCE(value, '') AS value
			FROM user_custom_fields
			WHERE user_id = ANY($1) AND name LIKE 'user_field_%'
			ORDER BY user_id, id
		`, pq.Int64Array(ids))
		if err != nil {
			for i := range results {
				results[i].Error = err
			}
			return results
		}

		for _, row := range rows {
			key, ok := answerKey(row.Name)
			if !ok {
				continue
			}
			for _, idx := range positions[row.UserID] {
				results[idx].Data[key] = row.Value
			}
		}
		return results
	}
}

// answerKey maps a custom field name like "user_field_7" to the answer set
// key "7".
func answerKey(field string) (string, bool) {
	key, ok := strings.CutPrefix(field, answerFieldPrefix)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
