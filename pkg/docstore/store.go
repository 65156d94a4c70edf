// Package docstore is the adapter over the document store holding reels,
// comments, wishlist entries and seller details.
//
// Collections are addressed by slash-separated paths, so a subcollection is
// just a longer path: "reels/{reelId}/comments", "users/{uid}/wishlist".
package docstore

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("docstore: record not found")

type Direction int

const (
	Asc Direction = iota
	Desc
)

type OrderBy struct {
	Field     string
	Direction Direction
}

// Record is one document: its id within the collection and its field data.
type Record struct {
	ID     string
	Fields map[string]interface{}
}

// Subscription is a live handle returned by Subscribe. Stop is idempotent.
type Subscription interface {
	Stop()
}

// SnapshotFunc receives the complete ordered contents of a collection on
// every change. It is never handed a partial diff.
type SnapshotFunc func(records []Record)

type Store interface {
	GetAll(ctx context.Context, collection string, order ...OrderBy) ([]Record, error)
	GetByID(ctx context.Context, collection, id string) (*Record, error)
	Query(ctx context.Context, collection, field string, value interface{}) ([]Record, error)
	Create(ctx context.Context, collection string, fields map[string]interface{}) (string, error)
	Set(ctx context.Context, collection, id string, fields map[string]interface{}, merge bool) error
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
	IncrementField(ctx context.Context, collection, id, field string, delta int64) error
	Subscribe(ctx context.Context, collection string, order OrderBy, fn SnapshotFunc) (Subscription, error)
	Close() error
}

// Path joins collection and document segments.
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

type serverTimestamp struct{}

// ServerTimestamp is replaced by the store's clock when the write is applied.
var ServerTimestamp interface{} = serverTimestamp{}

type increment struct {
	delta int64
}

// Increment adds delta to the numeric field atomically on the server.
func Increment(delta int64) interface{} {
	return increment{delta: delta}
}

type arrayUnion struct {
	values []interface{}
}

// ArrayUnion adds each value to the array field unless already present.
func ArrayUnion(values ...interface{}) interface{} {
	return arrayUnion{values: values}
}

type arrayRemove struct {
	values []interface{}
}

// ArrayRemove removes every occurrence of each value from the array field.
func ArrayRemove(values ...interface{}) interface{} {
	return arrayRemove{values: values}
}
