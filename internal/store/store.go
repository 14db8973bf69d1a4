// Package store defines the entity store port: point, batch, and full
// retrieval of catalog records by kind.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
)

// EntityStore is the read port of the catalog backend. RetrieveBunch silently
// skips ids absent from the backend; a missing id is never an error.
type EntityStore interface {
	Retrieve(ctx context.Context, kind entity.Kind, id string) (entity.Record, error)
	RetrieveBunch(ctx context.Context, kind entity.Kind, ids []string) ([]entity.Record, error)
	RetrieveAll(ctx context.Context, kind entity.Kind) ([]entity.Record, error)
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store combines the catalog port with the lifecycle operations drivers
// implement.
type Store interface {
	EntityStore
	Pinger
	Put(ctx context.Context, record entity.Record) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// ErrKeyNotFound signals a point lookup that hit no record.
var ErrKeyNotFound = errors.New("store: key not found")

// Op constants map to backend command names for error context.
const (
	OpGet  = "GET"
	OpMGet = "MGET"
	OpSet  = "SET"
	OpScan = "SCAN"
	OpPing = "PING"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
