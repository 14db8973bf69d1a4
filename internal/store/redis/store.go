// Package redis implements the entity store on Redis via rueidis. Records are
// JSON values under kind-prefixed keys; batch retrieval is a single MGET per
// kind.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/store"
)

// Compile-time check: Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Config holds connection parameters for a Redis entity store.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// Store is a rueidis-backed entity store.
type Store struct {
	client rueidis.Client
	prefix string
}

// NewStore creates a Redis entity store.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "metadex:"
	}
	return &Store{client: client, prefix: prefix}, nil
}

func (s *Store) key(kind entity.Kind, id string) string {
	return s.prefix + "entity:" + string(kind) + ":" + id
}

func (s *Store) pattern(kind entity.Kind) string {
	return s.prefix + "entity:" + string(kind) + ":*"
}

// Retrieve fetches a single record.
func (s *Store) Retrieve(ctx context.Context, kind entity.Kind, id string) (entity.Record, error) {
	cmd := s.client.B().Get().Key(s.key(kind, id)).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return entity.Record{}, store.ErrKeyNotFound
		}
		return entity.Record{}, &store.Error{Op: store.OpGet, Err: err}
	}
	return decode(data)
}

// RetrieveBunch fetches many records of one kind in a single MGET. Ids absent
// from the backend are silently skipped.
func (s *Store) RetrieveBunch(ctx context.Context, kind entity.Kind, ids []string) ([]entity.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(kind, id)
	}

	cmd := s.client.B().Mget().Key(keys...).Build()
	msgs, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &store.Error{Op: store.OpMGet, Err: err}
	}

	records := make([]entity.Record, 0, len(msgs))
	for _, msg := range msgs {
		data, err := msg.AsBytes()
		if err != nil {
			// nil entry: the id does not exist
			continue
		}
		r, err := decode(data)
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// RetrieveAll scans every record of a kind.
func (s *Store) RetrieveAll(ctx context.Context, kind entity.Kind) ([]entity.Record, error) {
	var keys []string
	var cursor uint64
	for {
		cmd := s.client.B().Scan().Cursor(cursor).Match(s.pattern(kind)).Count(100).Build()
		res, err := s.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &store.Error{Op: store.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmd := s.client.B().Mget().Key(keys...).Build()
	msgs, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &store.Error{Op: store.OpMGet, Err: err}
	}

	records := make([]entity.Record, 0, len(msgs))
	for _, msg := range msgs {
		data, err := msg.AsBytes()
		if err != nil {
			continue
		}
		r, err := decode(data)
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// Put stores a record, used by ingestion and local seeding.
func (s *Store) Put(ctx context.Context, record entity.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record %s/%s: %w", record.Kind, record.InstanceID, err)
	}
	cmd := s.client.B().Set().Key(s.key(record.Kind, record.InstanceID)).Value(string(data)).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &store.Error{Op: store.OpSet, Err: err}
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &store.Error{Op: store.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for store: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func decode(data []byte) (entity.Record, error) {
	var r entity.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return entity.Record{}, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}
