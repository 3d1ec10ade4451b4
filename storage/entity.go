// Package storage mirrors the bridge's live entities into NATS KV so other
// services can observe the simulation without querying it.
package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/andersonmmachado/arena-unity/scene"
)

// BucketEntities is the default KV bucket for entity state.
const BucketEntities = "ARENA_ENTITIES"

// EntityRecord is the mirrored state of one live entity.
type EntityRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Pose        scene.Pose `json:"pose"`
	Diagnostics []string   `json:"diagnostics,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StateStore keeps one KV entry per entity, keyed by entity name.
type StateStore struct {
	kv jetstream.KeyValue
}

// NewStateStore opens the named bucket, creating it if it doesn't exist.
func NewStateStore(ctx context.Context, js jetstream.JetStream, bucket string) (*StateStore, error) {
	if bucket == "" {
		bucket = BucketEntities
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("create %s bucket: %w", bucket, err)
	}
	return &StateStore{kv: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Arena %s state", strings.ToLower(name)),
		History:     5,
	})
}

var plainKey = regexp.MustCompile(`^[-/_=a-zA-Z0-9]+$`)

// KeyFor maps an entity name to a valid KV key. Names that are already valid
// keys are used as is; anything else is base64url encoded under a "b64."
// prefix so distinct names never collide.
func KeyFor(name string) string {
	if plainKey.MatchString(name) {
		return name
	}
	return "b64." + base64.RawURLEncoding.EncodeToString([]byte(name))
}

// Put creates or replaces the record for r.Name. The record id and creation
// time survive updates.
func (s *StateStore) Put(ctx context.Context, r *EntityRecord) error {
	if r.Name == "" {
		return fmt.Errorf("entity name required")
	}

	now := time.Now()
	existing, err := s.Get(ctx, r.Name)
	switch {
	case err == nil:
		r.ID = existing.ID
		r.CreatedAt = existing.CreatedAt
	case errors.Is(err, ErrNotFound):
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		r.CreatedAt = now
	default:
		return err
	}
	r.UpdatedAt = now

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}
	if _, err := s.kv.Put(ctx, KeyFor(r.Name), data); err != nil {
		return fmt.Errorf("put entity %s: %w", r.Name, err)
	}
	return nil
}

// Get returns the record for name.
func (s *StateStore) Get(ctx context.Context, name string) (*EntityRecord, error) {
	entry, err := s.kv.Get(ctx, KeyFor(name))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get entity %s: %w", name, err)
	}

	var r EntityRecord
	if err := json.Unmarshal(entry.Value(), &r); err != nil {
		return nil, fmt.Errorf("unmarshal entity: %w", err)
	}
	return &r, nil
}

// Delete removes the record for name. Deleting a missing record is not an
// error.
func (s *StateStore) Delete(ctx context.Context, name string) error {
	if err := s.kv.Delete(ctx, KeyFor(name)); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete entity %s: %w", name, err)
	}
	return nil
}

// List returns every mirrored entity sorted by name.
func (s *StateStore) List(ctx context.Context) ([]*EntityRecord, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list entity keys: %w", err)
	}

	records := make([]*EntityRecord, 0, len(keys))
	for _, key := range keys {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			continue // deleted between Keys and Get
		}
		var r EntityRecord
		if err := json.Unmarshal(entry.Value(), &r); err != nil {
			continue
		}
		records = append(records, &r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// Clear removes every record. The bridge calls it on start so the mirror
// never outlives a previous run's scene.
func (s *StateStore) Clear(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("list entity keys: %w", err)
	}
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil && !isNotFound(err) {
			return fmt.Errorf("clear entity %s: %w", key, err)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) ||
		(err != nil && strings.Contains(err.Error(), "key not found"))
}
