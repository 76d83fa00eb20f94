package state

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	jsconfig "github.com/goliatone/go-jsconfig"
	"github.com/goliatone/go-jsconfig/codec"
	"github.com/google/uuid"
)

// MemoryStore keeps encoded profiles in memory, keyed by Ref.Identifier. Every
// Save assigns a new SnapshotID and an ETag derived from the payload.
type MemoryStore struct {
	mu      sync.RWMutex
	codec   codec.Codec[jsconfig.Profile]
	now     func() time.Time
	records map[string]memoryRecord
}

type memoryRecord struct {
	payload []byte
	meta    Meta
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithCodec sets the payload codec. JSON is used by default.
func WithCodec(c codec.Codec[jsconfig.Profile]) MemoryOption {
	return func(s *MemoryStore) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithClock overrides the UpdatedAt source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		codec:   codec.JSON[jsconfig.Profile]{},
		now:     time.Now,
		records: map[string]memoryRecord{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (jsconfig.Profile, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return jsconfig.Profile{}, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return jsconfig.Profile{}, Meta{}, false, nil
	}
	profile, err := s.codec.Decode(record.payload)
	if err != nil {
		return jsconfig.Profile{}, Meta{}, false, err
	}
	return profile, cloneMeta(record.meta), true, nil
}

// Save stores profile under ref. A non-empty meta.ETag must equal the ETag of
// the stored record; the comparison and the write happen under one lock.
func (s *MemoryStore) Save(_ context.Context, ref Ref, profile jsconfig.Profile, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	profile.SnapshotID = ""
	payload, err := s.codec.Encode(profile)
	if err != nil {
		return Meta{}, err
	}

	expected := meta.ETag
	meta = cloneMeta(meta)
	meta.SnapshotID = uuid.NewString()
	meta.ETag = strconv.FormatUint(xxhash.Sum64(payload), 16)
	meta.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if expected != "" {
		if current := s.records[key].meta.ETag; current != expected {
			return Meta{}, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, expected, current)
		}
	}
	s.records[key] = memoryRecord{payload: payload, meta: meta}
	return cloneMeta(meta), nil
}

// Len returns the number of stored profiles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
