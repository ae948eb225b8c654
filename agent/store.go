package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// Store is a typed, namespaced view over a Cache. Records are serialized
// field-by-field JSON; every save refreshes the sliding TTL.
type Store[S any] struct {
	core      Cache
	namespace string
	ttl       time.Duration
}

func NewStore[S any](core Cache, namespace string, ttl time.Duration) Store[S] {
	return Store[S]{
		core:      core,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (s Store[S]) key(id string) string {
	return s.namespace + ":" + id
}

func (s Store[S]) Set(ctx context.Context, id string, val *S) error {
	data, err := sonic.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", s.namespace, err)
	}
	return s.core.Set(ctx, s.key(id), data, s.ttl)
}

func (s Store[S]) Get(ctx context.Context, id string) (*S, bool, error) {
	data, ok, err := s.core.Get(ctx, s.key(id))
	if err != nil || !ok {
		return nil, false, err
	}
	var val S
	if err := sonic.Unmarshal(data, &val); err != nil {
		return nil, false, fmt.Errorf("unmarshal %s record: %w", s.namespace, err)
	}
	return &val, true, nil
}

func (s Store[S]) Del(ctx context.Context, id string) error {
	return s.core.Del(ctx, s.key(id))
}

func (s Store[S]) Exists(ctx context.Context, id string) (bool, error) {
	return s.core.Exists(ctx, s.key(id))
}
