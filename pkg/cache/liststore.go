package cache

import (
	"context"
	"errors"
)

// ListStore persists small collections without expiry. It satisfies
// repository.ListStore.
type ListStore struct {
	svc    Service
	prefix string
}

func NewListStore(svc Service, prefix string) *ListStore {
	return &ListStore{svc: svc, prefix: prefix}
}

// Load decodes the stored value into dest. Found is false when nothing is stored.
func (s *ListStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	err := s.svc.Get(ctx, Key(s.prefix, key), dest)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	return err == nil, err
}

func (s *ListStore) Save(ctx context.Context, key string, value any) error {
	return s.svc.Set(ctx, Key(s.prefix, key), value, 0)
}
