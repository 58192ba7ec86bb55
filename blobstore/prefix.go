package blobstore

import (
	"context"
	"strings"
)

// PrefixStore scopes an inner Store to the names below a directory-style
// prefix, so that several vector maps can share one bucket or database.
type PrefixStore struct {
	inner  Store
	prefix string // always ends in "/" unless empty
}

// WithPrefix returns a Store that stores name as prefix/name in inner.
// An empty prefix returns inner unchanged.
func WithPrefix(inner Store, prefix string) Store {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return inner
	}
	return &PrefixStore{inner: inner, prefix: prefix + "/"}
}

func (s *PrefixStore) Get(ctx context.Context, name string) ([]byte, error) {
	return s.inner.Get(ctx, s.prefix+name)
}

func (s *PrefixStore) Put(ctx context.Context, name string, data []byte) error {
	return s.inner.Put(ctx, s.prefix+name, data)
}

func (s *PrefixStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, s.prefix+name)
}

func (s *PrefixStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.inner.List(ctx, s.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		names[i] = strings.TrimPrefix(name, s.prefix)
	}
	return names, nil
}
