package lz78huff

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Store loads archives through an LRU cache keyed by the xxhash digest of the
// file contents, so renamed or copied files share one decoded entry.
// It is safe for concurrent use.
type Store struct {
	cache *lru.Cache[uint64, *Archive]
}

// NewStore creates a Store holding up to WithCacheSize archives.
func NewStore(opts ...Option) (*Store, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[uint64, *Archive](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	return &Store{cache: cache}, nil
}

// Load reads path and returns its archive, decoding only on a cache miss.
// The returned Archive is a copy and may be modified by the caller.
func (s *Store) Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, openError(path, err)
	}
	key := xxhash.Sum64(data)
	if a, ok := s.cache.Get(key); ok {
		return a.clone(), nil
	}
	a, err := decodeArchive(data)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, a)
	return a.clone(), nil
}

// Save writes a like Save and caches it under the digest of the written bytes.
func (s *Store) Save(path string, a *Archive) (string, error) {
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		return "", err
	}
	written, err := createArchiveFile(path, func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	})
	if err != nil {
		return "", err
	}
	// Cache the same shape Load decodes, with the dictionary filled in.
	c := a.clone()
	if c.Dictionary, err = a.dictionary(); err != nil {
		return "", err
	}
	s.cache.Add(xxhash.Sum64(buf.Bytes()), c)
	return written, nil
}

// Len returns the number of cached archives.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Purge drops every cached archive.
func (s *Store) Purge() {
	s.cache.Purge()
}
