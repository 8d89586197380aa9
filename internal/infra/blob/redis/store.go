// Package redis stores blobs as JSON envelopes in Redis string values.
package redis

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"essaycore/internal/blob/core"
)

// DefaultNamespace prefixes every Redis key written by the store.
const DefaultNamespace = "essaycore:blob:"

// Client is the subset of *redis.Client used by the store.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
	Close() error
}

// Store implements core.Store on Redis.
type Store struct {
	client    Client
	namespace string
	nowFn     func() time.Time
}

// Config holds construction parameters.
type Config struct {
	URL       string // redis://[:password@]host:port/db
	Namespace string // defaults to DefaultNamespace
}

// New parses cfg.URL, pings the server and returns a store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, cfg.Namespace), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client Client, namespace string) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{client: client, namespace: namespace, nowFn: func() time.Time { return time.Now().UTC() }}
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Driver() core.Driver { return core.DriverRedis }

type envelope struct {
	Payload     []byte            `json:"payload"`
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (e envelope) info(key string) core.Info {
	return core.Info{
		Key:          key,
		Size:         int64(len(e.Payload)),
		ContentType:  e.ContentType,
		ETag:         e.ETag,
		Metadata:     core.CloneMetadata(e.Metadata),
		LastModified: e.UpdatedAt,
	}
}

// Put stores the blob without expiry, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	sum := sha256.Sum256(body)
	env := envelope{
		Payload:     body,
		ContentType: opts.ContentType,
		Metadata:    core.CloneMetadata(opts.Metadata),
		ETag:        hex.EncodeToString(sum[:]),
		UpdatedAt:   s.nowFn(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return core.Info{}, err
	}
	if err := s.client.Set(ctx, s.namespace+key, data, 0).Err(); err != nil {
		return core.Info{}, fmt.Errorf("set %s: %w", key, err)
	}
	return env.info(key), nil
}

func (s *Store) load(ctx context.Context, key string) (envelope, error) {
	val, err := s.client.Get(ctx, s.namespace+key).Result()
	if errors.Is(err, redis.Nil) {
		return envelope{}, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return envelope{}, fmt.Errorf("get %s: %w", key, err)
	}
	var env envelope
	if err := json.Unmarshal([]byte(val), &env); err != nil {
		return envelope{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return env, nil
}

func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	env, err := s.load(ctx, key)
	if err != nil {
		return core.Info{}, nil, err
	}
	return env.info(key), io.NopCloser(bytes.NewReader(env.Payload)), nil
}

func (s *Store) Head(ctx context.Context, key string) (core.Info, error) {
	env, err := s.load(ctx, key)
	if err != nil {
		return core.Info{}, err
	}
	return env.info(key), nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, s.namespace+key).Result()
	if err != nil {
		return false, fmt.Errorf("del %s: %w", key, err)
	}
	return n > 0, nil
}

// List matches namespace+prefix with a KEYS glob and loads each entry.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	keys, err := s.client.Keys(ctx, escapeGlob(s.namespace+prefix)+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	infos := make([]core.Info, 0, len(keys))
	for _, full := range keys {
		key := strings.TrimPrefix(full, s.namespace)
		env, err := s.load(ctx, key)
		if errors.Is(err, core.ErrNotFound) {
			continue // removed between KEYS and GET
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, env.info(key))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
