package store

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/guildhall/cachekit/store")

type redisStore struct {
	client *redis.Client
	cfg    config
}

var _ Store = (*redisStore)(nil)

// NewRedis returns a Store backed by Redis. The caller owns the
// redis.Client lifecycle; Close does not touch the client.
func NewRedis(client *redis.Client, opts ...Option) Store {
	return &redisStore{
		client: client,
		cfg:    applyOptions(opts),
	}
}

func (s *redisStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.cfg.queryTimeout)
}

func (s *redisStore) prefixKey(key string) string {
	if s.cfg.prefix == "" {
		return key
	}
	return s.cfg.prefix + ":" + key
}

func (s *redisStore) Get(ctx context.Context, key string) (bool, []byte, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	qctx, span := tracer.Start(qctx, "store.Get", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	data, err := s.client.Get(qctx, s.prefixKey(key)).Bytes()
	if err == redis.Nil {
		return false, nil, nil
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return false, nil, err
	}
	return true, data, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := Encode(value)
	if err != nil {
		return err
	}
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	qctx, span := tracer.Start(qctx, "store.Set", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if err := s.client.Set(qctx, s.prefixKey(key), data, ttl).Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *redisStore) Del(ctx context.Context, key string) (bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	qctx, span := tracer.Start(qctx, "store.Del", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	n, err := s.client.Del(qctx, s.prefixKey(key)).Result()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return false, err
	}
	return n > 0, nil
}

func (s *redisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	qctx, span := tracer.Start(qctx, "store.Expire", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if err := s.client.Expire(qctx, s.prefixKey(key), ttl).Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *redisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	qctx, span := tracer.Start(qctx, "store.Keys", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	// Redis MATCH has its own glob specials (?, [, ], \). The contract here
	// is that only `*` expands, so everything else is escaped before it
	// reaches SCAN. The prefix is escaped too since it is matched literally.
	match := escapeMatch(s.prefixKey(pattern))
	var keys []string
	iter := s.client.Scan(qctx, 0, match, 0).Iterator()
	for iter.Next(qctx) {
		key := iter.Val()
		if s.cfg.prefix != "" {
			key = strings.TrimPrefix(key, s.cfg.prefix+":")
		}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, err
	}
	return keys, nil
}

// escapeMatch backslash-escapes the Redis glob specials other than `*`,
// keeping SCAN MATCH aligned with Pattern's literal-except-star semantics.
func escapeMatch(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for _, r := range pattern {
		switch r {
		case '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close is a no-op; the caller owns the redis.Client lifecycle.
func (s *redisStore) Close() error {
	return nil
}
