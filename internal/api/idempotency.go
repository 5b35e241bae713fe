package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// IdempotencyTTL is how long a replayable response is kept.
const IdempotencyTTL = 24 * time.Hour

// reservationTTL bounds how long an in-flight key blocks retries if the
// holder dies before storing or releasing it.
const reservationTTL = 30 * time.Second

var pendingMarker = []byte("pending")

// StoredResponse is a captured response replayed for a repeated Idempotency-Key.
type StoredResponse struct {
	Status int
	Body   []byte
}

// IdempotencyStore persists first responses by key. Reserve claims a key for
// the request that will produce its first response; it reports false while
// another request holds the key or a response is already stored.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (StoredResponse, bool, error)
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Put(ctx context.Context, key string, r StoredResponse) error
}

// RedisIdempotency shares replay records across server instances.
type RedisIdempotency struct {
	rc  *redis.Client
	ttl time.Duration
}

func NewRedisIdempotency(rc *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{rc: rc, ttl: IdempotencyTTL}
}

// format: <status>\n<body>
func (s *RedisIdempotency) Get(ctx context.Context, key string) (StoredResponse, bool, error) {
	data, err := s.rc.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return StoredResponse{}, false, nil
	}
	if err != nil {
		return StoredResponse{}, false, err
	}
	if bytes.Equal(data, pendingMarker) {
		return StoredResponse{}, false, nil
	}
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return StoredResponse{}, false, fmt.Errorf("malformed idempotency record %q", key)
	}
	status, err := strconv.Atoi(string(data[:i]))
	if err != nil {
		return StoredResponse{}, false, fmt.Errorf("malformed idempotency record %q: %w", key, err)
	}
	return StoredResponse{Status: status, Body: data[i+1:]}, true, nil
}

func (s *RedisIdempotency) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rc.SetNX(ctx, key, pendingMarker, ttl).Result()
}

func (s *RedisIdempotency) Release(ctx context.Context, key string) error {
	return s.rc.Del(ctx, key).Err()
}

func (s *RedisIdempotency) Put(ctx context.Context, key string, r StoredResponse) error {
	payload := append([]byte(strconv.Itoa(r.Status)+"\n"), r.Body...)
	return s.rc.Set(ctx, key, payload, s.ttl).Err()
}

type memoryRecord struct {
	resp    StoredResponse
	at      time.Time
	pending bool
	until   time.Time
}

func (r memoryRecord) expired(now time.Time, ttl time.Duration) bool {
	if r.pending {
		return now.After(r.until)
	}
	return now.Sub(r.at) > ttl
}

// MemoryIdempotency is the single-instance fallback. Purge drops stale records.
type MemoryIdempotency struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	ttl     time.Duration
}

func NewMemoryIdempotency() *MemoryIdempotency {
	return &MemoryIdempotency{records: map[string]memoryRecord{}, ttl: IdempotencyTTL}
}

func (s *MemoryIdempotency) Get(_ context.Context, key string) (StoredResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok || rec.pending || rec.expired(time.Now(), s.ttl) {
		return StoredResponse{}, false, nil
	}
	return rec.resp, true, nil
}

func (s *MemoryIdempotency) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if rec, ok := s.records[key]; ok && !rec.expired(now, s.ttl) {
		return false, nil
	}
	s.records[key] = memoryRecord{at: now, pending: true, until: now.Add(ttl)}
	return true, nil
}

func (s *MemoryIdempotency) Release(_ context.Context, key string) error {
	s.mu.Lock()
	if rec, ok := s.records[key]; ok && rec.pending {
		delete(s.records, key)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryIdempotency) Put(_ context.Context, key string, r StoredResponse) error {
	s.mu.Lock()
	s.records[key] = memoryRecord{resp: StoredResponse{Status: r.Status, Body: append([]byte(nil), r.Body...)}, at: time.Now()}
	s.mu.Unlock()
	return nil
}

// Purge removes records older than the TTL and reports how many were dropped.
func (s *MemoryIdempotency) Purge(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, rec := range s.records {
		if rec.expired(now, s.ttl) {
			delete(s.records, k)
			n++
		}
	}
	return n
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func replay(c *gin.Context, rec StoredResponse) {
	c.Header("X-Idempotent-Replay", "true")
	c.Data(rec.Status, "application/json; charset=utf-8", rec.Body)
	c.Abort()
}

// IdempotencyMiddleware replays the first 2xx response of a POST carrying an
// Idempotency-Key header. A repeat that arrives while the first request is
// still running gets 409. Requests without the header pass straight through.
// If the store is unreachable the request runs unguarded.
func IdempotencyMiddleware(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if store == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		storageKey := "idem:" + c.FullPath() + ":" + key

		ctx, cancel := context.WithTimeout(c.Request.Context(), 250*time.Millisecond)
		rec, ok, err := store.Get(ctx, storageKey)
		cancel()
		if err == nil && ok {
			replay(c, rec)
			return
		}

		reserved := false
		if err == nil {
			ctx, cancel = context.WithTimeout(c.Request.Context(), 250*time.Millisecond)
			reserved, err = store.Reserve(ctx, storageKey, reservationTTL)
			cancel()
			if err == nil && !reserved {
				ctx, cancel = context.WithTimeout(c.Request.Context(), 250*time.Millisecond)
				rec, ok, err = store.Get(ctx, storageKey)
				cancel()
				if err == nil && ok {
					replay(c, rec)
					return
				}
				respondError(c, http.StatusConflict, "A request with this Idempotency-Key is already in progress", nil)
				return
			}
		}

		cw := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Next()

		ctx, cancel = context.WithTimeout(context.WithoutCancel(c.Request.Context()), 250*time.Millisecond)
		defer cancel()
		status := cw.Status()
		if status < 200 || status >= 300 {
			if reserved {
				_ = store.Release(ctx, storageKey)
			}
			return
		}
		_ = store.Put(ctx, storageKey, StoredResponse{Status: status, Body: cw.buf.Bytes()})
	}
}
