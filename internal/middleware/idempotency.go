package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/pmreport/internal/port/cache"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyBody   = 64 << 10
	maxIdempotencyKeyLen = 128
)

// idempotencyEntry is a stored response.
type idempotencyEntry struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
}

// Idempotency returns middleware that replays the stored response for a
// repeated POST carrying the same Idempotency-Key within ttl. Keys are scoped
// per session (see SessionOrIP). Concurrent requests with the same key share
// one handler run. Only 2xx responses are stored.
func Idempotency(store cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	var inflight singleflight.Group

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(headerIdempotencyKey)
			if r.Method != http.MethodPost || key == "" || len(key) > maxIdempotencyKeyLen {
				next.ServeHTTP(w, r)
				return
			}
			storeKey := "idem:" + SessionOrIP(r) + ":" + key

			if cached, ok := lookupEntry(r, store, storeKey); ok {
				w.Header().Set("Idempotent-Replayed", "true")
				cached.writeTo(w)
				return
			}

			ran := false
			v, _, _ := inflight.Do(storeKey, func() (any, error) {
				// A request that lost the race to a finished leader still
				// finds the stored entry here.
				if cached, ok := lookupEntry(r, store, storeKey); ok {
					return cached, nil
				}
				rec := newBufferedResponse()
				ran = true
				next.ServeHTTP(rec, r)
				entry := &idempotencyEntry{
					StatusCode: rec.statusCode,
					Headers:    rec.header,
					Body:       rec.body.Bytes(),
				}
				if entry.StatusCode >= 200 && entry.StatusCode <= 299 && rec.body.Len() <= maxIdempotencyBody {
					saveEntry(r, store, storeKey, key, entry, ttl)
				}
				return entry, nil
			})
			if !ran {
				w.Header().Set("Idempotent-Replayed", "true")
			}
			v.(*idempotencyEntry).writeTo(w)
		})
	}
}

func lookupEntry(r *http.Request, store cache.Cache, storeKey string) (*idempotencyEntry, bool) {
	raw, found, err := store.Get(r.Context(), storeKey)
	if err != nil || !found {
		return nil, false
	}
	var cached idempotencyEntry
	if err := json.Unmarshal(raw, &cached); err != nil {
		slog.WarnContext(r.Context(), "idempotency: corrupt entry", "key", storeKey)
		return nil, false
	}
	return &cached, true
}

func saveEntry(r *http.Request, store cache.Cache, storeKey, key string, entry *idempotencyEntry, ttl time.Duration) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := store.Set(r.Context(), storeKey, data, ttl); err != nil {
		slog.WarnContext(r.Context(), "idempotency: store failed", "key", key, "error", err)
	}
}

func (e *idempotencyEntry) writeTo(w http.ResponseWriter) {
	for k, vals := range e.Headers {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(e.StatusCode)
	_, _ = w.Write(e.Body)
}

// bufferedResponse holds a handler's response until it is copied to every
// waiting client.
type bufferedResponse struct {
	header     http.Header
	statusCode int
	body       *bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{
		header:     make(http.Header),
		statusCode: http.StatusOK,
		body:       &bytes.Buffer{},
	}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(code int) { b.statusCode = code }

func (b *bufferedResponse) Write(p []byte) (int, error) { return b.body.Write(p) }
