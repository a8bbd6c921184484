package http

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"secondbrain/internal/cache"
	applog "secondbrain/internal/log"
)

const (
	// IdempotencyKeyHeader lets clients retry a POST without applying it
	// twice.
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader marks a response served from a previous attempt.
	ReplayedHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 128
)

// storedResponse is a successful write answer kept for replay.
type storedResponse struct {
	fingerprint [sha256.Size]byte
	status      int
	contentType string
	body        []byte
}

// idempotencyStore remembers successful POST responses by client key.
// Only 2xx answers are kept, so a request rejected for confirmation or
// validation can be retried with the same key.
type idempotencyStore struct {
	responses *cache.LRUCache[storedResponse]

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newIdempotencyStore(size int, ttl time.Duration) *idempotencyStore {
	return &idempotencyStore{
		responses: cache.NewLRUCache[storedResponse](size, ttl),
		inFlight:  make(map[string]struct{}),
	}
}

func (s *idempotencyStore) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *idempotencyStore) end(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

// Middleware replays the stored answer for a repeated Idempotency-Key on
// the same route. Reusing a key with a different body is rejected.
func (s *idempotencyStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
		if r.Method != http.MethodPost || clientKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(clientKey) > maxIdempotencyKeyLen {
			ErrorResponse(http.StatusBadRequest, "invalid_idempotency_key", "Idempotency-Key is too long").Write(w)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				ErrorResponse(http.StatusRequestEntityTooLarge, "body_too_large", "request body too large").Write(w)
				return
			}
			ErrorResponse(http.StatusBadRequest, "invalid_body", "unreadable request body").Write(w)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		fingerprint := sha256.Sum256(body)

		key := r.URL.Path + "\x00" + clientKey
		if prev, ok := s.responses.Get(key); ok {
			if prev.fingerprint != fingerprint {
				ErrorResponse(http.StatusUnprocessableEntity, "idempotency_key_reused",
					"Idempotency-Key was already used with a different request").Write(w)
				return
			}
			applog.FromContext(r.Context()).DebugContext(r.Context(), "Replaying idempotent response",
				applog.FieldPath, r.URL.Path)
			w.Header().Set(ReplayedHeader, "true")
			if prev.contentType != "" {
				w.Header().Set("Content-Type", prev.contentType)
			}
			w.WriteHeader(prev.status)
			_, _ = w.Write(prev.body)
			return
		}

		if !s.begin(key) {
			ErrorResponse(http.StatusConflict, "idempotency_in_progress",
				"a request with this Idempotency-Key is still running").Write(w)
			return
		}
		defer s.end(key)

		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.status >= 200 && rec.status < 300 {
			s.responses.Set(key, storedResponse{
				fingerprint: fingerprint,
				status:      rec.status,
				contentType: w.Header().Get("Content-Type"),
				body:        rec.body.Bytes(),
			})
		}
	})
}

// recordingWriter forwards a response while keeping a copy of it.
type recordingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (rw *recordingWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}
