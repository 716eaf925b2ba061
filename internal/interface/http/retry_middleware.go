package http

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/farmcast/internal/infra/config"
)

const replayBodyLimit = 1 << 20 // 1 MiB

var errBodyTooLarge = errors.New("request body exceeds replay limit")

// replayableRoutes holds the POST route patterns that may be served twice without a second
// side effect. GET routes are always replayable.
type replayableRoutes struct {
	patterns [][]string
}

// post registers path on group and marks it replayable.
func (r *replayableRoutes) post(group *gin.RouterGroup, path string, handlers ...gin.HandlerFunc) {
	r.patterns = append(r.patterns, splitRoute(group.BasePath()+path))
	group.POST(path, handlers...)
}

func (r *replayableRoutes) allows(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet:
		return true
	case http.MethodPost:
		segments := splitRoute(req.URL.Path)
		for _, pattern := range r.patterns {
			if matchRoute(pattern, segments) {
				return true
			}
		}
	}
	return false
}

func splitRoute(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// matchRoute compares segment by segment. ":name" segments match any non-empty value.
func matchRoute(pattern, segments []string) bool {
	if len(pattern) != len(segments) {
		return false
	}
	for i, part := range pattern {
		if strings.HasPrefix(part, ":") {
			if segments[i] == "" {
				return false
			}
			continue
		}
		if part != segments[i] {
			return false
		}
	}
	return true
}

// withRetry replays replayable requests that end in a 5xx, buffering each attempt so only the
// last one reaches the client.
func withRetry(handler http.Handler, cfg config.RetryConfig, routes *replayableRoutes, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 || routes == nil {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !routes.allows(r) {
			handler.ServeHTTP(w, r)
			return
		}
		body, err := bufferBody(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.Error(), status)
			return
		}

		for attempt := 1; ; attempt++ {
			buffered := newBufferedResponse()
			replay := r.Clone(r.Context())
			replay.Body = io.NopCloser(bytes.NewReader(body))
			replay.ContentLength = int64(len(body))
			handler.ServeHTTP(buffered, replay)

			if buffered.status < http.StatusInternalServerError || attempt == cfg.MaxAttempts {
				buffered.flushTo(w)
				return
			}
			logger.Warn("replaying request after server error", "method", r.Method, "path", r.URL.Path, "status", buffered.status, "attempt", attempt)
			if !sleepBackoff(r, cfg.BaseBackoff, attempt) {
				buffered.flushTo(w)
				return
			}
		}
	})
}

// sleepBackoff waits base*2^(attempt-1) and reports false when the client went away first.
func sleepBackoff(r *http.Request, base time.Duration, attempt int) bool {
	delay := base << (attempt - 1)
	if delay <= 0 {
		return r.Context().Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-r.Context().Done():
		return false
	case <-timer.C:
		return true
	}
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, replayBodyLimit+1))
	if err != nil {
		return nil, err
	}
	if len(data) > replayBodyLimit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
	wrote  bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.wrote {
		return
	}
	b.status = status
	b.wrote = true
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.wrote = true
	return b.body.Write(p)
}

func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for k := range dst {
		dst.Del(k)
	}
	for k, values := range b.header {
		dst[k] = append([]string(nil), values...)
	}
	w.WriteHeader(b.status)
	if b.body.Len() > 0 {
		_, _ = w.Write(b.body.Bytes())
	}
}
