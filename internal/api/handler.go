package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/learnnova/coursematch/internal/metrics"
	"github.com/learnnova/coursematch/internal/recommend"
)

const (
	maxRequestBodySize = 1 << 20 // 1MB
	maxBatchUsernames  = 100
)

// Recommender is the recommendation surface the API serves.
// *recommend.Engine satisfies it.
type Recommender interface {
	Load(ctx context.Context) (*recommend.Ranker, error)
	Recommend(ctx context.Context, username string) ([]recommend.Recommendation, error)
	RecommendMany(ctx context.Context, usernames []string) ([]recommend.Outcome, error)
}

// Deps holds dependencies for the HTTP handler.
type Deps struct {
	Recommender Recommender
	Token       string // optional; when set, /v1 routes require it as a bearer token
	Logger      *slog.Logger
}

type recommendationsResponse struct {
	Username        string                     `json:"username"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

type batchRequest struct {
	Usernames []string `json:"usernames"`
}

type batchResult struct {
	Username        string                     `json:"username"`
	Recommendations []recommend.Recommendation `json:"recommendations,omitempty"`
	Error           *errorBody                 `json:"error,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewHandler returns the REST API: health, metrics, and the recommendation
// endpoints under /v1.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(instrument)

	r.Get("/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Get("/v1/recommendations/{username}", handleRecommend(deps))
		r.Post("/v1/recommendations", handleRecommendBatch(deps))
		r.Get("/v1/catalog/stats", handleStats(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleRecommend(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		recs, err := deps.Recommender.Recommend(r.Context(), username)
		if err != nil {
			writeRecommendError(w, deps.Logger, username, err)
			return
		}
		writeJSON(w, http.StatusOK, recommendationsResponse{Username: username, Recommendations: recs})
	}
}

func handleRecommendBatch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(req.Usernames) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "usernames is required and must not be empty")
			return
		}
		if len(req.Usernames) > maxBatchUsernames {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at most %d usernames per request", maxBatchUsernames)
			return
		}

		outcomes, err := deps.Recommender.RecommendMany(r.Context(), req.Usernames)
		if err != nil {
			writeRecommendError(w, deps.Logger, "", err)
			return
		}

		results := make([]batchResult, len(outcomes))
		for i, o := range outcomes {
			results[i] = batchResult{Username: o.Username, Recommendations: o.Recommendations}
			if o.Err != nil {
				results[i].Error = &errorBody{Message: messageOf(o.Err), Type: errorType(o.Err)}
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

func handleStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ranker, err := deps.Recommender.Load(r.Context())
		if err != nil {
			writeRecommendError(w, deps.Logger, "", err)
			return
		}
		writeJSON(w, http.StatusOK, ranker.Stats())
	}
}

// statusFor maps a failure cause to an HTTP status.
func statusFor(cause recommend.Cause) int {
	switch cause {
	case recommend.CauseUserNotFound:
		return http.StatusNotFound
	case recommend.CauseNoFeedback, recommend.CauseNoLikedItems, recommend.CauseLikedItemsUnresolved:
		return http.StatusUnprocessableEntity
	case recommend.CauseDataSourceUnavailable, recommend.CauseEmptyCatalog:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorType(err error) string {
	if c := recommend.CauseOf(err); c != "" {
		return string(c)
	}
	return "api_error"
}

func messageOf(err error) string {
	var rerr *recommend.Error
	if errors.As(err, &rerr) {
		return rerr.Message
	}
	return err.Error()
}

func writeRecommendError(w http.ResponseWriter, logger *slog.Logger, username string, err error) {
	cause := recommend.CauseOf(err)
	code := statusFor(cause)
	if code >= http.StatusInternalServerError {
		logger.Warn("recommendation failed", "username", username, "cause", cause, "error", err)
	}
	httpError(w, code, errorType(err), "%s", messageOf(err))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": errorBody{
			Message: fmt.Sprintf(format, args...),
			Type:    errType,
		},
	})
}

// instrument records request latency by route pattern and status.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = strings.TrimSuffix(p, "/")
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
