package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"wagerengine/config"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

type actorKey struct{}

// ActorHeader carries the acting user's id
const ActorHeader = "X-User-ID"

// HTTPMetrics holds the request counter and latency histogram
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTPMetrics creates the request metrics and registers them on reg
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wagerengine_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wagerengine_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records count and latency under the route pattern
func (m *HTTPMetrics) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.latency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())

		log.WithFields(log.Fields{
			"method":   r.Method,
			"route":    route,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("HTTP request")
	})
}

// withActor requires a positive X-User-ID and stores it on the context. The
// system actor id is reserved for background transitions.
func withActor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := strconv.ParseInt(r.Header.Get(ActorHeader), 10, 64)
		if err != nil || actorID <= 0 {
			respondWithError(w, r, errMissingActor)
			return
		}
		if actorID == config.Get().SystemActorID {
			writeJSON(w, http.StatusForbidden, APIResponse{Success: false, Error: "system actor cannot call the API"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actorID)))
	}
}

// withAdmin requires the actor to be a configured admin
func withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return withActor(func(w http.ResponseWriter, r *http.Request) {
		if !config.Get().IsAdmin(actorFrom(r)) {
			writeJSON(w, http.StatusForbidden, APIResponse{Success: false, Error: "admin access required"})
			return
		}
		next(w, r)
	})
}

// withFundingActor requires an admin or a configured payment integration
func withFundingActor(next http.HandlerFunc) http.HandlerFunc {
	return withActor(func(w http.ResponseWriter, r *http.Request) {
		if !config.Get().IsFundingActor(actorFrom(r)) {
			writeJSON(w, http.StatusForbidden, APIResponse{Success: false, Error: "funding access required"})
			return
		}
		next(w, r)
	})
}

func actorFrom(r *http.Request) int64 {
	actorID, _ := r.Context().Value(actorKey{}).(int64)
	return actorID
}

// canAccessWallet allows the owner and admins
func canAccessWallet(r *http.Request, userID int64) bool {
	actorID := actorFrom(r)
	return actorID == userID || config.Get().IsAdmin(actorID)
}
