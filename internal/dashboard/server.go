// Package dashboard serves every registered endpoint, the combined map data
// and the marketing analytics over HTTP.
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeadTechMaster/API/internal/analytics"
	"github.com/LeadTechMaster/API/internal/cache"
	"github.com/LeadTechMaster/API/internal/geo"
	"github.com/LeadTechMaster/API/internal/metrics"
	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/source"
)

// Store is the part of the store the dashboard reads directly.
type Store interface {
	RecentCalls(ctx context.Context, limit int) ([]model.CallRecord, error)
	VolumeTimeline(ctx context.Context, keyword, location, dateRange string) ([]model.VolumeSample, error)
}

// Deps wires the server's collaborators. Geo, Analytics and Metrics are
// optional; their routes answer 503 when absent.
type Deps struct {
	Registry  *source.Registry
	Service   *source.Service
	Cache     *cache.Cache
	Store     Store
	Geo       *geo.Engine
	Analytics *analytics.Analyzer
	Metrics   *metrics.Metrics
	Defaults  source.Defaults
	// Fanout bounds the concurrent provider calls of /api/all-data. Values
	// below 1 run sequentially.
	Fanout int
}

// Server is the dashboard HTTP server.
type Server struct {
	deps Deps
	now  func() time.Time
}

const (
	recentCallsLimit = 10
	defaultDateRange = "today 3-m"
)

// New creates a Server.
func New(d Deps) *Server {
	if d.Fanout < 1 {
		d.Fanout = 1
	}
	return &Server{deps: d, now: time.Now}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/data-freshness", s.handleFreshness)
		r.Get("/all-data", s.handleAllData)
		r.Get("/map-data", s.handleMapData)
		r.Get("/marketing-analytics", s.handleAnalytics)
		r.Get("/keyword-timeline", s.handleTimeline)
		r.Get("/{slug}", s.handleEndpoint)
	})
	return r
}

// logRequests logs each request and records it in the request metrics
// under its route pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		s.deps.Metrics.RecordRequest(route, status, elapsed)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("elapsed_ms", elapsed.Milliseconds()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// errorBody is the JSON body of every failed request.
type errorBody struct {
	Status model.Status `json:"status"`
	Error  string       `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Status: model.StatusError, Error: msg})
}

// handleEndpoint runs one registered endpoint. The dashboard defaults are
// used unless q or location override them; refresh=true skips the cache.
func (s *Server) handleEndpoint(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	e, ok := s.deps.Registry.Lookup(slug)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown endpoint "+slug)
		return
	}

	q := e.Default(s.deps.Defaults)
	params := r.URL.Query()
	if v := params.Get("q"); v != "" {
		q.Query = v
	}
	if v := params.Get("location"); v != "" {
		q.Location = v
	}
	refresh, _ := strconv.ParseBool(params.Get("refresh"))

	res := e.Run(r.Context(), s.deps.Service, q, refresh)
	code := http.StatusOK
	if !res.OK() {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, res)
}

// AllData is the response of /api/all-data. Each section reports its own
// status.
type AllData struct {
	Status    model.Status               `json:"status"`
	Timestamp time.Time                  `json:"timestamp"`
	SessionID string                     `json:"session_id"`
	Succeeded int                        `json:"succeeded"`
	Failed    int                        `json:"failed"`
	Data      map[string]source.Response `json:"data"`
}

func (s *Server) handleAllData(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	writeJSON(w, http.StatusOK, s.allData(r.Context(), refresh))
}

// allData runs every registered endpoint with its default query.
func (s *Server) allData(ctx context.Context, refresh bool) AllData {
	endpoints := s.deps.Registry.Endpoints()
	results := make([]source.Response, len(endpoints))

	var g errgroup.Group
	g.SetLimit(s.deps.Fanout)
	for i, e := range endpoints {
		g.Go(func() error {
			results[i] = e.Run(ctx, s.deps.Service, e.Default(s.deps.Defaults), refresh)
			return nil
		})
	}
	_ = g.Wait()

	out := AllData{
		Status:    model.StatusSuccess,
		Timestamp: s.now().UTC(),
		SessionID: s.deps.Service.SessionID(),
		Data:      make(map[string]source.Response, len(endpoints)),
	}
	for i, e := range endpoints {
		out.Data[e.Slug] = results[i]
		if results[i].OK() {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out
}

// Status is the response of /api/status.
type Status struct {
	Status       string             `json:"status"`
	Timestamp    time.Time          `json:"timestamp"`
	SessionID    string             `json:"session_id"`
	Endpoints    int                `json:"endpoints"`
	FreshMinutes int                `json:"cache_fresh_minutes"`
	RecentCalls  []model.CallRecord `json:"recent_calls"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	calls, err := s.deps.Store.RecentCalls(r.Context(), recentCallsLimit)
	if err != nil {
		zap.L().Error("status: recent calls", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if calls == nil {
		calls = []model.CallRecord{}
	}
	writeJSON(w, http.StatusOK, Status{
		Status:       "online",
		Timestamp:    s.now().UTC(),
		SessionID:    s.deps.Service.SessionID(),
		Endpoints:    s.deps.Registry.Len(),
		FreshMinutes: int(s.deps.Cache.FreshFor() / time.Minute),
		RecentCalls:  calls,
	})
}

// EndpointFreshness is the freshness of one endpoint's default query.
type EndpointFreshness struct {
	Endpoint string `json:"endpoint"`
	Slug     string `json:"slug"`
	Query    string `json:"query"`
	Location string `json:"location"`
	cache.Freshness
	Error string `json:"error,omitempty"`
}

func (s *Server) handleFreshness(w http.ResponseWriter, r *http.Request) {
	endpoints := s.deps.Registry.Endpoints()
	out := make([]EndpointFreshness, 0, len(endpoints))
	for _, e := range endpoints {
		q := e.Default(s.deps.Defaults)
		f, err := s.deps.Cache.IsFresh(r.Context(), e.Key(q), s.deps.Cache.FreshFor())
		entry := EndpointFreshness{Endpoint: e.Name, Slug: e.Slug, Query: q.Query, Location: q.Location, Freshness: f}
		if err != nil {
			entry.Error = err.Error()
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    model.StatusSuccess,
		"timestamp": s.now().UTC(),
		"endpoints": out,
	})
}

func (s *Server) handleMapData(w http.ResponseWriter, r *http.Request) {
	if s.deps.Geo == nil {
		writeError(w, http.StatusServiceUnavailable, "map data is not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Geo.MapData(r.Context()))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if s.deps.Analytics == nil {
		writeError(w, http.StatusServiceUnavailable, "analytics is not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Analytics.Summary(r.Context()))
}

// TimelinePoint is one dated interest value.
type TimelinePoint struct {
	Date     string  `json:"date"`
	Interest float64 `json:"interest"`
}

// Timeline is the response of /api/keyword-timeline.
type Timeline struct {
	Status    model.Status    `json:"status"`
	Keyword   string          `json:"keyword"`
	Location  string          `json:"location"`
	DateRange string          `json:"date_range"`
	Points    []TimelinePoint `json:"timeline"`
}

// handleTimeline returns the stored interest timeline of the latest volume
// history call for a keyword.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	out := Timeline{
		Status:    model.StatusSuccess,
		Keyword:   params.Get("keyword"),
		Location:  params.Get("location"),
		DateRange: params.Get("range"),
		Points:    []TimelinePoint{},
	}
	if out.Keyword == "" {
		out.Keyword = s.deps.Defaults.Keyword
	}
	if out.Location == "" {
		out.Location = s.deps.Defaults.Location
	}
	if out.DateRange == "" {
		out.DateRange = defaultDateRange
	}
	if out.Keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	samples, err := s.deps.Store.VolumeTimeline(r.Context(), out.Keyword, out.Location, out.DateRange)
	if err != nil {
		zap.L().Error("keyword timeline", zap.String("keyword", out.Keyword), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, v := range samples {
		out.Points = append(out.Points, TimelinePoint{Date: v.TimelineDate, Interest: v.Interest})
	}
	writeJSON(w, http.StatusOK, out)
}
