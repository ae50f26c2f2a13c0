// Package source adapts each search provider engine into a typed, normalized
// result and knows how to persist it. Every adapter is registered under its
// endpoint name so callers can dispatch by name or URL slug.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/LeadTechMaster/API/internal/cache"
	"github.com/LeadTechMaster/API/internal/store"
	"github.com/LeadTechMaster/API/pkg/serpapi"
)

// Query is the (query, location) pair an endpoint is called with. Location
// is passed through to the provider in whatever form the engine expects.
type Query struct {
	Query    string `json:"query"`
	Location string `json:"location"`
}

// Defaults is the market an endpoint reports on when the caller does not
// override it.
type Defaults struct {
	Industry         string
	Keyword          string
	Location         string
	TrendsGeo        string
	CompetitorDomain string
}

// Term returns the industry as a search phrase.
func (d Defaults) Term() string {
	return strings.ReplaceAll(d.Industry, "_", " ")
}

// Meta links persisted records to their session and call.
type Meta struct {
	SessionID string
	CallID    string
}

// Response is a result the dashboard can render. cache.Result satisfies it.
type Response interface {
	OK() bool
}

// Service runs endpoints through the freshness cache.
type Service struct {
	client    serpapi.Client
	store     store.Store
	cache     *cache.Cache
	sessionID string
	mapCenter string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMapCenter sets the viewport Google Maps searches are anchored to.
func WithMapCenter(lat, lng float64, zoom int) ServiceOption {
	return func(s *Service) {
		s.mapCenter = fmt.Sprintf("@%s,%s,%dz",
			strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lng, 'f', -1, 64), zoom)
	}
}

// NewService wires the provider client, store and cache. Records persisted
// by the service are tagged with sessionID.
func NewService(client serpapi.Client, st store.Store, c *cache.Cache, sessionID string, opts ...ServiceOption) *Service {
	s := &Service{
		client:    client,
		store:     st,
		cache:     c,
		sessionID: sessionID,
		mapCenter: "@25.7617,-80.1918,15z",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// env is what an adapter's fetch may use.
type env struct {
	client    serpapi.Client
	mapCenter string
}

// SessionID returns the session persisted records are tagged with.
func (s *Service) SessionID() string { return s.sessionID }

// Endpoint is one registered adapter.
type Endpoint struct {
	Name     string
	Slug     string
	Category string
	// Default builds the query used when the caller supplies none.
	Default func(Defaults) Query

	run func(ctx context.Context, s *Service, q Query, refresh bool) Response
}

// Run fetches q through the cache. A provider failure is reported in the
// Response, never as a panic or error return.
func (e Endpoint) Run(ctx context.Context, s *Service, q Query, refresh bool) Response {
	return e.run(ctx, s, q, refresh)
}

// Key returns the cache key for q.
func (e Endpoint) Key(q Query) cache.Key {
	return cache.Key{Endpoint: e.Name, Query: q.Query, Location: q.Location}
}

// Registry holds endpoints by name and slug.
type Registry struct {
	byName map[string]*Endpoint
	bySlug map[string]*Endpoint
	order  []string
}

// NewRegistry returns a registry with every adapter in this package.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Endpoint),
		bySlug: make(map[string]*Endpoint),
	}
	registerBusinesses(r)
	registerSearch(r)
	registerKeywords(r)
	registerTrends(r)
	registerContent(r)
	registerProducts(r)
	registerJobs(r)
	registerApps(r)
	registerFinance(r)
	return r
}

// Lookup finds an endpoint by name or slug.
func (r *Registry) Lookup(nameOrSlug string) (*Endpoint, bool) {
	if e, ok := r.byName[nameOrSlug]; ok {
		return e, true
	}
	e, ok := r.bySlug[nameOrSlug]
	return e, ok
}

// Endpoints returns every endpoint in registration order.
func (r *Registry) Endpoints() []*Endpoint {
	out := make([]*Endpoint, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the endpoint names sorted alphabetically.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int { return len(r.order) }

func (r *Registry) add(e *Endpoint) {
	if _, dup := r.byName[e.Name]; dup {
		panic("source: duplicate endpoint " + e.Name)
	}
	if _, dup := r.bySlug[e.Slug]; dup {
		panic("source: duplicate slug " + e.Slug)
	}
	r.byName[e.Name] = e
	r.bySlug[e.Slug] = e
	r.order = append(r.order, e.Name)
}

// adapter describes one endpoint with a typed result.
type adapter[T any] struct {
	name     string
	slug     string
	category string
	def      func(Defaults) Query
	fetch    func(ctx context.Context, e env, q Query) (T, error)
	persist  func(ctx context.Context, st store.Store, data T, m Meta) error
}

func register[T any](r *Registry, a adapter[T]) {
	r.add(&Endpoint{
		Name:     a.name,
		Slug:     a.slug,
		Category: a.category,
		Default:  a.def,
		run: func(ctx context.Context, s *Service, q Query, refresh bool) Response {
			req := cache.Request{
				Key:     cache.Key{Endpoint: a.name, Query: q.Query, Location: q.Location},
				Refresh: refresh,
			}
			fetch := func(ctx context.Context) (T, error) {
				return a.fetch(ctx, env{client: s.client, mapCenter: s.mapCenter}, q)
			}
			var persist cache.PersistFunc[T]
			if a.persist != nil && s.store != nil {
				persist = func(ctx context.Context, data T, callID string) error {
					return a.persist(ctx, s.store, data, Meta{SessionID: s.sessionID, CallID: callID})
				}
			}
			return cache.FetchOrRefresh[T](ctx, s.cache, req, fetch, persist)
		},
	})
}

// call runs one provider request and decodes it into T.
func call[T any](ctx context.Context, e env, engine string, params url.Values) (T, error) {
	var out T
	raw, err := e.client.Search(ctx, engine, params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, eris.Wrapf(err, "source: decode %s response", engine)
	}
	return out, nil
}

func params(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			v.Set(kv[i], kv[i+1])
		}
	}
	return v
}

func keywordAt(d Defaults) Query  { return Query{Query: d.Keyword, Location: d.Location} }
func industryAt(d Defaults) Query { return Query{Query: d.Term(), Location: d.Location} }
