package routing

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Router wraps chi.Router and remembers the routes mounted from routes.yaml.
type Router struct {
	mux    chi.Router
	routes []Route
}

// Option configures a Router.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger enables zap access logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a Router with sane defaults (RequestID, RealIP, access log,
// Recoverer).
func New(opts ...Option) *Router {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(o.logger))
	r.Use(middleware.Recoverer)
	return &Router{mux: r}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h http.HandlerFunc)    { r.mux.Get(pattern, h) }
func (r *Router) Post(pattern string, h http.HandlerFunc)   { r.mux.Post(pattern, h) }
func (r *Router) Put(pattern string, h http.HandlerFunc)    { r.mux.Put(pattern, h) }
func (r *Router) Patch(pattern string, h http.HandlerFunc)  { r.mux.Patch(pattern, h) }
func (r *Router) Delete(pattern string, h http.HandlerFunc) { r.mux.Delete(pattern, h) }

// Method registers h for a single method.
func (r *Router) Method(method, pattern string, h http.Handler) { r.mux.Method(method, pattern, h) }

// Handle registers h for every method.
func (r *Router) Handle(pattern string, h http.Handler) { r.mux.Handle(pattern, h) }

// ── Groups & Prefixes ────────────────────────────────────────────────────────

// Group creates an inline group sharing the parent's prefix.
func (r *Router) Group(fn func(r *Router)) {
	r.mux.Group(func(mx chi.Router) {
		fn(&Router{mux: mx})
	})
}

// Prefix creates a sub-router mounted under pattern.
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(&Router{mux: mx})
	})
}

// Middleware adds one or more middleware to the router.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// ── Configured routes ────────────────────────────────────────────────────────

// Dispatch builds the handler serving a configured route.
type Dispatch func(rt Route) http.HandlerFunc

// Add records routes to be mounted later.
func (r *Router) Add(routes ...Route) {
	r.routes = append(r.routes, routes...)
}

// Routes returns the configured routes in declaration order.
func (r *Router) Routes() []Route { return slices.Clone(r.routes) }

// Mount registers every configured route, with dispatch building each
// handler.
func (r *Router) Mount(dispatch Dispatch) {
	for _, rt := range r.routes {
		h := dispatch(rt)
		for _, m := range rt.Methods {
			r.mux.Method(m, rt.Pattern, h)
		}
	}
}

// ── Params ───────────────────────────────────────────────────────────────────

// Param extracts a URL route parameter.
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// Params returns every URL route parameter of the matched route.
func Params(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		if k == "*" {
			continue
		}
		out[k] = rctx.URLParams.Values[i]
	}
	return out
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be passed to an http.Server.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the underlying http.Handler (for testing etc.).
func (r *Router) Handler() http.Handler {
	return r.mux
}
