package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/openshelf/openshelf/internal/library/domain"
	"github.com/openshelf/openshelf/internal/library/service"
	"github.com/openshelf/openshelf/internal/library/store"
	"github.com/openshelf/openshelf/pkg/httpx"
	"github.com/openshelf/openshelf/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	AuthService        *service.AuthService
	CatalogService     *service.CatalogService
	CirculationService *service.CirculationService

	// GraphQL is mounted at POST /graphql when set.
	GraphQL http.Handler
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerBooks()
	r.registerBorrow()
	r.registerSystem()

	if r.GraphQL != nil {
		r.Mux.Handle("POST /graphql",
			httpx.Chain(r.GraphQL,
				httpx.RateLimitByIP(httpx.ModerateLimit),
				r.optionalIdentity,
			),
		)
	}
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints get the strict limit; they are the brute-force
	// surface.
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.RateLimitByIP(httpx.LenientLimit),
			r.authenticate,
		),
	)
}

func (r *Router) registerBooks() {
	h := &BooksHandler{CatalogService: r.CatalogService}

	r.Mux.Handle("GET /books",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitByIP(httpx.LenientLimit),
			r.authenticate,
		),
	)
	r.Mux.Handle("GET /books/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
			r.authenticate,
		),
	)

	r.Mux.Handle("POST /books",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			r.authenticate,
			requireCapability(domain.CapManageCatalog),
		),
	)
	r.Mux.Handle("PUT /books/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			r.authenticate,
			requireCapability(domain.CapManageCatalog),
		),
	)
	r.Mux.Handle("DELETE /books/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			r.authenticate,
			requireCapability(domain.CapManageCatalog),
		),
	)

	r.Mux.Handle("GET /books/reports/availability",
		httpx.Chain(http.HandlerFunc(h.HandleAvailability),
			httpx.RateLimitByIP(httpx.LenientLimit),
			r.authenticate,
			requireCapability(domain.CapViewReports),
		),
	)
}

func (r *Router) registerBorrow() {
	h := &BorrowHandler{CirculationService: r.CirculationService}

	r.Mux.Handle("POST /borrow/borrow",
		httpx.Chain(http.HandlerFunc(h.HandleBorrow),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			r.authenticate,
			requireCapability(domain.CapBorrow),
		),
	)
	r.Mux.Handle("POST /borrow/return",
		httpx.Chain(http.HandlerFunc(h.HandleReturn),
			httpx.RateLimitByIP(httpx.ModerateLimit),
			r.authenticate,
			requireCapability(domain.CapBorrow),
		),
	)
	r.Mux.Handle("GET /borrow/history/me",
		httpx.Chain(http.HandlerFunc(h.HandleHistory),
			httpx.RateLimitByIP(httpx.LenientLimit),
			r.authenticate,
			requireCapability(domain.CapBorrow),
		),
	)

	r.Mux.Handle("GET /borrow/reports/most-borrowed",
		httpx.Chain(http.HandlerFunc(h.HandleMostBorrowed),
			httpx.RateLimitByIP(httpx.LenientLimit),
			r.authenticate,
			requireCapability(domain.CapViewReports),
		),
	)
	r.Mux.Handle("GET /borrow/reports/active-members",
		httpx.Chain(http.HandlerFunc(h.HandleActiveMembers),
			httpx.RateLimitByIP(httpx.LenientLimit),
			r.authenticate,
			requireCapability(domain.CapViewMemberReports),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
