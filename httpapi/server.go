package httpapi

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"

	"github.com/bricola/authcore"
	"github.com/bricola/authcore/account"
	"github.com/bricola/authcore/middleware"
)

// Routes.
const (
	RouteRegister      = "/auth/register"
	RouteVerifyEmail   = "/auth/verify-email"
	RouteLogin         = "/auth/login"
	RouteResend        = "/auth/resend-verification"
	RouteForgot        = "/auth/forgot-password"
	RouteResetPassword = "/auth/reset-password"
	RouteRefresh       = "/auth/refresh"
	RouteRefreshLogout = "/auth/refresh/logout"
	RouteLogout        = "/auth/logout"
	RouteChangeEmail   = "/auth/change-email"
	RouteMe            = "/auth/me"
	RouteAccountStatus = "/users/{id}/status"
	RouteMetrics       = "/metrics"
)

// Config controls the HTTP adapter.
type Config struct {
	// SecureCookies sets the Secure attribute on the refresh cookie.
	SecureCookies bool
	// Metrics, when set, is served on RouteMetrics.
	Metrics http.Handler
}

// Server holds the handlers bound to one engine.
type Server struct {
	engine *authcore.Engine
	cfg    Config
}

// NewRouter returns a router serving every route of the API on engine.
func NewRouter(engine *authcore.Engine, cfg Config) *mux.Router {
	s := &Server{engine: engine, cfg: cfg}

	router := mux.NewRouter()
	router.Use(recoverMiddleware, logging)

	guard := middleware.Guard(engine)
	admin := func(h http.HandlerFunc) http.Handler {
		return guard(middleware.RequireRole(account.RoleAdmin)(h))
	}

	addRoute(router, http.MethodPost, RouteRegister, s.handleRegister)
	addRoute(router, http.MethodPost, RouteVerifyEmail, s.handleVerifyEmail)
	addRoute(router, http.MethodPost, RouteLogin, s.handleLogin)
	addRoute(router, http.MethodPost, RouteResend, s.handleResendVerification)
	addRoute(router, http.MethodPost, RouteForgot, s.handleForgotPassword)
	addRoute(router, http.MethodPatch, RouteResetPassword, s.handleResetPassword)
	addRoute(router, http.MethodPost, RouteRefresh, s.handleRefresh)

	router.Handle(RouteLogout, guard(http.HandlerFunc(s.handleLogout))).Methods(http.MethodPost)
	router.Handle(RouteRefreshLogout, guard(http.HandlerFunc(s.handleLogout))).Methods(http.MethodPost)
	router.Handle(RouteChangeEmail, guard(http.HandlerFunc(s.handleChangeEmail))).Methods(http.MethodPost)
	router.Handle(RouteMe, guard(http.HandlerFunc(s.handleMe))).Methods(http.MethodGet)
	router.Handle(RouteAccountStatus, admin(s.handleAccountStatus)).Methods(http.MethodPatch)

	if cfg.Metrics != nil {
		router.Handle(RouteMetrics, cfg.Metrics).Methods(http.MethodGet)
	}

	return router
}

// addRoute adds a route to the provided router.
func addRoute(router *mux.Router, method string, route string, handler http.HandlerFunc) {
	router.HandleFunc(route, handler).Methods(method)
}

// logging logs every request and stores the client address for the engine.
func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugf("%v %v %v %v", remoteAddr(r), r.Method, r.URL, r.Proto)
		ctx := authcore.WithClientIP(r.Context(), clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverMiddleware recovers from any panics by logging the panic and
// returning a 500 response.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Criticalf("%v %v %v: panic: %v\n%s",
					remoteAddr(r), r.Method, r.URL.Path, err, debug.Stack())
				respondWithMessage(w, http.StatusInternalServerError,
					authcore.ErrInternal.Message)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func remoteAddr(r *http.Request) string {
	via := r.RemoteAddr
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		return fmt.Sprintf("%v via %v", xff, r.RemoteAddr)
	}
	return via
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
