package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bookshop/internal/app"
	"bookshop/internal/ratelimit"
	"bookshop/internal/util"
)

const defaultCookieName = "bookshop_session"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                        *app.App
	RedisAddr                  string
	RedisPassword              string
	CookieName                 string
	CookieSecure               bool
	TrustedProxyCIDRs          []string
	LoginRateLimitPerMinute    int
	RegisterRateLimitPerMinute int
}

// Server exposes the HTML endpoints for the shop.
type Server struct {
	app             *app.App
	mux             *http.ServeMux
	cookieName      string
	cookieSecure    bool
	trustedProxies  *util.TrustedProxies
	loginLimiter    *ratelimit.FixedWindowLimiter
	registerLimiter *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes and templates configured.
func New(cfg Config) (*Server, error) {
	loginLimit := cfg.LoginRateLimitPerMinute
	if loginLimit <= 0 {
		loginLimit = 10
	}
	registerLimit := cfg.RegisterRateLimitPerMinute
	if registerLimit <= 0 {
		registerLimit = 5
	}
	loginLimiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "bookshop:ratelimit:login", loginLimit, time.Minute)
	if err != nil {
		return nil, fmt.Errorf("init login limiter: %w", err)
	}
	registerLimiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "bookshop:ratelimit:register", registerLimit, time.Minute)
	if err != nil {
		return nil, fmt.Errorf("init register limiter: %w", err)
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = defaultCookieName
	}
	s := &Server{
		app:             cfg.App,
		mux:             http.NewServeMux(),
		cookieName:      cookieName,
		cookieSecure:    cfg.CookieSecure,
		trustedProxies:  trusted,
		loginLimiter:    loginLimiter,
		registerLimiter: registerLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler wrapped with the standard
// middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/register/", s.handleRegister)
	s.mux.HandleFunc("/login/", s.handleLogin)
	s.mux.HandleFunc("/logout/", s.handleLogout)

	// catalog & cart
	s.mux.HandleFunc("/book/", s.handleBookDetail)
	s.mux.HandleFunc("/add-to-cart/", s.handleAddToCart)
	s.mux.HandleFunc("/cart/", s.handleCart)
	s.mux.HandleFunc("/", s.handleBookList)

	// staff-gated catalog management
	s.mux.Handle("/admin/books/", s.staffOnly(s.handleAdminBooks))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// staffOnly gates catalog-mutation routes. Anyone without an
// authenticated staff session is redirected to the login form rather
// than shown an error page.
func (s *Server) staffOnly(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sess := s.loadSession(r)
		user, ok := s.app.UserFromSession(sess)
		if !ok || !user.IsStaff {
			http.Redirect(w, r, "/login/", http.StatusFound)
			return
		}
		next(w, r)
	})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	util.LoggerFromContext(r.Context()).Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Server) tooManyRequests(w http.ResponseWriter, r *http.Request, what string) {
	slog.Warn("rate limited", "what", what, "ip", util.ClientIP(r, s.trustedProxies))
	http.Error(w, "too many requests", http.StatusTooManyRequests)
}
