package server

import (
	"net/http"

	"bookshop/internal/app"
	"bookshop/internal/util"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		token, sess := s.loadSession(r)
		s.render(w, http.StatusOK, "register.html", pageData{
			Title:     "Register",
			CartCount: sess.Cart.Count(),
			Flashes:   s.popFlashes(w, token, &sess),
		})
	case http.MethodPost:
		s.handleRegisterSubmit(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.registerLimiter.Allow(util.ClientIP(r, s.trustedProxies)) {
		s.tooManyRequests(w, r, "register")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	form := app.RegistrationForm{
		Username:        r.PostFormValue("username"),
		Password:        r.PostFormValue("password"),
		PasswordConfirm: r.PostFormValue("password_confirm"),
	}
	token, sess := s.loadSession(r)
	_, errs, err := s.app.Register(form)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if len(errs) > 0 {
		s.render(w, http.StatusOK, "register.html", pageData{
			Title:     "Register",
			CartCount: sess.Cart.Count(),
			Errors:    errs,
			Form: map[string]string{
				"username":         form.Username,
				"password":         form.Password,
				"password_confirm": form.PasswordConfirm,
			},
		})
		return
	}
	sess.Flashes = append(sess.Flashes, "Registration successful. Please login.")
	if err := s.saveSession(w, token, sess); err != nil {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login/", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		token, sess := s.loadSession(r)
		s.render(w, http.StatusOK, "login.html", pageData{
			Title:     "Login",
			CartCount: sess.Cart.Count(),
			Flashes:   s.popFlashes(w, token, &sess),
		})
	case http.MethodPost:
		s.handleLoginSubmit(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.loginLimiter.Allow(util.ClientIP(r, s.trustedProxies)) {
		s.tooManyRequests(w, r, "login")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	token, sess := s.loadSession(r)
	user, err := s.app.Login(username, password)
	if err == app.ErrInvalidCredentials {
		s.render(w, http.StatusOK, "login.html", pageData{
			Title:     "Login",
			CartCount: sess.Cart.Count(),
			Errors:    []string{app.ErrInvalidCredentials.Error()},
			Form:      map[string]string{"username": username},
		})
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	sess.UserID = user.ID
	if err := s.saveSession(w, token, sess); err != nil {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout discards the whole session, cart included, regardless of
// whether anyone was logged in.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if cookie, err := r.Cookie(s.cookieName); err == nil && cookie.Value != "" {
		if err := s.app.Sessions().Delete(cookie.Value); err != nil {
			s.serverError(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login/", http.StatusFound)
}
