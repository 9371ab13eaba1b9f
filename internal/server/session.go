package server

import (
	"net/http"

	"bookshop/internal/domain"
	"bookshop/internal/util"
)

// loadSession resolves the request's session from its cookie, minting a
// fresh token with an empty session when the cookie is absent or stale.
// Nothing is persisted until saveSession runs.
func (s *Server) loadSession(r *http.Request) (string, domain.Session) {
	if cookie, err := r.Cookie(s.cookieName); err == nil && cookie.Value != "" {
		sess, ok, err := s.app.Sessions().Get(cookie.Value)
		if err == nil && ok {
			return cookie.Value, sess
		}
	}
	return util.NewToken(), domain.Session{}
}

// saveSession persists the session and (re)issues the cookie.
func (s *Server) saveSession(w http.ResponseWriter, token string, sess domain.Session) error {
	if err := s.app.Sessions().Save(token, sess); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// popFlashes drains pending notices, persisting the cleared session so
// each notice renders exactly once.
func (s *Server) popFlashes(w http.ResponseWriter, token string, sess *domain.Session) []string {
	if len(sess.Flashes) == 0 {
		return nil
	}
	flashes := sess.Flashes
	sess.Flashes = nil
	if err := s.saveSession(w, token, *sess); err != nil {
		return flashes
	}
	return flashes
}
