package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// sessionID returns the caller's session id, issuing a new cookie when the
// request has none or carries a malformed one.
func (s *Server) sessionID(c echo.Context) string {
	id, cookie := s.resolveSession(c.Request())
	if cookie != nil {
		c.SetCookie(cookie)
	}
	return id
}

func (s *Server) resolveSession(r *http.Request) (string, *http.Cookie) {
	if ck, err := r.Cookie(s.cookieName); err == nil {
		if _, err := uuid.Parse(ck.Value); err == nil {
			return ck.Value, nil
		}
	}

	id := uuid.NewString()
	return id, &http.Cookie{
		Name:     s.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
