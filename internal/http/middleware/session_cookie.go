package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/shopauthsvc/domain"
)

// SessionCookieMW binds the anonymous browsing session to a cookie. A new
// session id is minted on first contact but nothing is persisted until the
// cart is first written to.
type SessionCookieMW struct {
	sessions   domain.SessionStore
	cookieName string
	maxAge     int
	secure     bool
}

func NewSessionCookieMW(sessions domain.SessionStore, cookieName string, maxAgeSeconds int, secure bool) *SessionCookieMW {
	return &SessionCookieMW{
		sessions:   sessions,
		cookieName: cookieName,
		maxAge:     maxAgeSeconds,
		secure:     secure,
	}
}

// EnsureSession guarantees a session id cookie is present and exposes the id
// in the request context.
func (mw *SessionCookieMW) EnsureSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(mw.cookieName)
		if err != nil || sessionID == "" {
			sessionID, err = mw.sessions.NewID()
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
				c.Abort()
				return
			}
			mw.setCookie(c, sessionID)
		}

		c.Set("session_id", sessionID)
		c.Next()
	}
}

// ClearSession drops the cookie after the guest cart has been merged away.
func (mw *SessionCookieMW) ClearSession(c *gin.Context) {
	c.SetCookie(mw.cookieName, "", -1, "/", "", mw.secure, true)
}

func (mw *SessionCookieMW) setCookie(c *gin.Context, sessionID string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     mw.cookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   mw.maxAge,
		Secure:   mw.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
