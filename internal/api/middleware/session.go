package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookie = "cart_session"
	sessionHeader = "X-Cart-Session"
	sessionCtxKey = "cart_session_id"
	sessionMaxAge = 180 * 24 * 60 * 60
)

// CartSession resolves the shopper's session id from the header or cookie,
// minting one on first visit. The id keys the cart snapshot.
func CartSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(sessionHeader)
		if sessionID == "" {
			if cookie, err := c.Cookie(sessionCookie); err == nil {
				sessionID = cookie
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(sessionCookie, sessionID, sessionMaxAge, "/", "", false, true)
		}

		c.Set(sessionCtxKey, sessionID)
		c.Next()
	}
}

// SessionID returns the session id resolved by CartSession.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionCtxKey)
}
