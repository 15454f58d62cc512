package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ElMariones/portfolio/internal/session"
)

const (
	sessionCookie = "portfolio_session"
	viewKey       = "view"
)

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashIP returns a salted, truncated digest so client addresses never reach
// the logs.
func (s *Server) hashIP(ip string) string {
	h := sha256.New()
	h.Write([]byte(ip + s.salt))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func skipLogging(path string) bool {
	return strings.HasPrefix(path, "/static/") ||
		strings.HasPrefix(path, "/images/") ||
		strings.HasPrefix(path, "/favicon") ||
		path == "/healthz"
}

// requestLogger logs page and fragment requests. Static assets are skipped and
// visitors sending DNT are logged without an identifier.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skipLogging(path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if c.GetHeader("DNT") != "1" {
			attrs = append(attrs, "visitor", s.hashIP(c.ClientIP()))
		}
		s.logger.Info("request", attrs...)
	}
}

// sessionMiddleware attaches the visitor's view, creating one on first visit.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipLogging(c.Request.URL.Path) {
			c.Next()
			return
		}

		if id, err := c.Cookie(sessionCookie); err == nil {
			if v, ok := s.sessions.Get(id); ok {
				c.Set(viewKey, v)
				c.Next()
				return
			}
		}

		v := s.sessions.Create()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, v.ID, 0, "/", "", false, true)
		c.Set(viewKey, v)
		c.Next()
	}
}

func viewFrom(c *gin.Context) *session.View {
	return c.MustGet(viewKey).(*session.View)
}
