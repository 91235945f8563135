package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"anan/internal/httputil"
)

// SessionCookieName carries the signed conversation identity.
const SessionCookieName = "anan_session"

// SessionManager binds each browser to a conversation ID via a signed
// HS256 cookie. The cookie is re-issued on every request so the expiry
// slides, matching a "stay alive while in use" session.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
}

// NewSessionManager creates a session manager. An empty secret gets a
// random per-process one; sessions then die with the process and do not
// survive across replicas, so production must set SESSION_SECRET.
func NewSessionManager(secret string, ttl time.Duration, logger *slog.Logger) *SessionManager {
	key := []byte(secret)
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			logger.Error("failed to generate session secret", "error", err)
		}
		key = []byte(hex.EncodeToString(buf))
		logger.Warn("SESSION_SECRET not set; using a random per-process secret")
	}

	return &SessionManager{
		secret: key,
		ttl:    ttl,
		logger: logger,
	}
}

// Middleware resolves (or mints) the conversation ID for the request and
// slides the cookie expiry.
func (m *SessionManager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conversationID := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				conversationID = m.verify(cookie.Value)
			}
			if conversationID == "" {
				conversationID = uuid.NewString()
			}

			m.issue(w, conversationID)
			next.ServeHTTP(w, httputil.WithConversationID(r, conversationID))
		})
	}
}

// verify returns the conversation ID from a valid token, or "" when the
// token is absent, expired, or tampered with - the caller then mints a
// fresh identity rather than failing the request.
func (m *SessionManager) verify(token string) string {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return ""
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return ""
	}
	return claims.Subject
}

// issue signs and sets the session cookie with a fresh expiry.
func (m *SessionManager) issue(w http.ResponseWriter, conversationID string) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   conversationID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		m.logger.Error("failed to sign session cookie", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
