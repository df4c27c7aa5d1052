package http

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const sessionCookie = "cdsession"

// SessionManager issues and validates HMAC-signed login cookies. It gates
// the dashboard pages; it is not a hardened auth layer.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionManager builds a manager from the configured secret. An empty
// secret gets a random per-process key, so sessions reset on restart.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		rand.Read(key)
		slog.Info("No session secret configured, using a per-process random key")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionManager{secret: key, ttl: ttl}
}

// issue sets a signed session cookie for the given username.
func (m *SessionManager) issue(w http.ResponseWriter, username string) {
	exp := time.Now().Add(m.ttl)
	payload := base64.RawURLEncoding.EncodeToString([]byte(username)) + "." + strconv.FormatInt(exp.Unix(), 10)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    payload + "." + m.sign(payload),
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clear expires the session cookie.
func (m *SessionManager) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// validate checks the cookie signature and expiry, returning the username.
func (m *SessionManager) validate(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}

	parts := strings.Split(c.Value, ".")
	if len(parts) != 3 {
		return "", false
	}

	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(m.sign(payload)), []byte(parts[2])) {
		return "", false
	}

	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return "", false
	}

	name, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", false
	}
	return string(name), true
}

func (m *SessionManager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
