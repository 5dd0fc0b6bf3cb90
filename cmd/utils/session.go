package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/golang-jwt/jwt/v4"
)

const SessionCookie = "postly_session"

// UserLoader resolves the user named by a session token.
type UserLoader interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
}

// Sessions issues and reads signed session cookies. The token subject is
// the user id.
type Sessions struct {
	secret   []byte
	lifetime time.Duration
	users    UserLoader
	now      func() time.Time
}

func NewSessions(secret string, lifetime time.Duration, users UserLoader) *Sessions {
	return &Sessions{
		secret:   []byte(secret),
		lifetime: lifetime,
		users:    users,
		now:      time.Now,
	}
}

// Token signs a session token for u.
func (s *Sessions) Token(u *models.User) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(u.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Issue sets the session cookie for u.
func (s *Sessions) Issue(w http.ResponseWriter, r *http.Request, u *models.User) error {
	token, err := s.Token(u)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  s.now().Add(s.lifetime),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Parse returns the user id carried by a valid token.
func (s *Sessions) Parse(token string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !parsed.Valid {
		return 0, errors.New("invalid session token")
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid user ID in token")
	}
	return uint(id), nil
}

// Middleware attaches the signed-in user to the request context. Missing,
// expired or forged cookies leave the request anonymous.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := s.Parse(c.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		u, err := s.users.UserByID(r.Context(), id)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), u)))
	})
}
