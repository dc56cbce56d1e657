package apiv1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"pdf-ai-pipeline/internal/usecase"
)

const (
	HeaderGuestID = "X-Guest-ID"
)

// Identity resolves the caller of a request from its bearer token.
type Identity struct {
	secret []byte
}

func NewIdentity(secret string) *Identity {
	return &Identity{secret: []byte(secret)}
}

// Caller returns a signed-in user when the bearer token verifies and carries
// a subject; anyone else is a guest identified by X-Guest-ID.
func (a *Identity) Caller(r *http.Request) usecase.Caller {
	c := usecase.Caller{GuestID: strings.TrimSpace(r.Header.Get(HeaderGuestID))}
	if sub, err := a.subject(r); err == nil {
		c.UserID = sub
	}
	return c
}

func (a *Identity) subject(r *http.Request) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("user tokens disabled")
	}
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return "", errors.New("missing token")
	}
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(strings.TrimSpace(hdr[7:]), claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
