package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Verifier resolves the caller's user id. With an empty secret it runs in
// development mode and trusts the user id the client names.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) DevMode() bool {
	return len(v.secret) == 0
}

// Verify checks an HS256 token and returns its subject.
func (v *Verifier) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// FromRequest reads the bearer token from the Authorization header or the
// token query parameter (browsers cannot set headers on websockets).
func (v *Verifier) FromRequest(r *http.Request) (string, error) {
	if v.DevMode() {
		id := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if id == "" {
			id = strings.TrimSpace(r.Header.Get("X-User-ID"))
		}
		if id == "" {
			return "", ErrMissingToken
		}
		return id, nil
	}

	tokenStr := r.URL.Query().Get("token")
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		tokenStr = strings.TrimPrefix(header, "Bearer ")
	}
	if tokenStr == "" {
		return "", ErrMissingToken
	}
	return v.Verify(tokenStr)
}
