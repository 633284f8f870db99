package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of the session cookie. Subject carries the
// external identity (openId) issued by the OAuth provider.
type SessionClaims struct {
	AppID string `json:"appId"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

var ErrInvalidSession = errors.New("invalid session token")

func SignSession(openID, appID, name string, exp time.Time, secret []byte) (string, error) {
	if openID == "" {
		return "", errors.New("session subject is empty")
	}
	claims := SessionClaims{
		AppID: appID,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   openID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func SessionClaimsFromToken(tokenStr string, secret []byte) (*SessionClaims, error) {
	var claims SessionClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return &claims, nil
}
