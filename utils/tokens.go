package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

var ErrNoViewer = errors.New("token carries no user id")

// Manager verifies marketplace access tokens. The search service only needs
// the viewer id, so tokens are never issued outside tests and tooling.
type Manager struct {
	signingKey string
}

func NewManager(signingKey string) (*Manager, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}

	return &Manager{signingKey: signingKey}, nil
}

func (m *Manager) NewJWT(userID string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
	})

	return token.SignedString([]byte(m.signingKey))
}

// Parse returns the user id of a valid token. Both string and numeric
// user_id claims are accepted; "sub" is the fallback.
func (m *Manager) Parse(accessToken string) (string, error) {
	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (i interface{}, err error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.signingKey), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected token claims")
	}

	for _, key := range []string{"user_id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v, nil
			}
		case float64:
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return "", ErrNoViewer
}

// ViewerFromHeader extracts the viewer id from an "Authorization: Bearer"
// header value. Anonymous or invalid tokens yield "".
func (m *Manager) ViewerFromHeader(header string) string {
	if m == nil {
		return ""
	}
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok {
		return ""
	}
	id, err := m.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return id
}
