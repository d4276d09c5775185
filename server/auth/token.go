package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// SessionCookieName is the cookie holding the signed session token.
	SessionCookieName = "notegraph_session"
	// Issuer is the issuer of session tokens.
	Issuer = "notegraph"
)

// SessionClaims are the claims of a session token.
// Subject is the user ID and ID is the session row.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *SessionClaims) UserID() (int32, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid subject %q", c.Subject)
	}
	return int32(id), nil
}

// GenerateSessionToken signs a token for the session of userID.
func GenerateSessionToken(userID int32, sessionID string, issuedAt, expiresAt time.Time, secret []byte) (string, error) {
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.Itoa(int(userID)),
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}
	return signed, nil
}

// ParseSessionToken verifies the signature, algorithm, issuer and expiry of raw.
func ParseSessionToken(raw string, secret []byte, now time.Time) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, errors.Wrap(err, "invalid session token")
	}
	if claims.ID == "" {
		return nil, errors.New("session token has no session id")
	}
	return claims, nil
}
