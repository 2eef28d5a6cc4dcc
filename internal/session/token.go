package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired reports whether the token's exp claim lies in the past. The
// second return value is false when the token is not a JWT or carries no exp
// claim; verification is the backend's job, this is a local staleness check.
func tokenExpired(token string, now time.Time) (expired, known bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, false
	}
	return exp.Time.Before(now), true
}
