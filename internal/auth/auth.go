package auth

import (
	"strings"

	"github.com/mvoronin/taskspace/internal/apperr"
	"github.com/mvoronin/taskspace/internal/tokens"
)

// Gate checks that the bearer token attached to a request agrees with the
// identity the request claims to act as.
type Gate struct {
	Issuer *tokens.Issuer
}

func NewGate(issuer *tokens.Issuer) *Gate {
	return &Gate{Issuer: issuer}
}

// Check extracts the bearer token from the Authorization header value and
// asserts claims[field] == value. It has no side effects, it only fails:
// missing header or mismatched claim with UnauthorizedError, missing claim
// with InvalidTokenError, and whatever the token decode itself raises.
func (g *Gate) Check(authHeader, field, value string) error {
	if authHeader == "" {
		return apperr.Unauthorized()
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := g.Issuer.Payload(token)
	if err != nil {
		return err
	}

	claimed, ok := claims[field]
	if !ok {
		return apperr.InvalidToken()
	}
	if claimed != value {
		return apperr.Unauthorized()
	}
	return nil
}
