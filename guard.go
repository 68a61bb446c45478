package accounts

import (
	"context"

	"github.com/google/uuid"

	"github.com/accountsd/go-accounts/middleware/jwtware"
)

type guardValidator struct {
	ts TokenService
}

func (g guardValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := g.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// GuardTokenValidator adapts a TokenService to the middleware contract.
func GuardTokenValidator(ts TokenService) jwtware.TokenValidator {
	return guardValidator{ts: ts}
}

// ResolveRequestUser returns the guard hook that maps a verified token
// subject to the stored account. A subject that does not parse or no longer
// resolves yields the user-not-found rejection.
func ResolveRequestUser(store UserStore) jwtware.UserResolver {
	return func(ctx context.Context, claims jwtware.AuthClaims) (any, error) {
		id, err := uuid.Parse(claims.UserID())
		if err != nil {
			return nil, ErrIdentityNotFound
		}

		user, err := store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		return user, nil
	}
}
