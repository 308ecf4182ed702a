package queries

//go:generate mockgen -source=user.go -destination=../../../tests/mock/queries/user.go -package=queriesmock

import (
	"context"

	"storefront/internal/domain/user"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"
)

type UserQueries interface {
	GetCurrentUser(ctx context.Context) (*user.Profile, error)
}

type userQueriesImpl struct {
	accounts shared.AccountGateway
}

func NewUserQueries(accounts shared.AccountGateway) UserQueries {
	return &userQueriesImpl{
		accounts: accounts,
	}
}

// GetCurrentUser reads the signed-in user's profile from the store. ctx
// must carry the store credential.
func (q *userQueriesImpl) GetCurrentUser(ctx context.Context) (*user.Profile, error) {
	profile, err := q.accounts.FetchProfile(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "fetch profile")
	}
	return profile, nil
}
