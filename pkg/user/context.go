package user

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

type ctxKey struct{}

var ErrNoUser = errors.New("no user in context")

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func CurrentUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(ctxKey{}).(User)
	if !ok {
		log.Trace("no authenticated user in context")
		return User{}, ErrNoUser
	}
	return u, nil
}

// CurrentId returns ErrNoUser when the request was not authenticated.
func CurrentId(ctx context.Context) (int, error) {
	u, err := CurrentUser(ctx)
	return u.Id, err
}

// CurrentLocation is the time zone of the authenticated user, UTC when there is none.
func CurrentLocation(ctx context.Context) *time.Location {
	u, err := CurrentUser(ctx)
	if err != nil {
		return time.UTC
	}
	return u.Settings.Location()
}
