package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	// CreateUser registers a user on a trial subscription and returns its API token.
	CreateUser(ctx context.Context, user User) (User, string, error)
	GetUser(ctx context.Context, id int) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteCurrentUser(ctx context.Context) error
	RotateToken(ctx context.Context) (string, error)
	SetSubscription(ctx context.Context, userId int, status SubscriptionStatus) error
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	// Authenticate resolves a bearer token. It returns ErrUnauthenticated for unknown tokens
	// and ErrSubscriptionInactive, together with the user, when the subscription lapsed.
	Authenticate(ctx context.Context, token string) (User, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

func (u *UserServiceImpl) CreateUser(ctx context.Context, user User) (User, string, error) {
	if err := validate(user); err != nil {
		return User{}, "", err
	}
	available, err := u.repo.IsUsernameAvailable(ctx, user.Username)
	if err != nil {
		return User{}, "", err
	}
	if !available {
		return User{}, "", fmt.Errorf("%w: username %q is taken", ErrUserDataInvalid, user.Username)
	}

	token, err := NewToken()
	if err != nil {
		return User{}, "", err
	}
	user.Uid = uuid.NewString()
	user.Subscription = SubscriptionTrialing
	if user.Settings.Timezone == "" {
		user.Settings.Timezone = "UTC"
	}
	if user.Settings.Currency == "" {
		user.Settings.Currency = "USD"
	}
	user.Id, err = u.repo.CreateUser(ctx, user, HashToken(token))
	if err != nil {
		return User{}, "", err
	}
	log.Infof("created user %d (%s)", user.Id, user.Username)
	return user, token, nil
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) UpdateUser(ctx context.Context, user User) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if strings.TrimSpace(user.DisplayName) == "" {
		return User{}, fmt.Errorf("%w: display name is required", ErrUserDataInvalid)
	}
	if _, err := time.LoadLocation(user.Settings.Timezone); err != nil {
		return User{}, fmt.Errorf("%w: unknown timezone %q", ErrUserDataInvalid, user.Settings.Timezone)
	}
	return u.repo.UpdateUser(ctx, userId, user)
}

func (u *UserServiceImpl) DeleteCurrentUser(ctx context.Context) error {
	userId, err := CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return u.repo.DeleteUser(ctx, userId)
}

func (u *UserServiceImpl) RotateToken(ctx context.Context) (string, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	token, err := NewToken()
	if err != nil {
		return "", err
	}
	if err := u.repo.UpdateTokenHash(ctx, userId, HashToken(token)); err != nil {
		return "", err
	}
	return token, nil
}

func (u *UserServiceImpl) SetSubscription(ctx context.Context, userId int, status SubscriptionStatus) error {
	switch status {
	case SubscriptionTrialing, SubscriptionActive, SubscriptionPastDue, SubscriptionCanceled:
	default:
		return fmt.Errorf("%w: unknown subscription status %q", ErrUserDataInvalid, status)
	}
	return u.repo.UpdateSubscription(ctx, userId, status)
}

func (u *UserServiceImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	return u.repo.IsUsernameAvailable(ctx, username)
}

func (u *UserServiceImpl) Authenticate(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrUnauthenticated
	}
	user, err := u.repo.GetUserByTokenHash(ctx, HashToken(token))
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrUnauthenticated
	}
	if err != nil {
		return User{}, err
	}
	if !user.Subscription.Entitled() {
		return user, ErrSubscriptionInactive
	}
	return user, nil
}

func validate(user User) error {
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrUserDataInvalid)
	}
	if strings.TrimSpace(user.DisplayName) == "" {
		return fmt.Errorf("%w: display name is required", ErrUserDataInvalid)
	}
	if user.Settings.Timezone != "" {
		if _, err := time.LoadLocation(user.Settings.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrUserDataInvalid, user.Settings.Timezone)
		}
	}
	return nil
}
