package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repo interface {
	CreateUser(ctx context.Context, user User, tokenHash string) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByTokenHash(ctx context.Context, tokenHash string) (User, error)
	UpdateUser(ctx context.Context, userId int, user User) (User, error)
	UpdateSubscription(ctx context.Context, userId int, status SubscriptionStatus) error
	UpdateTokenHash(ctx context.Context, userId int, tokenHash string) error
	DeleteUser(ctx context.Context, id int) error
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const userColumns = `id, uid, username, display_name, subscription_status, timezone, currency, google_calendar_id`

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User, tokenHash string) (int, error) {
	query := `INSERT INTO users (uid, username, display_name, subscription_status, timezone, currency, google_calendar_id, api_token_hash)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	var id int
	err := u.db.QueryRow(ctx, query,
		user.Uid,
		user.Username,
		user.DisplayName,
		user.Subscription,
		user.Settings.Timezone,
		user.Settings.Currency,
		toNullable(user.Settings.GoogleCalendar.CalendarId),
		tokenHash,
	).Scan(&id)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return 0, err
	}
	return id, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (u *UserRepoImpl) GetUserByTokenHash(ctx context.Context, tokenHash string) (User, error) {
	return u.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE api_token_hash = $1`, tokenHash)
}

func (u *UserRepoImpl) queryUser(ctx context.Context, query string, arg any) (User, error) {
	var user User
	var subscription string
	var googleCalendarId pgtype.Text
	err := u.db.QueryRow(ctx, query, arg).Scan(
		&user.Id,
		&user.Uid,
		&user.Username,
		&user.DisplayName,
		&subscription,
		&user.Settings.Timezone,
		&user.Settings.Currency,
		&googleCalendarId,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	user.Subscription = SubscriptionStatus(subscription)
	user.Settings.GoogleCalendar.CalendarId = googleCalendarId.String
	return user, nil
}

func (u *UserRepoImpl) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	query := `UPDATE users SET display_name = $1, timezone = $2, currency = $3, google_calendar_id = $4
				WHERE id = $5
				RETURNING ` + userColumns
	var subscription string
	var googleCalendarId pgtype.Text
	var updated User
	err := u.db.QueryRow(ctx, query,
		user.DisplayName,
		user.Settings.Timezone,
		user.Settings.Currency,
		toNullable(user.Settings.GoogleCalendar.CalendarId),
		userId,
	).Scan(
		&updated.Id,
		&updated.Uid,
		&updated.Username,
		&updated.DisplayName,
		&subscription,
		&updated.Settings.Timezone,
		&updated.Settings.Currency,
		&googleCalendarId,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		return User{}, err
	}
	updated.Subscription = SubscriptionStatus(subscription)
	updated.Settings.GoogleCalendar.CalendarId = googleCalendarId.String
	return updated, nil
}

func (u *UserRepoImpl) UpdateSubscription(ctx context.Context, userId int, status SubscriptionStatus) error {
	return u.execOne(ctx, `UPDATE users SET subscription_status = $1 WHERE id = $2`, status, userId)
}

func (u *UserRepoImpl) UpdateTokenHash(ctx context.Context, userId int, tokenHash string) error {
	return u.execOne(ctx, `UPDATE users SET api_token_hash = $1 WHERE id = $2`, tokenHash, userId)
}

func (u *UserRepoImpl) DeleteUser(ctx context.Context, id int) error {
	return u.execOne(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (u *UserRepoImpl) execOne(ctx context.Context, query string, args ...any) error {
	result, err := u.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		log.Info("no rows affected")
		return ErrUserNotFound
	}
	return nil
}

func (u *UserRepoImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	var count int
	err := u.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE username = $1`, username).Scan(&count)
	if err != nil {
		log.Errorf("failed to check username availability: %v", err)
		return false, err
	}
	return count == 0, nil
}

func toNullable(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
