package google

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var ErrNonceNotFound = errors.New("google auth nonce not found")

// Repository stores OAuth tokens and the Google event ids of exported records.
type Repository interface {
	StartAuth(ctx context.Context, userId int, nonce string) error
	CompleteAuth(ctx context.Context, nonce string, token *oauth2.Token) error
	// GetToken returns nil when the user never connected a Google account.
	GetToken(ctx context.Context, userId int) (*oauth2.Token, error)
	DeleteAuth(ctx context.Context, userId int) error

	SaveExport(ctx context.Context, userId int, recordId, googleEventId string) error
	// FindExport returns "" when the record was not exported.
	FindExport(ctx context.Context, userId int, recordId string) (string, error)
	DeleteExport(ctx context.Context, userId int, recordId string) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) StartAuth(ctx context.Context, userId int, nonce string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO google_calendar_auth (user_id, nonce) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET nonce = EXCLUDED.nonce, access_token = NULL, refresh_token = NULL, expiry = NULL`,
		userId, nonce)
	if err != nil {
		log.Errorf("failed to store Google auth nonce for user %d: %v", userId, err)
	}
	return err
}

func (r *RepositoryImpl) CompleteAuth(ctx context.Context, nonce string, token *oauth2.Token) error {
	result, err := r.db.Exec(ctx,
		`UPDATE google_calendar_auth SET access_token = $1, refresh_token = $2, expiry = $3 WHERE nonce = $4`,
		token.AccessToken, token.RefreshToken, token.Expiry.Unix(), nonce)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNonceNotFound
	}
	return nil
}

func (r *RepositoryImpl) GetToken(ctx context.Context, userId int) (*oauth2.Token, error) {
	var accessToken, refreshToken pgtype.Text
	var expiry pgtype.Int8
	err := r.db.QueryRow(ctx, `SELECT access_token, refresh_token, expiry FROM google_calendar_auth WHERE user_id = $1`, userId).
		Scan(&accessToken, &refreshToken, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		log.Errorf("unable to retrieve Google auth token: %v", err)
		return nil, err
	}
	if !accessToken.Valid {
		// login started but never completed
		return nil, nil
	}
	return &oauth2.Token{
		AccessToken:  accessToken.String,
		RefreshToken: refreshToken.String,
		Expiry:       time.Unix(expiry.Int64, 0),
	}, nil
}

func (r *RepositoryImpl) DeleteAuth(ctx context.Context, userId int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM google_calendar_auth WHERE user_id = $1`, userId)
	return err
}

func (r *RepositoryImpl) SaveExport(ctx context.Context, userId int, recordId, googleEventId string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO google_calendar_exports (user_id, record_id, google_event_id) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, record_id) DO UPDATE SET google_event_id = EXCLUDED.google_event_id`,
		userId, recordId, googleEventId)
	return err
}

func (r *RepositoryImpl) FindExport(ctx context.Context, userId int, recordId string) (string, error) {
	var eventId string
	err := r.db.QueryRow(ctx, `SELECT google_event_id FROM google_calendar_exports WHERE user_id = $1 AND record_id = $2`,
		userId, recordId).Scan(&eventId)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return eventId, err
}

func (r *RepositoryImpl) DeleteExport(ctx context.Context, userId int, recordId string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM google_calendar_exports WHERE user_id = $1 AND record_id = $2`, userId, recordId)
	return err
}
