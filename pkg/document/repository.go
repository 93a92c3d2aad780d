package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	log "github.com/sirupsen/logrus"
)

var ErrDocumentNotFound = errors.New("record not found")

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	// List returns the documents of kind in ledger order.
	List(ctx context.Context, userId int, kind record.Kind) ([]Document, error)
	// ListBetween returns the documents dated within [from, to], both inclusive.
	ListBetween(ctx context.Context, userId int, kind record.Kind, from, to recurrence.Date) ([]Document, error)
	Get(ctx context.Context, userId int, kind record.Kind, id string) (Document, error)
	FindByClientKey(ctx context.Context, userId int, kind record.Kind, clientKey string) (Document, error)
	Insert(ctx context.Context, userId int, doc Document) (Document, error)
	Update(ctx context.Context, userId int, doc Document) (Document, error)
	Delete(ctx context.Context, userId int, kind record.Kind, id string) (bool, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepo(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&repositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const selectColumns = `id, kind, entry_date, sort_key, client_key, data, created_at, updated_at`

func (r *repositoryImpl) List(ctx context.Context, userId int, kind record.Kind) ([]Document, error) {
	query := `SELECT ` + selectColumns + ` FROM records
			  WHERE user_id = $1 AND kind = $2
			  ORDER BY entry_date DESC NULLS LAST, sort_key, id`
	return r.queryDocuments(ctx, query, userId, kind)
}

func (r *repositoryImpl) ListBetween(ctx context.Context, userId int, kind record.Kind, from, to recurrence.Date) ([]Document, error) {
	query := `SELECT ` + selectColumns + ` FROM records
			  WHERE user_id = $1 AND kind = $2 AND entry_date BETWEEN $3 AND $4
			  ORDER BY entry_date DESC, sort_key, id`
	return r.queryDocuments(ctx, query, userId, kind, from.Time(), to.Time())
}

func (r *repositoryImpl) Get(ctx context.Context, userId int, kind record.Kind, id string) (Document, error) {
	query := `SELECT ` + selectColumns + ` FROM records WHERE user_id = $1 AND kind = $2 AND id = $3`
	return r.queryDocument(ctx, query, userId, kind, id)
}

func (r *repositoryImpl) FindByClientKey(ctx context.Context, userId int, kind record.Kind, clientKey string) (Document, error) {
	query := `SELECT ` + selectColumns + ` FROM records WHERE user_id = $1 AND kind = $2 AND client_key = $3`
	return r.queryDocument(ctx, query, userId, kind, clientKey)
}

func (r *repositoryImpl) Insert(ctx context.Context, userId int, doc Document) (Document, error) {
	query := `INSERT INTO records (user_id, kind, id, entry_date, sort_key, client_key, data)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING created_at, updated_at`
	err := r.getQueryer().QueryRow(ctx, query,
		userId,
		doc.Kind,
		doc.Id,
		toPgDate(doc.Date),
		doc.SortKey,
		toNullable(doc.ClientKey),
		doc.Data,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		err = fmt.Errorf("could not insert %s %s: %w", doc.Kind, doc.Id, err)
		log.Error(err)
		return Document{}, err
	}
	return doc, nil
}

func (r *repositoryImpl) Update(ctx context.Context, userId int, doc Document) (Document, error) {
	query := `UPDATE records SET entry_date = $4, sort_key = $5, data = $6, updated_at = now()
			  WHERE user_id = $1 AND kind = $2 AND id = $3
			  RETURNING created_at, updated_at`
	err := r.getQueryer().QueryRow(ctx, query,
		userId,
		doc.Kind,
		doc.Id,
		toPgDate(doc.Date),
		doc.SortKey,
		doc.Data,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrDocumentNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not update %s %s: %w", doc.Kind, doc.Id, err)
		log.Error(err)
		return Document{}, err
	}
	return doc, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, userId int, kind record.Kind, id string) (bool, error) {
	result, err := r.getQueryer().Exec(ctx, `DELETE FROM records WHERE user_id = $1 AND kind = $2 AND id = $3`, userId, kind, id)
	if err != nil {
		return false, fmt.Errorf("could not delete %s %s: %w", kind, id, err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *repositoryImpl) queryDocument(ctx context.Context, query string, args ...any) (Document, error) {
	docs, err := r.queryDocuments(ctx, query, args...)
	if err != nil {
		return Document{}, err
	}
	if len(docs) == 0 {
		return Document{}, ErrDocumentNotFound
	}
	return docs[0], nil
}

func (r *repositoryImpl) queryDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.getQueryer().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			doc       Document
			kind      string
			entryDate pgtype.Date
			clientKey pgtype.Text
			data      []byte
		)
		if err := rows.Scan(
			&doc.Id,
			&kind,
			&entryDate,
			&doc.SortKey,
			&clientKey,
			&data,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		doc.Kind = record.Kind(kind)
		if entryDate.Valid {
			doc.Date = recurrence.DateOf(entryDate.Time)
		}
		doc.ClientKey = clientKey.String
		doc.Data = data
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func toPgDate(d recurrence.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func toNullable(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
