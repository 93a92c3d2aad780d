package document

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paihq/pai/internal/test_utils"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, Repository, int) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, pgContainer.Restore(ctx))
	})
	userId, err := test_utils.InsertUser(ctx, db, "repo-user")
	require.NoError(t, err)
	return ctx, NewRepo(db), userId
}

func newDoc(kind record.Kind, id string, date recurrence.Date, sortKey, data string) Document {
	return Document{Id: id, Kind: kind, Date: date, SortKey: sortKey, Data: []byte(data)}
}

func TestRepositoryImpl_InsertAndList(t *testing.T) {
	t.Run("should list documents in ledger order", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepository(t)
		for _, d := range []Document{
			newDoc(record.Expenses, "a", recurrence.NewDate(2024, 1, 5), "rent", `{"id":"a"}`),
			newDoc(record.Expenses, "b", recurrence.NewDate(2024, 3, 1), "gas", `{"id":"b"}`),
			newDoc(record.Expenses, "c", recurrence.NewDate(2024, 1, 5), "coffee", `{"id":"c"}`),
			newDoc(record.Incomes, "d", recurrence.NewDate(2024, 2, 1), "salary", `{"id":"d"}`),
		} {
			_, err := repo.Insert(ctx, userId, d)
			require.NoError(t, err)
		}

		// when
		docs, err := repo.List(ctx, userId, record.Expenses)

		// then
		require.NoError(t, err)
		ids := []string{}
		for _, d := range docs {
			ids = append(ids, d.Id)
		}
		assert.Equal(t, []string{"b", "c", "a"}, ids)
		assert.Equal(t, recurrence.NewDate(2024, 3, 1), docs[0].Date)
		assert.JSONEq(t, `{"id":"b"}`, string(docs[0].Data))
		assert.False(t, docs[0].CreatedAt.IsZero())
	})

	t.Run("should keep undated documents last", func(t *testing.T) {
		ctx, repo, userId := setupTestRepository(t)
		_, err := repo.Insert(ctx, userId, newDoc(record.Tasks, "undated", recurrence.Date{}, "a", `{}`))
		require.NoError(t, err)
		_, err = repo.Insert(ctx, userId, newDoc(record.Tasks, "dated", recurrence.NewDate(2020, 1, 1), "b", `{}`))
		require.NoError(t, err)

		docs, err := repo.List(ctx, userId, record.Tasks)

		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "dated", docs[0].Id)
		assert.True(t, docs[1].Date.IsZero())
	})
}

func TestRepositoryImpl_LongSortKey(t *testing.T) {
	// given
	ctx, repo, userId := setupTestRepository(t)
	title := strings.Repeat("x", 300)

	// when
	_, err := repo.Insert(ctx, userId, newDoc(record.Notes, "long", recurrence.NewDate(2024, 1, 1), title, `{"title":"`+title+`"}`))

	// then
	require.NoError(t, err)
	docs, err := repo.List(ctx, userId, record.Notes)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, title, docs[0].SortKey)
}

func TestRepositoryImpl_ListBetween(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)
	for i, day := range []int{1, 15, 31} {
		_, err := repo.Insert(ctx, userId, newDoc(record.Expenses, string(rune('a'+i)), recurrence.NewDate(2024, 1, day), "", `{}`))
		require.NoError(t, err)
	}
	_, err := repo.Insert(ctx, userId, newDoc(record.Expenses, "feb", recurrence.NewDate(2024, 2, 1), "", `{}`))
	require.NoError(t, err)

	docs, err := repo.ListBetween(ctx, userId, record.Expenses, recurrence.NewDate(2024, 1, 1), recurrence.NewDate(2024, 1, 31))

	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestRepositoryImpl_ClientKey(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)
	d := newDoc(record.Notes, "n1", recurrence.NewDate(2024, 1, 1), "", `{"id":"n1"}`)
	d.ClientKey = "client-1"
	_, err := repo.Insert(ctx, userId, d)
	require.NoError(t, err)

	found, err := repo.FindByClientKey(ctx, userId, record.Notes, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "n1", found.Id)

	_, err = repo.FindByClientKey(ctx, userId, record.Expenses, "client-1")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	duplicate := newDoc(record.Notes, "n2", recurrence.NewDate(2024, 1, 1), "", `{"id":"n2"}`)
	duplicate.ClientKey = "client-1"
	_, err = repo.Insert(ctx, userId, duplicate)
	assert.Error(t, err)
}

func TestRepositoryImpl_UpdateAndDelete(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)
	_, err := repo.Insert(ctx, userId, newDoc(record.Notes, "n1", recurrence.NewDate(2024, 1, 1), "old", `{"title":"old"}`))
	require.NoError(t, err)

	updated, err := repo.Update(ctx, userId, newDoc(record.Notes, "n1", recurrence.NewDate(2024, 5, 1), "new", `{"title":"new"}`))
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	got, err := repo.Get(ctx, userId, record.Notes, "n1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.SortKey)
	assert.Equal(t, recurrence.NewDate(2024, 5, 1), got.Date)

	_, err = repo.Update(ctx, userId, newDoc(record.Notes, "missing", recurrence.Date{}, "", `{}`))
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	deleted, err := repo.Delete(ctx, userId, record.Notes, "n1")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, userId, record.Notes, "n1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRepositoryImpl_WithTransactionRollsBack(t *testing.T) {
	ctx, repo, userId := setupTestRepository(t)

	err := repo.WithTransaction(ctx, func(tx Repository) error {
		if _, err := tx.Insert(ctx, userId, newDoc(record.Notes, "n1", recurrence.NewDate(2024, 1, 1), "", `{}`)); err != nil {
			return err
		}
		_, err := tx.Insert(ctx, userId, newDoc(record.Notes, "n1", recurrence.NewDate(2024, 1, 1), "", `{}`))
		return err
	})

	assert.Error(t, err)
	docs, err := repo.List(ctx, userId, record.Notes)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
