package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"docvault/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTokenPostgres_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	tok := &model.DownloadToken{
		ID:         uuid.New(),
		DocumentID: uuid.New(),
		VersionID:  uuid.New(),
		Token:      "opaque-value",
		ExpiresAt:  now.Add(15 * time.Minute),
		CreatedBy:  uuid.New(),
		CreatedAt:  now,
	}

	rows := sqlmock.NewRows([]string{"id", "document_id", "version_id", "token", "expires_at", "used_at", "created_by", "created_at"}).
		AddRow(tok.ID, tok.DocumentID, tok.VersionID, tok.Token, tok.ExpiresAt, nil, tok.CreatedBy, tok.CreatedAt)

	mock.ExpectQuery("INSERT INTO download_tokens").
		WithArgs(tok.ID, tok.DocumentID, tok.VersionID, tok.Token, tok.ExpiresAt, tok.UsedAt, tok.CreatedBy, tok.CreatedAt).
		WillReturnRows(rows)

	got, err := repo.Create(ctx, tok)

	assert.NoError(t, err)
	assert.Equal(t, tok.Token, got.Token)
	assert.Nil(t, got.UsedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenPostgres_FindByToken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenPostgres(db)
	ctx := context.Background()

	t.Run("used token round-trips used_at", func(t *testing.T) {
		used := time.Now().UTC()
		rows := sqlmock.NewRows([]string{"id", "document_id", "version_id", "token", "expires_at", "used_at", "created_by", "created_at"}).
			AddRow(uuid.New(), uuid.New(), uuid.New(), "val", used.Add(time.Hour), used, uuid.New(), used.Add(-time.Hour))

		mock.ExpectQuery("SELECT (.+) FROM download_tokens WHERE token = ?").
			WithArgs("val").
			WillReturnRows(rows)

		got, err := repo.FindByToken(ctx, "val")

		assert.NoError(t, err)
		assert.NotNil(t, got.UsedAt)
		assert.Equal(t, used, *got.UsedAt)
	})

	t.Run("unknown token", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM download_tokens WHERE token = ?").
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByToken(ctx, "nope")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestTokenPostgres_MarkUsed_CompareAndSet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenPostgres(db)
	ctx := context.Background()

	id := uuid.New()
	now := time.Now().UTC()

	t.Run("wins the race", func(t *testing.T) {
		mock.ExpectExec("UPDATE download_tokens SET used_at = (.+) WHERE id = (.+) AND used_at IS NULL").
			WithArgs(id, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.MarkUsed(ctx, id, now)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("loses the race", func(t *testing.T) {
		mock.ExpectExec("UPDATE download_tokens SET used_at = (.+) WHERE id = (.+) AND used_at IS NULL").
			WithArgs(id, now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.MarkUsed(ctx, id, now)
		assert.NoError(t, err)
		assert.False(t, ok, "second consumer must see zero affected rows")
	})
}

func TestTokenPostgres_DeleteExpired(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()

	t.Run("deletes and counts", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM download_tokens WHERE expires_at <= ?").
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := repo.DeleteExpired(ctx, now)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("idempotent when nothing expired", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM download_tokens WHERE expires_at <= ?").
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		n, err := repo.DeleteExpired(ctx, now)
		assert.NoError(t, err)
		assert.Zero(t, n)
	})
}
