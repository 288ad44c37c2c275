package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestLikeRepository_AddDiscussionLike(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin insert lands on the partial index", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewLikeRepository(db)

		mock.ExpectExec(`INSERT INTO discussion_likes .* ON CONFLICT \(user_id, discussion_id\) WHERE NOT admin DO NOTHING`).
			WithArgs(1, 2, false).
			WillReturnResult(sqlmock.NewResult(0, 1))

		inserted, err := repo.AddDiscussionLike(ctx, 1, 2, false)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate non-admin insert affects no rows", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewLikeRepository(db)

		mock.ExpectExec(`INSERT INTO discussion_likes .* DO NOTHING`).
			WithArgs(1, 2, false).
			WillReturnResult(sqlmock.NewResult(0, 0))

		inserted, err := repo.AddDiscussionLike(ctx, 1, 2, false)
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin insert bypasses the conflict clause", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewLikeRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "discussion_likes"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		inserted, err := repo.AddDiscussionLike(ctx, 1, 2, true)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLikeRepository_AddCommentLike(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin insert lands on the partial index", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewLikeRepository(db)

		mock.ExpectExec(`INSERT INTO comment_likes .* ON CONFLICT \(user_id, comment_id\) WHERE NOT admin DO NOTHING`).
			WithArgs(3, 4, false).
			WillReturnResult(sqlmock.NewResult(0, 1))

		inserted, err := repo.AddCommentLike(ctx, 3, 4, false)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLikeRepository_Counts(t *testing.T) {
	ctx := context.Background()

	t.Run("count discussion likes", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewLikeRepository(db)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "discussion_likes" WHERE discussion_id = \$1`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.CountDiscussionLikes(ctx, 1)
		require.NoError(t, err)
		assert.EqualValues(t, 7, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("has discussion like", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewLikeRepository(db)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "discussion_likes" WHERE discussion_id = \$1 AND user_id = \$2`).
			WithArgs(1, 2).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		has, err := repo.HasDiscussionLike(ctx, 1, 2)
		require.NoError(t, err)
		assert.False(t, has)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
