package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementRepository_Like(t *testing.T) {
	insertLike := regexp.QuoteMeta(`INSERT INTO "post_likes"`)

	t.Run("Success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewEngagementRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(insertLike).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "like_count"=like_count + 1 WHERE id = $1`)).
			WithArgs(3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT like_count FROM "posts" WHERE id = $1`)).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"like_count"}).AddRow(5))
		mock.ExpectCommit()

		count, err := repo.Like(context.Background(), 1, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewEngagementRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(insertLike).
			WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_post_likes_user_post" (SQLSTATE 23505)`))
		mock.ExpectRollback()

		_, err := repo.Like(context.Background(), 1, 3)
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEngagementRepository_Unsave(t *testing.T) {
	deleteSave := regexp.QuoteMeta(`DELETE FROM "saved_posts" WHERE user_id = $1 AND post_id = $2`)

	t.Run("Not Saved", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewEngagementRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(deleteSave).WithArgs(1, 3).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.Unsave(context.Background(), 1, 3)
		assert.ErrorIs(t, err, ErrNoRowsAffected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewEngagementRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(deleteSave).WithArgs(1, 3).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "save_count"=save_count - 1 WHERE id = $1`)).
			WithArgs(3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT save_count FROM "posts" WHERE id = $1`)).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"save_count"}).AddRow(0))
		mock.ExpectCommit()

		count, err := repo.Unsave(context.Background(), 1, 3)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
