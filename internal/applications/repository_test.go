package applications

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-intake/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const applicantID = "6f1c2d3e-4a5b-4c6d-8e7f-901234567890"

var viewColumns = []string{
	"application_id", "user_id", "application_date", "jpg_file_path",
	"status", "submitted_at", "user_name", "user_email", "member_number",
}

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db, logger.NewTestLogger(t))
	repo.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	return repo, mock
}

func TestRepository_EnsureSchemaIsRepeatable(t *testing.T) {
	repo, mock := newTestRepository(t)

	for i := 0; i < 2; i++ {
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS loan_applications`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS loan_application_status_history`).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_EnsureSchemaFailure(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS loan_applications`).
		WillReturnError(errors.New(`relation "member_users" does not exist`))

	err := repo.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaFailed)
}

func TestRepository_Insert(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`INSERT INTO loan_applications`).
		WithArgs(applicantID, "loan_applications/a.jpg", "pending", repo.now()).
		WillReturnRows(sqlmock.NewRows([]string{"application_id"}).AddRow(42))

	id, err := repo.Insert(context.Background(), applicantID, "loan_applications/a.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertFailure(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`INSERT INTO loan_applications`).
		WillReturnError(errors.New("violates foreign key constraint"))

	_, err := repo.Insert(context.Background(), applicantID, "x.jpg", "pending")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsertFailed)
	assert.Contains(t, err.Error(), "foreign key")
}

func TestRepository_ListFiltersAndFormats(t *testing.T) {
	repo, mock := newTestRepository(t)

	newer := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	older := time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM loan_applications la\s+JOIN member_users mu ON la.user_id = mu.user_id WHERE la.user_id = \$1 ORDER BY la.submitted_at DESC`).
		WithArgs(applicantID).
		WillReturnRows(sqlmock.NewRows(viewColumns).
			AddRow(2, applicantID, newer, "b.jpg", "approved", newer, "Ada", "ada@example.coop", "M-100").
			AddRow(1, applicantID, older, "a.jpg", "pending", older, "Ada", nil, nil))

	id := applicantID
	apps, err := repo.List(context.Background(), &id)
	require.NoError(t, err)
	require.Len(t, apps, 2)

	assert.Equal(t, int64(2), apps[0].ApplicationID)
	assert.Equal(t, "2024-03-10T09:00:00Z", *apps[0].SubmittedAt)
	assert.Equal(t, "approved", *apps[0].Status)
	assert.Equal(t, "ada@example.coop", *apps[0].UserEmail)
	assert.Nil(t, apps[1].UserEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListAllEmpty(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`JOIN member_users mu ON la.user_id = mu.user_id ORDER BY la.submitted_at DESC`).
		WillReturnRows(sqlmock.NewRows(viewColumns))

	apps, err := repo.List(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
}

func TestRepository_ListFailure(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectQuery(`SELECT la.application_id`).WillReturnError(errors.New("timeout"))

	_, err := repo.List(context.Background(), nil)
	assert.ErrorIs(t, err, ErrQueryFailed)
}

func TestRepository_Get(t *testing.T) {
	repo, mock := newTestRepository(t)
	at := time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE la.application_id = \$1`).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(viewColumns).
			AddRow(7, applicantID, at, "a.jpg", "pending", at, "Ada", nil, "M-1"))
	mock.ExpectQuery(`WHERE la.application_id = \$1`).WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(viewColumns))

	got, err := repo.Get(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a.jpg", got.JPGFilePath)

	missing, err := repo.Get(context.Background(), 8)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`UPDATE loan_applications AS la`).
		WithArgs("escalated", int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"application_id", "status"}).AddRow(5, "pending"))
	mock.ExpectQuery(`UPDATE loan_applications AS la`).
		WithArgs("approved", int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"application_id", "status"}))

	found, prev, err := repo.UpdateStatus(context.Background(), 5, "escalated")
	require.NoError(t, err)
	assert.True(t, found)
	require.NotNil(t, prev)
	assert.Equal(t, "pending", *prev)

	found, prev, err = repo.UpdateStatus(context.Background(), 99, "approved")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, prev)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatusFailure(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectQuery(`UPDATE loan_applications AS la`).WillReturnError(errors.New("value too long"))

	_, _, err := repo.UpdateStatus(context.Background(), 5, "x")
	assert.ErrorIs(t, err, ErrUpdateFailed)
}

func TestRepository_StatusHistory(t *testing.T) {
	repo, mock := newTestRepository(t)
	prev := "pending"

	mock.ExpectExec(`INSERT INTO loan_application_status_history`).
		WithArgs(int64(5), "pending", "approved", repo.now()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`FROM loan_application_status_history`).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "application_id", "previous_status", "new_status", "changed_at"}).
			AddRow(1, 5, nil, "pending", repo.now()).
			AddRow(2, 5, "pending", "approved", repo.now()))

	require.NoError(t, repo.RecordStatusChange(context.Background(), 5, &prev, "approved"))

	history, err := repo.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Nil(t, history[0].PreviousStatus)
	assert.Equal(t, "approved", history[1].NewStatus)
	assert.Equal(t, "2024-03-09T14:05:07Z", history[1].ChangedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
