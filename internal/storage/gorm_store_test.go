package storage

import (
	"context"
	"regexp"
	"testing"

	"cybershield/backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	insertComplaint = regexp.QuoteMeta(`INSERT INTO "complaints"`)
	selectComplaint = regexp.QuoteMeta(`SELECT * FROM "complaints" WHERE tracking_code = $1`)
	updateStatus    = regexp.QuoteMeta(`UPDATE "complaints" SET`)
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := gormConfig()
	cfg.Logger = logger.Discard
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	require.NoError(t, err)
	return NewStorageService(db, "cs"), mock
}

func complaintRow(code string, status models.Status) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tracking_code", "full_name", "status"}).
		AddRow(1, code, "Asha", string(status))
}

func TestService_CreateRetriesOnCodeCollision(t *testing.T) {
	// Arrange
	s, mock := newMockService(t)
	mock.ExpectQuery(insertComplaint).WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(insertComplaint).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	c := newDraft("Asha")

	// Act
	err := s.Create(context.Background(), c)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(7), c.ID)
	assert.Regexp(t, `^CS-[A-Z0-9]{8}$`, c.TrackingCode)
	assert.Equal(t, models.StatusReceived, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CreateSuppliedCodeTaken(t *testing.T) {
	s, mock := newMockService(t)
	mock.ExpectQuery(insertComplaint).WillReturnError(&pgconn.PgError{Code: "23505"})
	c := newDraft("Asha")
	c.TrackingCode = "CS-ABCD1234"

	err := s.Create(context.Background(), c)

	assert.ErrorIs(t, err, ErrDuplicateCode)
	assert.Equal(t, "CS-ABCD1234", c.TrackingCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_GetByTrackingCode(t *testing.T) {
	s, mock := newMockService(t)
	mock.ExpectQuery(selectComplaint).WithArgs("CS-ABCD1234", 1).
		WillReturnRows(complaintRow("CS-ABCD1234", models.StatusUnderReview))
	mock.ExpectQuery(selectComplaint).WithArgs("CS-MISSING1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := s.GetByTrackingCode(context.Background(), "CS-ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.FullName)
	assert.Equal(t, models.StatusUnderReview, got.Status)

	_, err = s.GetByTrackingCode(context.Background(), "CS-MISSING1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UpdateStatus(t *testing.T) {
	// Arrange
	s, mock := newMockService(t)
	mock.ExpectExec(updateStatus).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectComplaint).WillReturnRows(complaintRow("CS-ABCD1234", models.StatusResolved))

	// Act
	got, err := s.UpdateStatus(context.Background(), "CS-ABCD1234", models.StatusResolved)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UpdateStatusRejectsRegression(t *testing.T) {
	// Arrange
	s, mock := newMockService(t)
	mock.ExpectExec(updateStatus).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectComplaint).WillReturnRows(complaintRow("CS-ABCD1234", models.StatusClosed))

	// Act
	_, err := s.UpdateStatus(context.Background(), "CS-ABCD1234", models.StatusUnderReview)

	// Assert
	assert.ErrorIs(t, err, ErrStatusRegression)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_UpdateStatusUnknownCode(t *testing.T) {
	s, mock := newMockService(t)
	mock.ExpectExec(updateStatus).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectComplaint).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.UpdateStatus(context.Background(), "CS-MISSING1", models.StatusClosed)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
