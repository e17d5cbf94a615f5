package profilerepo_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/repository/profilerepo"
)

var columns = []string{"id", "type", "profession", "first_name", "last_name", "email", "balance", "password_hash", "created_at", "updated_at"}

func newRepo(t *testing.T) (*profilerepo.ProfileRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return profilerepo.NewProfileRepository(db, time.Second, logger.NewLogger("debug")), mock
}

func TestFindByID_Success(t *testing.T) {
	repo, mock := newRepo(t)
	id := uuid.New().String()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(id, "contractor", "Designer", "Ana", "Lima", "ana@ex.com", "150.25", "hash", now, now))

	p, err := repo.FindByID(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, domain.ProfileContractor, p.Type)
	require.NotNil(t, p.Profession)
	assert.Equal(t, "Designer", *p.Profession)
	assert.True(t, decimal.RequireFromString("150.25").Equal(p.Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), uuid.New().String())

	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestSave_DuplicateEmail(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.Save(context.Background(), domain.Profile{
		ID: uuid.New().String(), Type: domain.ProfileClient, FirstName: "Rui", LastName: "Souza",
		Email: "rui@ex.com", Balance: decimal.NewFromInt(500), PasswordHash: "hash", CreatedAt: now, UpdatedAt: now,
	})

	assert.True(t, apperror.IsConflictReason(err, apperror.ReasonEmailTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_CaseInsensitive(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(email) = lower($1)")).
		WithArgs("ANA@EX.COM").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.New().String(), "client", nil, "Ana", "Lima", "ana@ex.com", "0", "hash", now, now))

	p, err := repo.FindByEmail(context.Background(), "ANA@EX.COM")

	require.NoError(t, err)
	assert.Nil(t, p.Profession)
	assert.Equal(t, "ana@ex.com", p.Email)
}
