package jobrepo_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/repository/jobrepo"
)

var (
	contractColumns = []string{"id", "client_id", "contractor_id", "status", "created_at", "updated_at"}
	jobColumns      = []string{"id", "title", "description", "price", "contract_id", "client_id", "contractor_id",
		"completed", "approval_status", "paid", "paid_at", "created_at", "updated_at"}
)

func newRepo(t *testing.T) (*jobrepo.JobRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return jobrepo.NewJobRepository(db, time.Second, logger.NewLogger("debug")), mock
}

func jobRow(j domain.Job) *sqlmock.Rows {
	return sqlmock.NewRows(jobColumns).AddRow(j.ID, j.Title, j.Description, j.Price.String(), j.ContractID,
		j.ClientID, j.ContractorID, j.Completed, string(j.ApprovalStatus), j.Paid, nil, j.CreatedAt, j.UpdatedAt)
}

func TestCreateUnderContract_MovesNewContractToInProgress(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	contract := domain.Contract{ID: uuid.New().String(), ClientID: uuid.New().String(), ContractorID: uuid.New().String(), Status: domain.ContractNew}
	job := domain.NewJob(uuid.New().String(), contract, domain.CreateJobRequest{
		ContractID: contract.ID, Title: "API", Price: decimal.NewFromInt(250),
	}, now)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM contracts WHERE id = $1 FOR UPDATE")).
		WithArgs(contract.ID).
		WillReturnRows(sqlmock.NewRows(contractColumns).AddRow(contract.ID, contract.ClientID, contract.ContractorID, "new", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO jobs")).
		WillReturnRows(jobRow(job))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contracts SET status = $1")).
		WithArgs(domain.ContractInProgress, sqlmock.AnyArg(), contract.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := repo.CreateUnderContract(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, job.ID, created.ID)
	assert.Equal(t, domain.ApprovalPending, created.ApprovalStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnderContract_InProgressContractIsNotUpdated(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	contract := domain.Contract{ID: uuid.New().String(), ClientID: uuid.New().String(), ContractorID: uuid.New().String(), Status: domain.ContractInProgress}
	job := domain.NewJob(uuid.New().String(), contract, domain.CreateJobRequest{ContractID: contract.ID, Title: "API", Price: decimal.NewFromInt(10)}, now)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(contractColumns).AddRow(contract.ID, contract.ClientID, contract.ContractorID, "in_progress", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO jobs")).
		WillReturnRows(jobRow(job))
	mock.ExpectCommit()

	_, err := repo.CreateUnderContract(context.Background(), job)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnderContract_TerminatedUnderLockRollsBack(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	contract := domain.Contract{ID: uuid.New().String(), ClientID: uuid.New().String(), ContractorID: uuid.New().String()}
	job := domain.NewJob(uuid.New().String(), contract, domain.CreateJobRequest{ContractID: contract.ID, Title: "API", Price: decimal.NewFromInt(10)}, now)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(contractColumns).AddRow(contract.ID, contract.ClientID, contract.ContractorID, "terminated", now, now))
	mock.ExpectRollback()

	_, err := repo.CreateUnderContract(context.Background(), job)

	assert.True(t, apperror.IsConflictReason(err, apperror.ReasonContractTerminated))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutate_RuleRejectionRollsBack(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	job := domain.Job{ID: uuid.New().String(), Title: "API", Price: decimal.NewFromInt(10), ClientID: "c", ContractorID: "k",
		ApprovalStatus: domain.ApprovalPending, CreatedAt: now, UpdatedAt: now}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM jobs j WHERE j.id = $1 FOR UPDATE")).
		WithArgs(job.ID).
		WillReturnRows(jobRow(job))
	mock.ExpectRollback()

	_, err := repo.Mutate(context.Background(), job.ID, func(j domain.Job) (domain.Job, error) {
		return j, domain.AuthorizeJobCompletion("c", j)
	})

	assert.IsType(t, &apperror.ForbiddenError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutate_Success(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	job := domain.Job{ID: uuid.New().String(), Title: "API", Price: decimal.NewFromInt(10), ClientID: "c", ContractorID: "k",
		ApprovalStatus: domain.ApprovalPending, CreatedAt: now, UpdatedAt: now}
	completed := job
	completed.Completed = true

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(jobRow(job))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE jobs AS j")).
		WithArgs("API", "", sqlmock.AnyArg(), true, domain.ApprovalPending, sqlmock.AnyArg(), job.ID).
		WillReturnRows(jobRow(completed))
	mock.ExpectCommit()

	saved, err := repo.Mutate(context.Background(), job.ID, func(j domain.Job) (domain.Job, error) {
		if err := domain.AuthorizeJobCompletion("k", j); err != nil {
			return j, err
		}
		j.Completed = true
		return j, nil
	})

	require.NoError(t, err)
	assert.True(t, saved.Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
