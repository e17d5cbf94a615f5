package jobservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/service/jobservice"
)

// MockJobRepository é uma implementação mock da interface JobRepository.
// Mutate aplica a função recebida sobre o job registrado em stored, como o
// repositório real faz sob lock.
type MockJobRepository struct {
	mock.Mock
	stored *domain.Job
}

func (m *MockJobRepository) CreateUnderContract(ctx context.Context, job domain.Job) (domain.Job, error) {
	args := m.Called(ctx, job)
	return args.Get(0).(domain.Job), args.Error(1)
}

func (m *MockJobRepository) GetDetails(ctx context.Context, id string) (domain.JobDetails, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.JobDetails), args.Error(1)
}

func (m *MockJobRepository) List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Job), args.Int(1), args.Error(2)
}

func (m *MockJobRepository) ListUnpaid(ctx context.Context, partyID string, p domain.Pagination) ([]domain.Job, int, error) {
	args := m.Called(ctx, partyID, p)
	return args.Get(0).([]domain.Job), args.Int(1), args.Error(2)
}

func (m *MockJobRepository) Mutate(ctx context.Context, id string, fn func(domain.Job) (domain.Job, error)) (domain.Job, error) {
	if m.stored == nil || m.stored.ID != id {
		return domain.Job{}, apperror.NewNotFoundError("job não encontrado")
	}
	updated, err := fn(*m.stored)
	if err != nil {
		return domain.Job{}, err
	}
	*m.stored = updated
	return updated, nil
}

// MockContractReader é uma implementação mock da leitura de contratos.
type MockContractReader struct {
	mock.Mock
}

func (m *MockContractReader) GetByID(ctx context.Context, id string) (domain.Contract, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Contract), args.Error(1)
}

func setup() (*jobservice.Service, *MockJobRepository, *MockContractReader) {
	repo := new(MockJobRepository)
	contracts := new(MockContractReader)
	return jobservice.NewService(repo, contracts, logger.NewLogger("debug")), repo, contracts
}

func newJob() domain.Job {
	return domain.Job{
		ID:             uuid.NewString(),
		Title:          "Landing page",
		Price:          decimal.NewFromInt(100),
		ContractID:     uuid.NewString(),
		ClientID:       uuid.NewString(),
		ContractorID:   uuid.NewString(),
		ApprovalStatus: domain.ApprovalPending,
	}
}

func TestCreateJob_Success(t *testing.T) {
	svc, repo, contracts := setup()
	contract := domain.Contract{ID: uuid.NewString(), ClientID: uuid.NewString(), ContractorID: uuid.NewString(), Status: domain.ContractNew}
	req := domain.CreateJobRequest{ContractID: contract.ID, Title: "Logo", Price: decimal.NewFromInt(50)}

	contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil)
	repo.On("CreateUnderContract", mock.Anything, mock.MatchedBy(func(j domain.Job) bool {
		return j.ID != "" && j.ClientID == contract.ClientID && j.ContractorID == contract.ContractorID &&
			j.ApprovalStatus == domain.ApprovalPending && !j.Completed && !j.Paid
	})).Return(domain.Job{ID: "j1", ContractID: contract.ID}, nil)

	job, err := svc.CreateJob(context.Background(), domain.Actor{ID: contract.ClientID, Role: domain.RoleClient}, req)

	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
	repo.AssertExpectations(t)
}

func TestCreateJob_Rejections(t *testing.T) {
	contract := domain.Contract{ID: uuid.NewString(), ClientID: uuid.NewString(), ContractorID: uuid.NewString(), Status: domain.ContractInProgress}
	terminated := contract
	terminated.Status = domain.ContractTerminated

	tests := []struct {
		name     string
		contract domain.Contract
		actorID  string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "contratado não cria jobs",
			contract: contract,
			actorID:  contract.ContractorID,
			check:    func(t *testing.T, err error) { assert.IsType(t, &apperror.ForbiddenError{}, err) },
		},
		{
			name:     "contrato encerrado",
			contract: terminated,
			actorID:  contract.ClientID,
			check: func(t *testing.T, err error) {
				assert.True(t, apperror.IsConflictReason(err, apperror.ReasonContractTerminated))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, contracts := setup()
			contracts.On("GetByID", mock.Anything, contract.ID).Return(tt.contract, nil)

			_, err := svc.CreateJob(context.Background(), domain.Actor{ID: tt.actorID},
				domain.CreateJobRequest{ContractID: contract.ID, Title: "x", Price: decimal.NewFromInt(1)})

			tt.check(t, err)
			repo.AssertNotCalled(t, "CreateUnderContract", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateJob_NonPositivePrice(t *testing.T) {
	svc, _, contracts := setup()

	_, err := svc.CreateJob(context.Background(), domain.Actor{ID: uuid.NewString()},
		domain.CreateJobRequest{ContractID: uuid.NewString(), Title: "x", Price: decimal.Zero})

	assert.IsType(t, &apperror.ValidationError{}, err)
	contracts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

// Cada operação de job é aceita só para o papel certo, e as outras partes
// (e terceiros) recebem Forbidden sem alterar o job.
func TestJobMutations_AuthorizationGrid(t *testing.T) {
	newTitle := "Novo título"
	ops := []struct {
		name    string
		allowed func(j domain.Job) string
		run     func(svc *jobservice.Service, actorID string, j domain.Job) (domain.Job, error)
	}{
		{
			name:    "modify",
			allowed: func(j domain.Job) string { return j.ClientID },
			run: func(svc *jobservice.Service, actorID string, j domain.Job) (domain.Job, error) {
				return svc.ModifyJob(context.Background(), domain.Actor{ID: actorID},
					domain.ModifyJobRequest{JobID: j.ID, JobUpdate: domain.JobUpdate{Title: &newTitle}})
			},
		},
		{
			name:    "complete",
			allowed: func(j domain.Job) string { return j.ContractorID },
			run: func(svc *jobservice.Service, actorID string, j domain.Job) (domain.Job, error) {
				return svc.MarkCompleted(context.Background(), domain.Actor{ID: actorID}, j.ID)
			},
		},
		{
			name:    "approval",
			allowed: func(j domain.Job) string { return j.ClientID },
			run: func(svc *jobservice.Service, actorID string, j domain.Job) (domain.Job, error) {
				return svc.UpdateApprovalStatus(context.Background(), domain.Actor{ID: actorID},
					domain.ApprovalRequest{JobID: j.ID, Status: domain.ApprovalApproved})
			},
		},
	}

	for _, op := range ops {
		job := newJob()
		actors := map[string]string{
			"cliente":    job.ClientID,
			"contratado": job.ContractorID,
			"terceiro":   uuid.NewString(),
		}
		for label, actorID := range actors {
			t.Run(op.name+"/"+label, func(t *testing.T) {
				svc, repo, _ := setup()
				stored := job
				repo.stored = &stored

				_, err := op.run(svc, actorID, job)

				if actorID == op.allowed(job) {
					assert.NoError(t, err)
					return
				}
				assert.IsType(t, &apperror.ForbiddenError{}, err)
				assert.Equal(t, job, stored)
			})
		}
	}
}

func TestModifyJob_AppliesOnlySentFields(t *testing.T) {
	svc, repo, _ := setup()
	job := newJob()
	job.Description = "original"
	repo.stored = &job
	price := decimal.NewFromInt(250)

	updated, err := svc.ModifyJob(context.Background(), domain.Actor{ID: job.ClientID},
		domain.ModifyJobRequest{JobID: job.ID, JobUpdate: domain.JobUpdate{Price: &price}})

	require.NoError(t, err)
	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, "original", updated.Description)
	assert.Equal(t, "Landing page", updated.Title)
}

func TestModifyJob_EmptyUpdate(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.ModifyJob(context.Background(), domain.Actor{ID: uuid.NewString()}, domain.ModifyJobRequest{JobID: uuid.NewString()})

	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestModifyJob_PriceLockedAfterPayment(t *testing.T) {
	svc, repo, _ := setup()
	job := newJob()
	job.Completed, job.ApprovalStatus, job.Paid = true, domain.ApprovalApproved, true
	repo.stored = &job
	price := decimal.NewFromInt(1)

	_, err := svc.ModifyJob(context.Background(), domain.Actor{ID: job.ClientID},
		domain.ModifyJobRequest{JobID: job.ID, JobUpdate: domain.JobUpdate{Price: &price}})

	assert.True(t, apperror.IsConflictReason(err, apperror.ReasonJobAlreadyPaid))
	assert.True(t, decimal.NewFromInt(100).Equal(job.Price))
}

func TestUpdateApprovalStatus(t *testing.T) {
	t.Run("aprovação não exige conclusão", func(t *testing.T) {
		svc, repo, _ := setup()
		job := newJob()
		repo.stored = &job

		updated, err := svc.UpdateApprovalStatus(context.Background(), domain.Actor{ID: job.ClientID},
			domain.ApprovalRequest{JobID: job.ID, Status: domain.ApprovalApproved})

		require.NoError(t, err)
		assert.Equal(t, domain.ApprovalApproved, updated.ApprovalStatus)
		assert.False(t, updated.IsPayable())
	})

	t.Run("status fora do enum", func(t *testing.T) {
		svc, repo, _ := setup()
		job := newJob()
		repo.stored = &job

		_, err := svc.UpdateApprovalStatus(context.Background(), domain.Actor{ID: job.ClientID},
			domain.ApprovalRequest{JobID: job.ID, Status: "talvez"})

		assert.IsType(t, &apperror.ValidationError{}, err)
		assert.Equal(t, domain.ApprovalPending, job.ApprovalStatus)
	})

	t.Run("job inexistente", func(t *testing.T) {
		svc, _, _ := setup()

		_, err := svc.UpdateApprovalStatus(context.Background(), domain.Actor{ID: uuid.NewString()},
			domain.ApprovalRequest{JobID: uuid.NewString(), Status: domain.ApprovalRejected})

		assert.IsType(t, &apperror.NotFoundError{}, err)
	})
}

func TestMarkCompleted_ThenApproved_IsPayable(t *testing.T) {
	svc, repo, _ := setup()
	job := newJob()
	repo.stored = &job

	_, err := svc.MarkCompleted(context.Background(), domain.Actor{ID: job.ContractorID}, job.ID)
	require.NoError(t, err)
	updated, err := svc.UpdateApprovalStatus(context.Background(), domain.Actor{ID: job.ClientID},
		domain.ApprovalRequest{JobID: job.ID, Status: domain.ApprovalApproved})
	require.NoError(t, err)

	assert.True(t, updated.IsPayable())
}

func TestGetJob(t *testing.T) {
	job := newJob()
	details := domain.JobDetails{Job: job}

	t.Run("parte do job", func(t *testing.T) {
		svc, repo, _ := setup()
		repo.On("GetDetails", mock.Anything, job.ID).Return(details, nil)

		got, err := svc.GetJob(context.Background(), domain.Actor{ID: job.ContractorID, Role: domain.RoleContractor}, job.ID)

		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
	})

	t.Run("admin", func(t *testing.T) {
		svc, repo, _ := setup()
		repo.On("GetDetails", mock.Anything, job.ID).Return(details, nil)

		_, err := svc.GetJob(context.Background(), domain.Actor{ID: uuid.NewString(), Role: domain.RoleAdmin}, job.ID)

		assert.NoError(t, err)
	})

	t.Run("terceiro", func(t *testing.T) {
		svc, repo, _ := setup()
		repo.On("GetDetails", mock.Anything, job.ID).Return(details, nil)

		_, err := svc.GetJob(context.Background(), domain.Actor{ID: uuid.NewString(), Role: domain.RoleClient}, job.ID)

		assert.IsType(t, &apperror.ForbiddenError{}, err)
	})
}

func TestGetUserJobs_FiltersByActor(t *testing.T) {
	svc, repo, _ := setup()
	actor := domain.Actor{ID: uuid.NewString(), Role: domain.RoleContractor}
	jobs := []domain.Job{newJob(), newJob()}

	repo.On("List", mock.Anything, domain.JobFilter{
		PartyID:    actor.ID,
		Pagination: domain.Pagination{Page: 2, Limit: domain.DefaultLimit},
	}).Return(jobs, 12, nil)

	page, err := svc.GetUserJobs(context.Background(), actor, domain.Pagination{Page: 2})

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 12, page.Total)
	repo.AssertExpectations(t)
}

func TestGetUnpaidJobs_EmptyIsNotNil(t *testing.T) {
	svc, repo, _ := setup()
	actor := domain.Actor{ID: uuid.NewString(), Role: domain.RoleClient}

	repo.On("ListUnpaid", mock.Anything, actor.ID, domain.Pagination{Page: 1, Limit: domain.DefaultLimit}).
		Return([]domain.Job(nil), 0, nil)

	page, err := svc.GetUnpaidJobs(context.Background(), actor, domain.Pagination{})

	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}
