package jobservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
)

// JobRepository define o contrato que o Serviço de Jobs espera da camada de Persistência.
type JobRepository interface {
	CreateUnderContract(ctx context.Context, job domain.Job) (domain.Job, error)
	GetDetails(ctx context.Context, id string) (domain.JobDetails, error)
	List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, int, error)
	ListUnpaid(ctx context.Context, partyID string, p domain.Pagination) ([]domain.Job, int, error)
	Mutate(ctx context.Context, id string, fn func(domain.Job) (domain.Job, error)) (domain.Job, error)
}

// ContractReader é o subconjunto do repositório de contratos usado aqui.
type ContractReader interface {
	GetByID(ctx context.Context, id string) (domain.Contract, error)
}

// Service governa o ciclo de vida dos jobs, exceto o pagamento (escrowservice).
type Service struct {
	repo      JobRepository
	contracts ContractReader
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Jobs.
func NewService(repo JobRepository, contracts ContractReader, logger logger.Logger) *Service {
	return &Service{repo: repo, contracts: contracts, logger: logger}
}

// CreateJob cria um job pendente sob um contrato do cliente autenticado.
func (s *Service) CreateJob(ctx context.Context, actor domain.Actor, req domain.CreateJobRequest) (domain.Job, error) {
	s.logger.Debug("Iniciando criação de job.", map[string]interface{}{"contract_id": req.ContractID, "actor_id": actor.ID})

	if !req.Price.IsPositive() {
		return domain.Job{}, apperror.NewValidationError("o preço do job deve ser positivo")
	}

	// 1. Contrato existe e o ator é o cliente
	contract, err := s.contracts.GetByID(ctx, req.ContractID)
	if err != nil {
		return domain.Job{}, err
	}
	if err := domain.AuthorizeJobCreation(actor.ID, contract); err != nil {
		s.logger.Warn("Criação de job rejeitada.", map[string]interface{}{"contract_id": contract.ID, "actor_id": actor.ID})
		return domain.Job{}, err
	}

	// 2. Persistência; o repositório revalida sob lock e move o contrato para in_progress
	job, err := s.repo.CreateUnderContract(ctx, domain.NewJob(uuid.NewString(), contract, req, time.Now().UTC()))
	if err != nil {
		return domain.Job{}, err
	}

	s.logger.Info("Job criado.", map[string]interface{}{"job_id": job.ID, "contract_id": job.ContractID})
	return job, nil
}

// ModifyJob aplica uma edição parcial feita pelo cliente do job.
func (s *Service) ModifyJob(ctx context.Context, actor domain.Actor, req domain.ModifyJobRequest) (domain.Job, error) {
	if req.IsEmpty() {
		return domain.Job{}, apperror.NewValidationError("informe ao menos um campo para alterar (title, description ou price)")
	}

	return s.mutate(ctx, "modify", req.JobID, actor, func(j domain.Job) (domain.Job, error) {
		if err := domain.AuthorizeJobModification(actor.ID, j, req.JobUpdate); err != nil {
			return j, err
		}
		return j.Apply(req.JobUpdate), nil
	})
}

// MarkCompleted marca o job como concluído. Só o contratado pode, e não há volta.
func (s *Service) MarkCompleted(ctx context.Context, actor domain.Actor, jobID string) (domain.Job, error) {
	return s.mutate(ctx, "complete", jobID, actor, func(j domain.Job) (domain.Job, error) {
		if err := domain.AuthorizeJobCompletion(actor.ID, j); err != nil {
			return j, err
		}
		j.Completed = true
		return j, nil
	})
}

// UpdateApprovalStatus registra a decisão do cliente (approved ou rejected).
func (s *Service) UpdateApprovalStatus(ctx context.Context, actor domain.Actor, req domain.ApprovalRequest) (domain.Job, error) {
	return s.mutate(ctx, "approval", req.JobID, actor, func(j domain.Job) (domain.Job, error) {
		if err := domain.AuthorizeApprovalUpdate(actor.ID, j, req.Status); err != nil {
			return j, err
		}
		j.ApprovalStatus = req.Status
		return j, nil
	})
}

func (s *Service) mutate(ctx context.Context, op, jobID string, actor domain.Actor, fn func(domain.Job) (domain.Job, error)) (domain.Job, error) {
	s.logger.Debug("Iniciando alteração de job.", map[string]interface{}{"op": op, "job_id": jobID, "actor_id": actor.ID})

	job, err := s.repo.Mutate(ctx, jobID, fn)
	if err != nil {
		s.logger.Warn("Alteração de job rejeitada.", map[string]interface{}{"op": op, "job_id": jobID, "actor_id": actor.ID, "error": err.Error()})
		return domain.Job{}, err
	}

	s.logger.Info("Job alterado.", map[string]interface{}{"op": op, "job_id": job.ID})
	return job, nil
}

// GetJob devolve o job expandido às suas partes ou a um admin.
func (s *Service) GetJob(ctx context.Context, actor domain.Actor, id string) (domain.JobDetails, error) {
	details, err := s.repo.GetDetails(ctx, id)
	if err != nil {
		return domain.JobDetails{}, err
	}
	if !actor.IsAdmin() {
		if err := domain.AuthorizeJobRead(actor.ID, details.Job); err != nil {
			return domain.JobDetails{}, err
		}
	}
	return details, nil
}

// GetUserJobs lista os jobs em que o ator é cliente ou contratado.
func (s *Service) GetUserJobs(ctx context.Context, actor domain.Actor, p domain.Pagination) (domain.Page[domain.Job], error) {
	return s.list(ctx, domain.JobFilter{PartyID: actor.ID, Pagination: p})
}

// GetAllJobs lista jobs de todos os perfis (rota administrativa).
func (s *Service) GetAllJobs(ctx context.Context, p domain.Pagination) (domain.Page[domain.Job], error) {
	return s.list(ctx, domain.JobFilter{Pagination: p})
}

// GetUnpaidJobs lista jobs concluídos e não pagos de contratos em andamento do ator.
func (s *Service) GetUnpaidJobs(ctx context.Context, actor domain.Actor, p domain.Pagination) (domain.Page[domain.Job], error) {
	p = p.Normalize(domain.DefaultLimit)
	jobs, total, err := s.repo.ListUnpaid(ctx, actor.ID, p)
	if err != nil {
		return domain.Page[domain.Job]{}, err
	}
	return domain.NewPage(jobs, p, total), nil
}

func (s *Service) list(ctx context.Context, filter domain.JobFilter) (domain.Page[domain.Job], error) {
	filter.Pagination = filter.Pagination.Normalize(domain.DefaultLimit)
	jobs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.Job]{}, err
	}
	return domain.NewPage(jobs, filter.Pagination, total), nil
}
