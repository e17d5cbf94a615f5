package contractservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
)

// ContractRepository define o contrato que o Serviço de Contratos espera da camada de Persistência.
type ContractRepository interface {
	Create(ctx context.Context, c domain.Contract) (domain.Contract, error)
	GetByID(ctx context.Context, id string) (domain.Contract, error)
	List(ctx context.Context, filter domain.ContractFilter) ([]domain.Contract, int, error)
	Terminate(ctx context.Context, id string) (domain.Contract, error)
}

// ProfileReader é o subconjunto do repositório de perfis usado aqui.
type ProfileReader interface {
	FindByID(ctx context.Context, id string) (domain.Profile, error)
}

// Service governa o ciclo de vida dos contratos.
type Service struct {
	repo     ContractRepository
	profiles ProfileReader
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Contratos.
func NewService(repo ContractRepository, profiles ProfileReader, logger logger.Logger) *Service {
	return &Service{repo: repo, profiles: profiles, logger: logger}
}

// CreateContract cria um contrato new entre o cliente autenticado e um contratado existente.
func (s *Service) CreateContract(ctx context.Context, actor domain.Actor, req domain.CreateContractRequest) (domain.Contract, error) {
	s.logger.Debug("Iniciando criação de contrato.", map[string]interface{}{"client_id": actor.ID, "contractor_id": req.ContractorID})

	contractor, err := s.profiles.FindByID(ctx, req.ContractorID)
	if err != nil {
		return domain.Contract{}, err
	}
	if err := domain.AuthorizeContractCreation(actor.ID, contractor); err != nil {
		s.logger.Warn("Criação de contrato rejeitada.", map[string]interface{}{"client_id": actor.ID, "contractor_id": req.ContractorID})
		return domain.Contract{}, err
	}

	now := time.Now().UTC()
	contract, err := s.repo.Create(ctx, domain.Contract{
		ID:           uuid.NewString(),
		ClientID:     actor.ID,
		ContractorID: contractor.ID,
		Status:       domain.ContractNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return domain.Contract{}, err
	}

	s.logger.Info("Contrato criado.", map[string]interface{}{"contract_id": contract.ID})
	return contract, nil
}

// TerminateContract encerra o contrato. Qualquer uma das partes pode encerrar,
// inclusive um contrato já encerrado.
func (s *Service) TerminateContract(ctx context.Context, actor domain.Actor, id string) (domain.Contract, error) {
	s.logger.Debug("Iniciando encerramento de contrato.", map[string]interface{}{"contract_id": id, "actor_id": actor.ID})

	contract, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Contract{}, err
	}
	if err := domain.AuthorizeContractTermination(actor.ID, contract); err != nil {
		s.logger.Warn("Encerramento de contrato rejeitado.", map[string]interface{}{"contract_id": id, "actor_id": actor.ID})
		return domain.Contract{}, err
	}

	return s.repo.Terminate(ctx, id)
}

// GetContract devolve o contrato às suas partes ou a um admin.
func (s *Service) GetContract(ctx context.Context, actor domain.Actor, id string) (domain.Contract, error) {
	contract, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Contract{}, err
	}
	if !actor.IsAdmin() {
		if err := domain.AuthorizeContractRead(actor.ID, contract); err != nil {
			return domain.Contract{}, err
		}
	}
	return contract, nil
}

// GetUserContracts lista os contratos em que o ator é parte.
func (s *Service) GetUserContracts(ctx context.Context, actor domain.Actor, status domain.ContractStatus, p domain.Pagination) (domain.Page[domain.Contract], error) {
	return s.list(ctx, domain.ContractFilter{PartyID: actor.ID, Status: status, Pagination: p})
}

// GetAllContracts lista contratos de todos os perfis (rota administrativa).
func (s *Service) GetAllContracts(ctx context.Context, status domain.ContractStatus, p domain.Pagination) (domain.Page[domain.Contract], error) {
	return s.list(ctx, domain.ContractFilter{Status: status, Pagination: p})
}

func (s *Service) list(ctx context.Context, filter domain.ContractFilter) (domain.Page[domain.Contract], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.Page[domain.Contract]{}, apperror.NewValidationError(fmt.Sprintf("status de contrato inválido: '%s'", filter.Status))
	}
	filter.Pagination = filter.Pagination.Normalize(domain.DefaultLimit)
	contracts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.Contract]{}, err
	}
	return domain.NewPage(contracts, filter.Pagination, total), nil
}
