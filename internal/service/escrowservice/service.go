package escrowservice

import (
	"context"

	"github.com/shopspring/decimal"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/metrics"
)

// EscrowRepository define o contrato transacional de movimentação de saldos.
// As implementações precisam aplicar cada operação de forma atômica.
type EscrowRepository interface {
	PayForJob(ctx context.Context, jobID, payerID string) (domain.PaymentResult, error)
	Deposit(ctx context.Context, profileID string, amount, ratio decimal.Decimal) (domain.DepositResult, error)
	ListEntries(ctx context.Context, profileID string, p domain.Pagination) ([]domain.BalanceEntry, int, error)
}

// ProfileReader é o subconjunto do repositório de perfis usado aqui.
type ProfileReader interface {
	FindByID(ctx context.Context, id string) (domain.Profile, error)
}

// Service movimenta saldos: depósitos de clientes e pagamento de jobs.
type Service struct {
	repo            EscrowRepository
	profiles        ProfileReader
	depositCapRatio decimal.Decimal
	logger          logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Escrow.
func NewService(repo EscrowRepository, profiles ProfileReader, depositCapRatio decimal.Decimal, logger logger.Logger) *Service {
	return &Service{
		repo:            repo,
		profiles:        profiles,
		depositCapRatio: depositCapRatio,
		logger:          logger,
	}
}

// Deposit credita o saldo do próprio cliente, respeitando o teto sobre o total devido.
func (s *Service) Deposit(ctx context.Context, actor domain.Actor, profileID string, req domain.DepositRequest) (domain.DepositResult, error) {
	s.logger.Debug("Iniciando depósito.", map[string]interface{}{"profile_id": profileID, "actor_id": actor.ID, "amount": req.Amount.String()})

	if !req.Amount.IsPositive() {
		metrics.ObserveDeposit(metrics.ResultRejected)
		return domain.DepositResult{}, apperror.NewValidationError("o valor do depósito deve ser positivo")
	}

	// 1. Perfil existe e pertence ao ator
	target, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		metrics.ObserveDeposit(resultOf(err))
		return domain.DepositResult{}, err
	}
	if err := domain.AuthorizeDeposit(actor.ID, target); err != nil {
		s.logger.Warn("Depósito não autorizado.", map[string]interface{}{"profile_id": profileID, "actor_id": actor.ID})
		metrics.ObserveDeposit(metrics.ResultRejected)
		return domain.DepositResult{}, err
	}

	// 2. Teto e crédito na mesma transação
	result, err := s.repo.Deposit(ctx, target.ID, req.Amount, s.depositCapRatio)
	metrics.ObserveDeposit(resultOf(err))
	if err != nil {
		return domain.DepositResult{}, err
	}

	s.logger.Info("Depósito concluído.", map[string]interface{}{"profile_id": result.ProfileID, "balance": result.Balance.String()})
	return result, nil
}

// PayForJob paga o job em nome do cliente autenticado.
func (s *Service) PayForJob(ctx context.Context, actor domain.Actor, jobID string) (domain.PaymentResult, error) {
	s.logger.Debug("Iniciando pagamento de job.", map[string]interface{}{"job_id": jobID, "actor_id": actor.ID})

	result, err := s.repo.PayForJob(ctx, jobID, actor.ID)
	metrics.ObserveJobPayment(resultOf(err))
	if err != nil {
		s.logger.Warn("Pagamento de job não realizado.", map[string]interface{}{"job_id": jobID, "actor_id": actor.ID, "error": err.Error()})
		return domain.PaymentResult{}, err
	}

	s.logger.Info("Job pago.", map[string]interface{}{"job_id": result.Job.ID, "amount": result.Job.Price.String()})
	return result, nil
}

// ListEntries devolve o extrato do perfil ao próprio dono ou a um admin.
func (s *Service) ListEntries(ctx context.Context, actor domain.Actor, profileID string, p domain.Pagination) (domain.Page[domain.BalanceEntry], error) {
	if err := domain.AuthorizeProfileRead(actor, profileID); err != nil {
		return domain.Page[domain.BalanceEntry]{}, err
	}

	p = p.Normalize(domain.DefaultLimit)
	entries, total, err := s.repo.ListEntries(ctx, profileID, p)
	if err != nil {
		return domain.Page[domain.BalanceEntry]{}, err
	}
	return domain.NewPage(entries, p, total), nil
}

// resultOf classifica o erro para as métricas: regra de negócio violada ou falha de infraestrutura.
func resultOf(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	if status, _, _ := apperror.MapToHTTPStatus(err); status >= 500 {
		return metrics.ResultError
	}
	return metrics.ResultRejected
}
