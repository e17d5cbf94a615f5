package reportservice

import (
	"context"
	"strings"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
)

// ReportRepository define as agregações usadas pelos relatórios.
type ReportRepository interface {
	TopEarners(ctx context.Context, rng domain.DateRange, limit int) ([]domain.PartyTotal, error)
	TopPayers(ctx context.Context, rng domain.DateRange, limit int) ([]domain.PartyTotal, error)
}

type Service struct {
	repo   ReportRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Relatórios.
func NewService(repo ReportRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// BestProfession devolve a profissão do contratado que mais recebeu no intervalo.
// Empate no total: vence o menor id de perfil.
func (s *Service) BestProfession(ctx context.Context, start, end string) (domain.BestProfession, error) {
	rng, err := domain.ParseDateRange(start, end)
	if err != nil {
		return domain.BestProfession{}, err
	}

	totals, err := s.repo.TopEarners(ctx, rng, 1)
	if err != nil {
		return domain.BestProfession{}, err
	}
	domain.RankTotals(totals)
	if len(totals) == 0 {
		s.logger.Info("Nenhum job pago no intervalo.", map[string]interface{}{"start": start, "end": end})
		return domain.BestProfession{}, apperror.NewNotFoundError("nenhum job pago encontrado no intervalo informado")
	}

	best := totals[0]
	return domain.BestProfession{
		Profession:   best.Profession,
		ContractorID: best.ProfileID,
		Earnings:     best.Total,
	}, nil
}

// BestClients devolve os clientes que mais pagaram no intervalo, do maior ao menor.
// limit 0 usa o padrão; acima de MaxLimit é truncado.
func (s *Service) BestClients(ctx context.Context, start, end string, limit int) ([]domain.BestClient, error) {
	if limit < 0 {
		return nil, apperror.NewValidationError("limit deve ser um inteiro positivo")
	}
	if limit == 0 {
		limit = domain.DefaultBestClientsLimit
	}
	if limit > domain.MaxLimit {
		limit = domain.MaxLimit
	}

	rng, err := domain.ParseDateRange(start, end)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.TopPayers(ctx, rng, limit)
	if err != nil {
		return nil, err
	}
	domain.RankTotals(totals)

	clients := make([]domain.BestClient, 0, len(totals))
	for _, t := range totals {
		clients = append(clients, domain.BestClient{
			ID:        t.ProfileID,
			FullName:  strings.TrimSpace(t.FirstName + " " + t.LastName),
			TotalPaid: t.Total,
		})
	}
	return clients, nil
}
