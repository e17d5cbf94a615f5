package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	apperror "goescrow/internal/errors"
)

// DefaultBestClientsLimit é o tamanho padrão do ranking de clientes.
const DefaultBestClientsLimit = 2

// DateRange é o intervalo [Start, End] aplicado a jobs.created_at.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange aceita datas ISO (2006-01-02) ou RFC3339. Uma data sem hora em End
// cobre o dia inteiro.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := parseReportDate(start, false)
	if err != nil {
		return DateRange{}, apperror.NewValidationError(fmt.Sprintf("parâmetro 'start' inválido: %s", start))
	}
	e, err := parseReportDate(end, true)
	if err != nil {
		return DateRange{}, apperror.NewValidationError(fmt.Sprintf("parâmetro 'end' inválido: %s", end))
	}
	if e.Before(s) {
		return DateRange{}, apperror.NewValidationError("'end' deve ser posterior a 'start'")
	}
	return DateRange{Start: s, End: e}, nil
}

func parseReportDate(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), nil
}

// PartyTotal é a soma dos jobs pagos e concluídos de um perfil no intervalo.
type PartyTotal struct {
	ProfileID  string          `json:"profileId"`
	FirstName  string          `json:"firstName"`
	LastName   string          `json:"lastName"`
	Profession string          `json:"profession,omitempty"`
	Total      decimal.Decimal `json:"total"`
}

// RankTotals ordena por total decrescente; empates ficam com o menor ProfileID primeiro.
func RankTotals(totals []PartyTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		if c := totals[i].Total.Cmp(totals[j].Total); c != 0 {
			return c > 0
		}
		return totals[i].ProfileID < totals[j].ProfileID
	})
}

// BestProfession é o resultado de GET /admin/best-profession.
type BestProfession struct {
	Profession   string          `json:"profession"`
	ContractorID string          `json:"contractorId"`
	Earnings     decimal.Decimal `json:"earnings"`
}

// BestClient é uma linha de GET /admin/best-clients.
type BestClient struct {
	ID        string          `json:"id"`
	FullName  string          `json:"fullName"`
	TotalPaid decimal.Decimal `json:"totalPaid"`
}
