package domain

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage mantém (Page-1)*Limit longe de overflow.
	MaxPage = 1_000_000
)

// Pagination é a página pedida pelo chamador. Page começa em 1.
type Pagination struct {
	Page  int
	Limit int
}

// Normalize aplica os defaults e limita Page a MaxPage e Limit a MaxLimit.
func (p Pagination) Normalize(defaultLimit int) Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset é o deslocamento SQL correspondente à página.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page é uma página de resultados com o total de itens disponíveis.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// NewPage garante que Items nunca seja serializado como null.
func NewPage[T any](items []T, p Pagination, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Page: p.Page, Limit: p.Limit, Total: total}
}
