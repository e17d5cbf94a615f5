package admin

import (
	"context"
	"net/http"

	"goescrow/internal/api/response"
	"goescrow/internal/domain"
	"goescrow/internal/pkg/logger"
)

// ReportService define os relatórios administrativos.
type ReportService interface {
	BestProfession(ctx context.Context, start, end string) (domain.BestProfession, error)
	BestClients(ctx context.Context, start, end string, limit int) ([]domain.BestClient, error)
}

// Handler agrupa os relatórios administrativos.
type Handler struct {
	Service ReportService
	resp    response.Writer
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ReportService, log logger.Logger) *Handler {
	return &Handler{Service: svc, resp: response.New(log)}
}

// BestProfessionHandler lida com a requisição GET /admin/best-profession?start=&end=.
// @Summary Profissão que mais recebeu no intervalo
// @Tags admin
// @Produce json
// @Param start query string true "Início (YYYY-MM-DD ou RFC3339)"
// @Param end query string true "Fim (YYYY-MM-DD ou RFC3339)"
// @Success 200 {object} domain.BestProfession
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Nenhum job pago no intervalo"
// @Security ApiKeyAuth
// @Router /admin/best-profession [get]
func (h *Handler) BestProfessionHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	best, err := h.Service.BestProfession(r.Context(), q.Get("start"), q.Get("end"))
	h.resp.Handle(w, r, best, err, http.StatusOK)
}

// BestClientsHandler lida com a requisição GET /admin/best-clients?start=&end=&limit=.
func (h *Handler) BestClientsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := response.QueryInt(r, "limit")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	q := r.URL.Query()
	clients, err := h.Service.BestClients(r.Context(), q.Get("start"), q.Get("end"), limit)
	h.resp.Handle(w, r, clients, err, http.StatusOK)
}
