package balance

import (
	"context"
	"net/http"

	"goescrow/internal/api/response"
	"goescrow/internal/domain"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/validator"
)

// EscrowService define as operações de saldo expostas por HTTP.
type EscrowService interface {
	Deposit(ctx context.Context, actor domain.Actor, profileID string, req domain.DepositRequest) (domain.DepositResult, error)
	PayForJob(ctx context.Context, actor domain.Actor, jobID string) (domain.PaymentResult, error)
	ListEntries(ctx context.Context, actor domain.Actor, profileID string, p domain.Pagination) (domain.Page[domain.BalanceEntry], error)
}

// Handler agrupa todos os métodos de Handler de saldos e pagamentos.
type Handler struct {
	Service   EscrowService
	Validator *validator.Validator
	resp      response.Writer
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc EscrowService, v *validator.Validator, log logger.Logger) *Handler {
	return &Handler{
		Service:   svc,
		Validator: v,
		resp:      response.New(log),
	}
}

// DepositHandler lida com a requisição POST /balances/deposit/{userId}.
// @Summary Deposita no saldo do próprio cliente
// @Description O valor não pode passar de 25% do total de jobs aprovados e ainda não pagos.
// @Tags balances
// @Accept json
// @Produce json
// @Param userId path string true "ID do cliente"
// @Param deposit body domain.DepositRequest true "Valor"
// @Success 200 {object} domain.DepositResult
// @Failure 400 {object} domain.ErrorResponse "Valor acima do teto"
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /balances/deposit/{userId} [post]
func (h *Handler) DepositHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	var req domain.DepositRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	userID, err := response.PathID(r, "userId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	result, err := h.Service.Deposit(r.Context(), actor, userID, req)
	h.resp.Handle(w, r, result, err, http.StatusOK)
}

// PayForJobHandler lida com a requisição POST /jobs/{job_id}/pay.
// @Summary Paga um job concluído e aprovado
// @Tags jobs
// @Produce json
// @Param job_id path string true "ID do job"
// @Success 200 {object} domain.PaymentResult
// @Failure 403 {object} domain.ErrorResponse "Ator não é o cliente do job"
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Já pago, não pagável ou saldo insuficiente"
// @Security ApiKeyAuth
// @Router /jobs/{job_id}/pay [post]
func (h *Handler) PayForJobHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	jobID, err := response.PathID(r, "job_id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	result, err := h.Service.PayForJob(r.Context(), actor, jobID)
	h.resp.Handle(w, r, result, err, http.StatusOK)
}

// ListEntriesHandler lida com a requisição GET /balances/{userId}/entries.
func (h *Handler) ListEntriesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	p, err := response.Pagination(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	userID, err := response.PathID(r, "userId")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	page, err := h.Service.ListEntries(r.Context(), actor, userID, p)
	h.resp.Handle(w, r, page, err, http.StatusOK)
}
