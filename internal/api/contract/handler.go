package contract

import (
	"context"
	"net/http"

	"goescrow/internal/api/response"
	"goescrow/internal/domain"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/validator"
)

// ContractService define o contrato que o Handler espera da camada de Serviço.
type ContractService interface {
	CreateContract(ctx context.Context, actor domain.Actor, req domain.CreateContractRequest) (domain.Contract, error)
	TerminateContract(ctx context.Context, actor domain.Actor, id string) (domain.Contract, error)
	GetContract(ctx context.Context, actor domain.Actor, id string) (domain.Contract, error)
	GetUserContracts(ctx context.Context, actor domain.Actor, status domain.ContractStatus, p domain.Pagination) (domain.Page[domain.Contract], error)
	GetAllContracts(ctx context.Context, status domain.ContractStatus, p domain.Pagination) (domain.Page[domain.Contract], error)
}

// Handler agrupa todos os métodos de Handler de contratos.
type Handler struct {
	Service   ContractService
	Validator *validator.Validator
	resp      response.Writer
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ContractService, v *validator.Validator, log logger.Logger) *Handler {
	return &Handler{
		Service:   svc,
		Validator: v,
		resp:      response.New(log),
	}
}

// CreateContractHandler lida com a requisição POST /contracts/create.
// @Summary Cria um contrato com um contratado
// @Tags contracts
// @Accept json
// @Produce json
// @Param contract body domain.CreateContractRequest true "Contratado"
// @Success 201 {object} domain.Contract
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /contracts/create [post]
func (h *Handler) CreateContractHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	var req domain.CreateContractRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	c, err := h.Service.CreateContract(r.Context(), actor, req)
	h.resp.Handle(w, r, c, err, http.StatusCreated)
}

// TerminateContractHandler lida com a requisição PUT /contracts/terminate/{id}.
// @Summary Encerra um contrato
// @Tags contracts
// @Produce json
// @Param id path string true "ID do contrato"
// @Success 200 {object} domain.Contract
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /contracts/terminate/{id} [put]
func (h *Handler) TerminateContractHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	id, err := response.PathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	c, err := h.Service.TerminateContract(r.Context(), actor, id)
	h.resp.Handle(w, r, c, err, http.StatusOK)
}

// GetContractHandler lida com a requisição GET /contracts/{id}.
func (h *Handler) GetContractHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	id, err := response.PathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	c, err := h.Service.GetContract(r.Context(), actor, id)
	h.resp.Handle(w, r, c, err, http.StatusOK)
}

// GetUserContractsHandler lida com a requisição GET /contracts?status=&page=&limit=.
// Sem status, contratos encerrados não são listados.
func (h *Handler) GetUserContractsHandler(w http.ResponseWriter, r *http.Request) {
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

	page, err := h.Service.GetUserContracts(r.Context(), actor, domain.ContractStatus(r.URL.Query().Get("status")), p)
	h.resp.Handle(w, r, page, err, http.StatusOK)
}

// GetAllContractsHandler lida com a requisição GET /contracts/getall (admin).
func (h *Handler) GetAllContractsHandler(w http.ResponseWriter, r *http.Request) {
	p, err := response.Pagination(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	page, err := h.Service.GetAllContracts(r.Context(), domain.ContractStatus(r.URL.Query().Get("status")), p)
	h.resp.Handle(w, r, page, err, http.StatusOK)
}
