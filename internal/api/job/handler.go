package job

import (
	"context"
	"net/http"

	"goescrow/internal/api/response"
	"goescrow/internal/domain"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/validator"
)

// JobService define o contrato que o Handler espera da camada de Serviço.
type JobService interface {
	CreateJob(ctx context.Context, actor domain.Actor, req domain.CreateJobRequest) (domain.Job, error)
	ModifyJob(ctx context.Context, actor domain.Actor, req domain.ModifyJobRequest) (domain.Job, error)
	MarkCompleted(ctx context.Context, actor domain.Actor, jobID string) (domain.Job, error)
	UpdateApprovalStatus(ctx context.Context, actor domain.Actor, req domain.ApprovalRequest) (domain.Job, error)
	GetJob(ctx context.Context, actor domain.Actor, id string) (domain.JobDetails, error)
	GetUserJobs(ctx context.Context, actor domain.Actor, p domain.Pagination) (domain.Page[domain.Job], error)
	GetAllJobs(ctx context.Context, p domain.Pagination) (domain.Page[domain.Job], error)
	GetUnpaidJobs(ctx context.Context, actor domain.Actor, p domain.Pagination) (domain.Page[domain.Job], error)
}

// Handler agrupa todos os métodos de Handler de jobs.
type Handler struct {
	Service   JobService
	Validator *validator.Validator
	resp      response.Writer
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc JobService, v *validator.Validator, log logger.Logger) *Handler {
	return &Handler{
		Service:   svc,
		Validator: v,
		resp:      response.New(log),
	}
}

// decode lê e valida o corpo e devolve a identidade do ator.
func (h *Handler) decode(r *http.Request, dst interface{}) (domain.Actor, error) {
	actor, err := response.Actor(r)
	if err != nil {
		return domain.Actor{}, err
	}
	if err := response.DecodeJSON(r, dst); err != nil {
		return domain.Actor{}, err
	}
	if err := h.Validator.Struct(dst); err != nil {
		return domain.Actor{}, err
	}
	return actor, nil
}

// CreateJobHandler lida com a requisição POST /jobs/create.
// @Summary Cria um job sob um contrato
// @Tags jobs
// @Accept json
// @Produce json
// @Param job body domain.CreateJobRequest true "Dados do job"
// @Success 201 {object} domain.Job
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Contrato encerrado"
// @Security ApiKeyAuth
// @Router /jobs/create [post]
func (h *Handler) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateJobRequest
	actor, err := h.decode(r, &req)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	j, err := h.Service.CreateJob(r.Context(), actor, req)
	h.resp.Handle(w, r, j, err, http.StatusCreated)
}

// ModifyJobHandler lida com a requisição PUT /jobs/modify.
func (h *Handler) ModifyJobHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ModifyJobRequest
	actor, err := h.decode(r, &req)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	j, err := h.Service.ModifyJob(r.Context(), actor, req)
	h.resp.Handle(w, r, j, err, http.StatusOK)
}

// MarkCompletedHandler lida com a requisição PUT /jobs/update/completed.
func (h *Handler) MarkCompletedHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CompleteJobRequest
	actor, err := h.decode(r, &req)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	j, err := h.Service.MarkCompleted(r.Context(), actor, req.JobID)
	h.resp.Handle(w, r, j, err, http.StatusOK)
}

// UpdateApprovalHandler lida com a requisição PUT /jobs/update/approval.
func (h *Handler) UpdateApprovalHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ApprovalRequest
	actor, err := h.decode(r, &req)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	j, err := h.Service.UpdateApprovalStatus(r.Context(), actor, req)
	h.resp.Handle(w, r, j, err, http.StatusOK)
}

// GetJobHandler lida com a requisição GET /jobs/{job_id}.
// @Summary Obtém um job com contrato e partes
// @Tags jobs
// @Produce json
// @Param job_id path string true "ID do job"
// @Success 200 {object} domain.JobDetails
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /jobs/{job_id} [get]
func (h *Handler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
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

	details, err := h.Service.GetJob(r.Context(), actor, jobID)
	h.resp.Handle(w, r, details, err, http.StatusOK)
}

// GetUserJobsHandler lida com a requisição GET /jobs/get/user.
func (h *Handler) GetUserJobsHandler(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.GetUserJobs)
}

// GetUnpaidJobsHandler lida com a requisição GET /jobs/unpaid.
func (h *Handler) GetUnpaidJobsHandler(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.GetUnpaidJobs)
}

// GetAllJobsHandler lida com a requisição GET /jobs/get/all (admin).
func (h *Handler) GetAllJobsHandler(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, _ domain.Actor, p domain.Pagination) (domain.Page[domain.Job], error) {
		return h.Service.GetAllJobs(ctx, p)
	})
}

type listFunc func(ctx context.Context, actor domain.Actor, p domain.Pagination) (domain.Page[domain.Job], error)

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fn listFunc) {
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

	page, err := fn(r.Context(), actor, p)
	h.resp.Handle(w, r, page, err, http.StatusOK)
}
