package profile

import (
	"context"
	"net/http"

	"goescrow/internal/api/response"
	"goescrow/internal/domain"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/validator"
)

// ProfileService define o contrato para cadastro, login e manutenção de perfis.
type ProfileService interface {
	Signup(ctx context.Context, req domain.ProfileSignup) (domain.AuthResult, error)
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error)
	GetProfile(ctx context.Context, actor domain.Actor, id string) (domain.Profile, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, id string, u domain.ProfileUpdate) (domain.Profile, error)
}

// Handler agrupa todos os métodos de Handler de perfis.
type Handler struct {
	Service   ProfileService
	Validator *validator.Validator
	resp      response.Writer
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProfileService, v *validator.Validator, log logger.Logger) *Handler {
	return &Handler{
		Service:   svc,
		Validator: v,
		resp:      response.New(log),
	}
}

// SignupHandler lida com a requisição POST /profiles/create.
// @Summary Cadastra um perfil
// @Description Cria um cliente ou contratado com o crédito inicial e devolve o token.
// @Tags profiles
// @Accept json
// @Produce json
// @Param signup body domain.ProfileSignup true "Dados do perfil"
// @Success 201 {object} domain.AuthResult
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Router /profiles/create [post]
func (h *Handler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileSignup
	if err := response.DecodeJSON(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	result, err := h.Service.Signup(r.Context(), req)
	h.resp.Handle(w, r, result, err, http.StatusCreated)
}

// LoginHandler lida com a requisição POST /profiles/login.
// @Summary Autentica um perfil
// @Tags profiles
// @Accept json
// @Produce json
// @Param credentials body domain.Credentials true "Email e senha"
// @Success 200 {object} domain.AuthResult
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Router /profiles/login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := response.DecodeJSON(r, &creds); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := h.Validator.Struct(creds); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	result, err := h.Service.Login(r.Context(), creds)
	h.resp.Handle(w, r, result, err, http.StatusOK)
}

// GetProfileHandler lida com a requisição GET /profiles/{id}.
// @Summary Obtém um perfil
// @Tags profiles
// @Produce json
// @Param id path string true "ID do perfil"
// @Success 200 {object} domain.Profile
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /profiles/{id} [get]
func (h *Handler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
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

	p, err := h.Service.GetProfile(r.Context(), actor, id)
	h.resp.Handle(w, r, p, err, http.StatusOK)
}

// UpdateProfileHandler lida com a requisição PUT /profiles/{id}.
// @Summary Atualiza o próprio perfil
// @Tags profiles
// @Accept json
// @Produce json
// @Param id path string true "ID do perfil"
// @Param update body domain.ProfileUpdate true "Campos a alterar"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /profiles/{id} [put]
func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	var u domain.ProfileUpdate
	if err := response.DecodeJSON(r, &u); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := h.Validator.Struct(u); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	id, err := response.PathID(r, "id")
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	p, err := h.Service.UpdateProfile(r.Context(), actor, id, u)
	h.resp.Handle(w, r, p, err, http.StatusOK)
}
