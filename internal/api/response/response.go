package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/middleware"
)

// Writer padroniza respostas de sucesso e de erro dos handlers.
type Writer struct {
	Logger logger.Logger
}

// New cria um Writer com o logger informado.
func New(log logger.Logger) Writer {
	return Writer{Logger: log}
}

// Handle escreve data com successStatus ou traduz err para o status HTTP correspondente.
func (rw Writer) Handle(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				rw.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	// TRATAMENTO DE ERROS
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		rw.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		rw.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// Error é atalho para Handle sem payload de sucesso.
func (rw Writer) Error(w http.ResponseWriter, r *http.Request, err error) {
	rw.Handle(w, r, nil, err, http.StatusOK)
}

// DecodeJSON lê o corpo da requisição em dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	return nil
}

// Actor devolve a identidade autenticada anexada pelo middleware de autenticação.
func Actor(r *http.Request) (domain.Actor, error) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		return domain.Actor{}, apperror.NewUnauthorizedError("Autorização necessária.")
	}
	return domain.Actor{ID: claims.UserID, Role: claims.Role, Admin: claims.Admin}, nil
}

// Pagination lê page e limit da query string. Ausentes ficam zerados e são normalizados no serviço.
func Pagination(r *http.Request) (domain.Pagination, error) {
	page, err := QueryInt(r, "page")
	if err != nil {
		return domain.Pagination{}, err
	}
	if page > domain.MaxPage {
		return domain.Pagination{}, apperror.NewValidationError(fmt.Sprintf("parâmetro 'page' deve ser no máximo %d", domain.MaxPage))
	}
	limit, err := QueryInt(r, "limit")
	if err != nil {
		return domain.Pagination{}, err
	}
	return domain.Pagination{Page: page, Limit: limit}, nil
}

// QueryInt lê um inteiro não negativo da query string; ausente vale 0.
func QueryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperror.NewValidationError(fmt.Sprintf("parâmetro '%s' deve ser um inteiro não negativo", name))
	}
	return v, nil
}

// PathID lê a variável de rota name, exige um UUID e devolve a forma canônica,
// antes que o valor chegue ao SQL.
func PathID(r *http.Request, name string) (string, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return "", apperror.NewValidationError(fmt.Sprintf("parâmetro '%s' deve ser um UUID válido", name))
	}
	return id.String(), nil
}
