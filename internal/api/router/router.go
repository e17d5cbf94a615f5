package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"goescrow/internal/api/admin"
	"goescrow/internal/api/balance"
	"goescrow/internal/api/contract"
	"goescrow/internal/api/job"
	"goescrow/internal/api/profile"
	"goescrow/internal/api/response"
	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/cache"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/metrics"
	"goescrow/internal/pkg/middleware"
)

// Handlers reúne os handlers já inicializados por injeção de dependências.
type Handlers struct {
	Profile  *profile.Handler
	Contract *contract.Handler
	Job      *job.Handler
	Balance  *balance.Handler
	Admin    *admin.Handler
}

// RateLimit configura o limitador global por IP.
type RateLimit struct {
	MaxRequests int
	Period      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, tokenSvc middleware.TokenService, cacheClient cache.Client, rl RateLimit, log logger.Logger) *mux.Router {
	r := mux.NewRouter()
	resp := response.New(log)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp.Error(w, req, apperror.NewNotFoundError("Rota não encontrada."))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"code":405,"category":"METHOD_NOT_ALLOWED","message":"Método não permitido"}`))
	})

	// --- 1. Middlewares globais ---
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(middleware.RateLimiter(cacheClient, rl.MaxRequests, rl.Period, log))

	// --- 2. Health Check e Métricas ---
	r.HandleFunc("/ping", PingHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// --- 3. Rotas públicas ---
	r.HandleFunc("/profiles/create", h.Profile.SignupHandler).Methods(http.MethodPost)
	r.HandleFunc("/profiles/login", h.Profile.LoginHandler).Methods(http.MethodPost)

	// --- 4. Rotas autenticadas ---
	api := r.NewRoute().Subrouter()
	api.Use(middleware.NewAuthMiddleware(tokenSvc))

	client := middleware.PermissionMiddleware(domain.RoleClient)
	contractor := middleware.PermissionMiddleware(domain.RoleContractor)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)
	with := func(mw func(http.Handler) http.Handler, fn http.HandlerFunc) http.Handler { return mw(fn) }

	// Perfis
	api.HandleFunc("/profiles/{id}", h.Profile.GetProfileHandler).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{id}", h.Profile.UpdateProfileHandler).Methods(http.MethodPut)

	// Contratos (rotas fixas antes de /contracts/{id})
	api.Handle("/contracts/create", with(client, h.Contract.CreateContractHandler)).Methods(http.MethodPost)
	api.HandleFunc("/contracts/terminate/{id}", h.Contract.TerminateContractHandler).Methods(http.MethodPut)
	api.Handle("/contracts/getall", with(adminOnly, h.Contract.GetAllContractsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/contracts", h.Contract.GetUserContractsHandler).Methods(http.MethodGet)
	api.HandleFunc("/contracts/{id}", h.Contract.GetContractHandler).Methods(http.MethodGet)

	// Jobs (rotas fixas antes de /jobs/{job_id})
	api.Handle("/jobs/create", with(client, h.Job.CreateJobHandler)).Methods(http.MethodPost)
	api.Handle("/jobs/modify", with(client, h.Job.ModifyJobHandler)).Methods(http.MethodPut)
	api.Handle("/jobs/update/completed", with(contractor, h.Job.MarkCompletedHandler)).Methods(http.MethodPut)
	api.Handle("/jobs/update/approval", with(client, h.Job.UpdateApprovalHandler)).Methods(http.MethodPut)
	api.HandleFunc("/jobs/get/user", h.Job.GetUserJobsHandler).Methods(http.MethodGet)
	api.Handle("/jobs/get/all", with(adminOnly, h.Job.GetAllJobsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/jobs/unpaid", h.Job.GetUnpaidJobsHandler).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{job_id}", h.Job.GetJobHandler).Methods(http.MethodGet)
	api.Handle("/jobs/{job_id}/pay", with(client, h.Balance.PayForJobHandler)).Methods(http.MethodPost)

	// Saldos
	api.Handle("/balances/deposit/{userId}", with(client, h.Balance.DepositHandler)).Methods(http.MethodPost)
	api.HandleFunc("/balances/{userId}/entries", h.Balance.ListEntriesHandler).Methods(http.MethodGet)

	// Relatórios
	api.Handle("/admin/best-profession", with(adminOnly, h.Admin.BestProfessionHandler)).Methods(http.MethodGet)
	api.Handle("/admin/best-clients", with(adminOnly, h.Admin.BestClientsHandler)).Methods(http.MethodGet)

	return r
}

// PingHandler é o health check.
func PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
