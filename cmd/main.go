package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Infraestrutura e utilitários
	"goescrow/config"
	"goescrow/internal/pkg/cache"
	"goescrow/internal/pkg/database"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/token"
	"goescrow/internal/pkg/validator"

	// Camadas para Injeção de Dependências
	"goescrow/internal/api/admin"
	"goescrow/internal/api/balance"
	"goescrow/internal/api/contract"
	"goescrow/internal/api/job"
	"goescrow/internal/api/profile"
	"goescrow/internal/api/router"
	"goescrow/internal/repository/contractrepo"
	"goescrow/internal/repository/escrowrepo"
	"goescrow/internal/repository/jobrepo"
	"goescrow/internal/repository/profilerepo"
	"goescrow/internal/repository/reportrepo"
	"goescrow/internal/service/contractservice"
	"goescrow/internal/service/escrowservice"
	"goescrow/internal/service/jobservice"
	"goescrow/internal/service/profileservice"
	"goescrow/internal/service/reportservice"
)

func main() {
	log.Println("⚡ Inicializando serviço GoEscrow...")

	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// Sem .env seguimos com o ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Logger
	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		appLog.Fatal("Configuração inválida.", err)
	}
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment})

	ctx := context.Background()

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis). Sem Redis, relatórios e rate limit usam um cache em memória local.
	var cacheClient cache.Client
	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.CacheTimeout)
	if err != nil {
		appLog.Warn("Redis indisponível, usando cache em memória.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		_ = redisClient.Close()
		cacheClient = cache.NewMemoryClient()
	} else {
		defer redisClient.Close()
		cacheClient = redisClient
		appLog.Info("Conexão Redis estabelecida.", nil)
	}

	// C. Tokens (JWT) e validação de payloads
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	v := validator.New()

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios
	profileRepo := profilerepo.NewProfileRepository(db, cfg.DBTimeout, appLog)
	contractRepo := contractrepo.NewContractRepository(db, cfg.DBTimeout, appLog)
	jobRepo := jobrepo.NewJobRepository(db, cfg.DBTimeout, appLog)
	escrowRepo := escrowrepo.NewEscrowRepository(db, cfg.DBTimeout, appLog)
	reportRepo := reportrepo.NewReportRepository(db, cacheClient, cfg.DBTimeout, cfg.ReportCacheTTL, appLog)
	appLog.Debug("Repositórios inicializados.", nil)

	// B. Serviços
	profileSvc := profileservice.NewService(profileRepo, tokenSvc, profileservice.Options{
		SignupCredit: cfg.SignupCredit,
		AdminEmails:  cfg.AdminEmails,
	}, appLog)
	contractSvc := contractservice.NewService(contractRepo, profileRepo, appLog)
	jobSvc := jobservice.NewService(jobRepo, contractRepo, appLog)
	escrowSvc := escrowservice.NewService(escrowRepo, profileRepo, cfg.DepositCapRatio, appLog)
	reportSvc := reportservice.NewService(reportRepo, appLog)
	appLog.Debug("Serviços inicializados.", nil)

	// C. Handlers
	handlers := router.Handlers{
		Profile:  profile.NewHandler(profileSvc, v, appLog),
		Contract: contract.NewHandler(contractSvc, v, appLog),
		Job:      job.NewHandler(jobSvc, v, appLog),
		Balance:  balance.NewHandler(escrowSvc, v, appLog),
		Admin:    admin.NewHandler(reportSvc, appLog),
	}

	// 4. Roteador e Servidor
	r := router.NewRouter(handlers, tokenSvc, cacheClient, router.RateLimit{
		MaxRequests: cfg.RateLimitMaxRequests,
		Period:      cfg.RateLimitPeriod,
	}, appLog)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor GoEscrow ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
