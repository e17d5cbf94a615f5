package reportrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/cache"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/metrics"
)

const (
	reportEarners = "earners"
	reportPayers  = "payers"

	reportCacheKey = "report:%s:%d:%d:%d"
)

// ReportRepository agrega jobs pagos para os relatórios administrativos,
// com cache-aside no Redis.
type ReportRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewReportRepository cria e retorna uma nova instância do Repositório de Relatórios.
func NewReportRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ReportRepository {
	return &ReportRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// TopEarners soma os jobs pagos e concluídos por contratado no intervalo.
func (r *ReportRepository) TopEarners(ctx context.Context, rng domain.DateRange, limit int) ([]domain.PartyTotal, error) {
	return r.cached(ctx, reportEarners, rng, limit, `
        SELECT p.id, p.first_name, p.last_name, COALESCE(p.profession, ''), SUM(j.price) AS total
        FROM jobs j
        JOIN profiles p ON p.id = j.contractor_id
        WHERE j.paid = TRUE AND j.completed = TRUE AND j.created_at BETWEEN $1 AND $2
        GROUP BY p.id
        ORDER BY total DESC, p.id ASC
        LIMIT $3`)
}

// TopPayers soma os jobs pagos e concluídos por cliente no intervalo.
func (r *ReportRepository) TopPayers(ctx context.Context, rng domain.DateRange, limit int) ([]domain.PartyTotal, error) {
	return r.cached(ctx, reportPayers, rng, limit, `
        SELECT p.id, p.first_name, p.last_name, '' AS profession, SUM(j.price) AS total
        FROM jobs j
        JOIN profiles p ON p.id = j.client_id
        WHERE j.paid = TRUE AND j.completed = TRUE AND j.created_at BETWEEN $1 AND $2
        GROUP BY p.id
        ORDER BY total DESC, p.id ASC
        LIMIT $3`)
}

func (r *ReportRepository) cached(ctx context.Context, report string, rng domain.DateRange, limit int, query string) ([]domain.PartyTotal, error) {
	key := fmt.Sprintf(reportCacheKey, report, rng.Start.Unix(), rng.End.Unix(), limit)

	// --- 1. Cache-Aside (READ) ---
	cachedData, err := r.Cache.Get(ctx, key)
	if err == nil {
		var totals []domain.PartyTotal
		if json.Unmarshal([]byte(cachedData), &totals) == nil {
			metrics.ObserveReportCache(report, true)
			r.logger.Debug("Relatório servido do cache.", map[string]interface{}{"key": key})
			return totals, nil
		}
		r.logger.Warn("Entrada de cache corrompida, consultando o DB.", map[string]interface{}{"key": key})
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Falha ao ler relatório do cache.", map[string]interface{}{"key": key, "error": err.Error()})
	}
	metrics.ObserveReportCache(report, false)

	// --- 2. Consulta ---
	totals, err := r.query(ctx, query, rng, limit)
	if err != nil {
		return nil, err
	}

	// --- 3. Cache-Aside (WRITE) ---
	if data, marshalErr := json.Marshal(totals); marshalErr == nil {
		if err := r.Cache.Set(ctx, key, string(data), r.CacheTTL); err != nil {
			r.logger.Warn("Falha ao gravar relatório no cache.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return totals, nil
}

func (r *ReportRepository) query(ctx context.Context, query string, rng domain.DateRange, limit int) ([]domain.PartyTotal, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, query, rng.Start, rng.End, limit)
	if err != nil {
		r.logger.Error("Falha ao executar consulta de relatório.", err)
		return nil, apperror.NewDBError("Falha ao gerar relatório", err)
	}
	defer rows.Close()

	totals := []domain.PartyTotal{}
	for rows.Next() {
		var t domain.PartyTotal
		if err := rows.Scan(&t.ProfileID, &t.FirstName, &t.LastName, &t.Profession, &t.Total); err != nil {
			r.logger.Error("Falha ao mapear linha do relatório.", err)
			return nil, apperror.NewDBError("Falha ao mapear relatório", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração do relatório.", err)
		return nil, apperror.NewDBError("Erro após iteração do relatório", err)
	}
	return totals, nil
}
