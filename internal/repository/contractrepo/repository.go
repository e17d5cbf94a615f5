package contractrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
)

const contractColumns = `id, client_id, contractor_id, status, created_at, updated_at`

// ContractRepository persiste contratos no PostgreSQL.
type ContractRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewContractRepository cria e retorna uma nova instância do Repositório de Contratos.
func NewContractRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ContractRepository {
	return &ContractRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContract(row rowScanner) (domain.Contract, error) {
	var c domain.Contract
	err := row.Scan(&c.ID, &c.ClientID, &c.ContractorID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create insere um novo contrato.
func (r *ContractRepository) Create(ctx context.Context, c domain.Contract) (domain.Contract, error) {
	r.logger.Debug("Iniciando criação de contrato no repositório.", map[string]interface{}{"client_id": c.ClientID, "contractor_id": c.ContractorID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `INSERT INTO contracts (` + contractColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6)
              RETURNING ` + contractColumns

	created, err := scanContract(r.DB.QueryRowContext(ctxTimeout, query,
		c.ID, c.ClientID, c.ContractorID, c.Status, c.CreatedAt, c.UpdatedAt,
	))
	if err != nil {
		r.logger.Error("Falha ao inserir contrato no DB.", err)
		return domain.Contract{}, apperror.NewDBError("Falha ao criar contrato", err)
	}

	r.logger.Info("Contrato criado com sucesso.", map[string]interface{}{"contract_id": created.ID})
	return created, nil
}

// GetByID busca um contrato pelo id.
func (r *ContractRepository) GetByID(ctx context.Context, id string) (domain.Contract, error) {
	r.logger.Debug("Buscando contrato por ID.", map[string]interface{}{"contract_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`

	c, err := scanContract(r.DB.QueryRowContext(ctxTimeout, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Contrato não encontrado.", map[string]interface{}{"contract_id": id})
		return domain.Contract{}, apperror.NewNotFoundError(fmt.Sprintf("Contrato com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar contrato por ID no DB.", err)
		return domain.Contract{}, apperror.NewDBError("Falha ao buscar contrato", err)
	}
	return c, nil
}

// List retorna uma página de contratos e o total de contratos que atendem ao filtro.
// Sem Status no filtro, contratos encerrados ficam de fora.
func (r *ContractRepository) List(ctx context.Context, filter domain.ContractFilter) ([]domain.Contract, int, error) {
	r.logger.Debug("Listando contratos.", map[string]interface{}{"party_id": filter.PartyID, "status": filter.Status, "page": filter.Page, "limit": filter.Limit})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var conds []string
	var args []interface{}
	if filter.PartyID != "" {
		args = append(args, filter.PartyID)
		conds = append(conds, fmt.Sprintf("(client_id = $%d OR contractor_id = $%d)", len(args), len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	} else {
		conds = append(conds, "status <> 'terminated'")
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM contracts`+where, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar contratos.", err)
		return nil, 0, apperror.NewDBError("Falha ao contar contratos", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM contracts%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		contractColumns, where, len(args)+1, len(args)+2)
	rows, err := r.DB.QueryContext(ctxTimeout, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		r.logger.Error("Falha ao executar listagem de contratos.", err)
		return nil, 0, apperror.NewDBError("Falha ao listar contratos", err)
	}
	defer rows.Close()

	var contracts []domain.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear contrato na listagem.", err)
			return nil, 0, apperror.NewDBError("Falha ao mapear contratos do DB", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de contratos.", err)
		return nil, 0, apperror.NewDBError("Erro após iteração de contratos", err)
	}

	return contracts, total, nil
}

// Terminate move o contrato para terminated. Encerrar um contrato já encerrado
// apenas atualiza updated_at.
func (r *ContractRepository) Terminate(ctx context.Context, id string) (domain.Contract, error) {
	r.logger.Debug("Encerrando contrato.", map[string]interface{}{"contract_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE contracts
        SET status = 'terminated', updated_at = $1
        WHERE id = $2
        RETURNING ` + contractColumns

	c, err := scanContract(r.DB.QueryRowContext(ctxTimeout, query, time.Now().UTC(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contract{}, apperror.NewNotFoundError(fmt.Sprintf("Contrato com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao encerrar contrato no DB.", err)
		return domain.Contract{}, apperror.NewDBError("Falha ao encerrar contrato", err)
	}

	r.logger.Info("Contrato encerrado.", map[string]interface{}{"contract_id": id})
	return c, nil
}
