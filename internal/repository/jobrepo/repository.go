package jobrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
)

const jobColumns = `j.id, j.title, j.description, j.price, j.contract_id, j.client_id, j.contractor_id,
       j.completed, j.approval_status, j.paid, j.paid_at, j.created_at, j.updated_at`

// JobRepository persiste jobs no PostgreSQL.
type JobRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewJobRepository cria e retorna uma nova instância do Repositório de Jobs.
func NewJobRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *JobRepository {
	return &JobRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func jobDest(j *domain.Job, paidAt *sql.NullTime) []interface{} {
	return []interface{}{
		&j.ID, &j.Title, &j.Description, &j.Price, &j.ContractID, &j.ClientID, &j.ContractorID,
		&j.Completed, &j.ApprovalStatus, &j.Paid, paidAt, &j.CreatedAt, &j.UpdatedAt,
	}
}

func scanJob(row rowScanner) (domain.Job, error) {
	var j domain.Job
	var paidAt sql.NullTime
	if err := row.Scan(jobDest(&j, &paidAt)...); err != nil {
		return domain.Job{}, err
	}
	if paidAt.Valid {
		j.PaidAt = &paidAt.Time
	}
	return j, nil
}

// CreateUnderContract insere o job e move o contrato de new para in_progress na mesma transação.
// O contrato é travado e revalidado, então um encerramento concorrente não deixa passar um job novo.
func (r *JobRepository) CreateUnderContract(ctx context.Context, job domain.Job) (domain.Job, error) {
	r.logger.Debug("Iniciando criação de job no repositório.", map[string]interface{}{"contract_id": job.ContractID, "client_id": job.ClientID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para criação de job.", err)
		return domain.Job{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Travar o contrato
	var contract domain.Contract
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT id, client_id, contractor_id, status, created_at, updated_at FROM contracts WHERE id = $1 FOR UPDATE`,
		job.ContractID,
	).Scan(&contract.ID, &contract.ClientID, &contract.ContractorID, &contract.Status, &contract.CreatedAt, &contract.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Job{}, apperror.NewNotFoundError(fmt.Sprintf("Contrato com ID %s não encontrado.", job.ContractID))
	}
	if err != nil {
		r.logger.Error("Falha ao travar contrato para criação de job.", err)
		return domain.Job{}, apperror.NewDBError("Falha ao buscar contrato", err)
	}

	// 2. Revalidar com o estado travado
	if err := domain.AuthorizeJobCreation(job.ClientID, contract); err != nil {
		r.logger.Warn("Criação de job rejeitada sob lock.", map[string]interface{}{"contract_id": contract.ID, "status": contract.Status})
		return domain.Job{}, err
	}
	job.ClientID = contract.ClientID
	job.ContractorID = contract.ContractorID

	// 3. Inserir o job
	insert := `
        INSERT INTO jobs AS j (id, title, description, price, contract_id, client_id, contractor_id,
                               completed, approval_status, paid, paid_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING ` + jobColumns
	created, err := scanJob(tx.QueryRowContext(ctxTimeout, insert,
		job.ID, job.Title, job.Description, job.Price, job.ContractID, job.ClientID, job.ContractorID,
		job.Completed, job.ApprovalStatus, job.Paid, job.PaidAt, job.CreatedAt, job.UpdatedAt,
	))
	if err != nil {
		r.logger.Error("Falha ao inserir job no DB.", err)
		return domain.Job{}, apperror.NewDBError("Falha ao inserir job", err)
	}

	// 4. new -> in_progress
	if next := contract.StatusAfterJobCreated(); next != contract.Status {
		if _, err := tx.ExecContext(ctxTimeout,
			`UPDATE contracts SET status = $1, updated_at = $2 WHERE id = $3`,
			next, job.CreatedAt, contract.ID,
		); err != nil {
			r.logger.Error("Falha ao atualizar status do contrato.", err)
			return domain.Job{}, apperror.NewDBError("Falha ao atualizar contrato", err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de criação de job.", commitErr)
		return domain.Job{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Job criado com sucesso.", map[string]interface{}{"job_id": created.ID, "contract_id": created.ContractID})
	return created, nil
}

// GetByID busca um job pelo id.
func (r *JobRepository) GetByID(ctx context.Context, id string) (domain.Job, error) {
	r.logger.Debug("Buscando job por ID.", map[string]interface{}{"job_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	j, err := scanJob(r.DB.QueryRowContext(ctxTimeout, `SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Job não encontrado.", map[string]interface{}{"job_id": id})
		return domain.Job{}, apperror.NewNotFoundError(fmt.Sprintf("Job com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar job por ID no DB.", err)
		return domain.Job{}, apperror.NewDBError("Falha ao buscar job", err)
	}
	return j, nil
}

// GetDetails busca o job com o contrato e os dois perfis expandidos.
func (r *JobRepository) GetDetails(ctx context.Context, id string) (domain.JobDetails, error) {
	r.logger.Debug("Buscando detalhes do job.", map[string]interface{}{"job_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT ` + jobColumns + `,
               c.id, c.client_id, c.contractor_id, c.status, c.created_at, c.updated_at,
               cl.id, cl.type, cl.first_name, cl.last_name, cl.email,
               ct.id, ct.type, ct.profession, ct.first_name, ct.last_name, ct.email
        FROM jobs j
        JOIN contracts c ON c.id = j.contract_id
        JOIN profiles cl ON cl.id = j.client_id
        JOIN profiles ct ON ct.id = j.contractor_id
        WHERE j.id = $1`

	var d domain.JobDetails
	var paidAt sql.NullTime
	var profession sql.NullString
	dest := append(jobDest(&d.Job, &paidAt),
		&d.Contract.ID, &d.Contract.ClientID, &d.Contract.ContractorID, &d.Contract.Status, &d.Contract.CreatedAt, &d.Contract.UpdatedAt,
		&d.Client.ID, &d.Client.Type, &d.Client.FirstName, &d.Client.LastName, &d.Client.Email,
		&d.Contractor.ID, &d.Contractor.Type, &profession, &d.Contractor.FirstName, &d.Contractor.LastName, &d.Contractor.Email,
	)
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.JobDetails{}, apperror.NewNotFoundError(fmt.Sprintf("Job com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar detalhes do job no DB.", err)
		return domain.JobDetails{}, apperror.NewDBError("Falha ao buscar detalhes do job", err)
	}
	if paidAt.Valid {
		d.PaidAt = &paidAt.Time
	}
	if profession.Valid {
		d.Contractor.Profession = &profession.String
	}
	return d, nil
}

// List retorna uma página de jobs. PartyID vazio lista todos.
func (r *JobRepository) List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, int, error) {
	where := ""
	var args []interface{}
	if filter.PartyID != "" {
		where = " WHERE (j.client_id = $1 OR j.contractor_id = $1)"
		args = append(args, filter.PartyID)
	}
	return r.page(ctx, "FROM jobs j"+where, args, filter.Pagination)
}

// ListUnpaid retorna os jobs concluídos e não pagos de contratos em andamento em que o perfil é parte.
func (r *JobRepository) ListUnpaid(ctx context.Context, partyID string, p domain.Pagination) ([]domain.Job, int, error) {
	from := `FROM jobs j
        JOIN contracts c ON c.id = j.contract_id
        WHERE j.paid = FALSE AND j.completed = TRUE AND c.status = 'in_progress'
          AND (j.client_id = $1 OR j.contractor_id = $1)`
	return r.page(ctx, from, []interface{}{partyID}, p)
}

func (r *JobRepository) page(ctx context.Context, from string, args []interface{}, p domain.Pagination) ([]domain.Job, int, error) {
	r.logger.Debug("Listando jobs.", map[string]interface{}{"page": p.Page, "limit": p.Limit})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total int
	if err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) `+from, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar jobs.", err)
		return nil, 0, apperror.NewDBError("Falha ao contar jobs", err)
	}

	query := fmt.Sprintf(`SELECT %s %s ORDER BY j.created_at DESC, j.id LIMIT $%d OFFSET $%d`,
		jobColumns, from, len(args)+1, len(args)+2)
	rows, err := r.DB.QueryContext(ctxTimeout, query, append(args, p.Limit, p.Offset())...)
	if err != nil {
		r.logger.Error("Falha ao executar listagem de jobs.", err)
		return nil, 0, apperror.NewDBError("Falha ao listar jobs", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear job na listagem.", err)
			return nil, 0, apperror.NewDBError("Falha ao mapear jobs do DB", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de jobs.", err)
		return nil, 0, apperror.NewDBError("Erro após iteração de jobs", err)
	}
	return jobs, total, nil
}

// Mutate trava o job, aplica fn sobre o estado travado e grava o resultado.
// fn decide se a mudança é permitida; se devolver erro, nada é gravado.
func (r *JobRepository) Mutate(ctx context.Context, id string, fn func(domain.Job) (domain.Job, error)) (domain.Job, error) {
	r.logger.Debug("Iniciando alteração de job sob lock.", map[string]interface{}{"job_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para alteração de job.", err)
		return domain.Job{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Obter o job atual com FOR UPDATE
	current, err := scanJob(tx.QueryRowContext(ctxTimeout, `SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Job{}, apperror.NewNotFoundError(fmt.Sprintf("Job com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao travar job para alteração.", err)
		return domain.Job{}, apperror.NewDBError("Falha ao buscar job para alteração", err)
	}

	// 2. Aplicar a regra de negócio
	next, err := fn(current)
	if err != nil {
		return domain.Job{}, err
	}
	next.UpdatedAt = time.Now().UTC()

	// 3. Gravar. paid e as partes não são alterados por aqui.
	update := `
        UPDATE jobs AS j
        SET title = $1, description = $2, price = $3, completed = $4, approval_status = $5, updated_at = $6
        WHERE j.id = $7
        RETURNING ` + jobColumns
	saved, err := scanJob(tx.QueryRowContext(ctxTimeout, update,
		next.Title, next.Description, next.Price, next.Completed, next.ApprovalStatus, next.UpdatedAt, id,
	))
	if err != nil {
		r.logger.Error("Falha ao atualizar job no DB.", err)
		return domain.Job{}, apperror.NewDBError("Falha ao atualizar job", err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de alteração de job.", commitErr)
		return domain.Job{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Job atualizado com sucesso.", map[string]interface{}{"job_id": saved.ID})
	return saved, nil
}
