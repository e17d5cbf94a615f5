package escrowrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/database"
	"goescrow/internal/pkg/logger"
)

// EscrowRepository executa as mudanças de saldo. Cada operação é uma única transação:
// as linhas envolvidas são travadas com FOR UPDATE, as regras são revalidadas sobre o
// estado travado e os UPDATEs são condicionais.
type EscrowRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
	newID     func() string
	now       func() time.Time
}

// NewEscrowRepository cria e retorna uma nova instância do Repositório de Escrow.
func NewEscrowRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *EscrowRepository {
	return &EscrowRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PayForJob transfere job.price do cliente para o contratado e marca o job como pago.
func (r *EscrowRepository) PayForJob(ctx context.Context, jobID, payerID string) (domain.PaymentResult, error) {
	r.logger.Debug("Iniciando pagamento de job no repositório.", map[string]interface{}{"job_id": jobID, "payer_id": payerID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de pagamento.", err)
		return domain.PaymentResult{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Travar o job. Um segundo pagamento concorrente espera aqui e depois enxerga paid = true.
	job, err := lockJob(ctxTimeout, tx, jobID)
	if errors.Is(err, sql.ErrNoRows) || database.IsInvalidTextRepresentation(err) {
		return domain.PaymentResult{}, apperror.NewNotFoundError(fmt.Sprintf("Job com ID %s não encontrado.", jobID))
	}
	if err != nil {
		r.logger.Error("Falha ao travar job para pagamento.", err)
		return domain.PaymentResult{}, apperror.NewDBError("Falha ao buscar job para pagamento", err)
	}

	// Checagem antecipada: evita travar perfis quando o pagamento já é inválido.
	if err := domain.CheckJobPayable(payerID, job); err != nil {
		r.logger.Warn("Pagamento rejeitado.", map[string]interface{}{"job_id": jobID, "reason": err.Error()})
		return domain.PaymentResult{}, err
	}

	// 2. Travar os dois perfis sempre na mesma ordem (id crescente), evitando deadlock.
	first, second := domain.LockOrder(job.ClientID, job.ContractorID)
	locked := make(map[string]domain.Profile, 2)
	for _, id := range []string{first, second} {
		p, err := lockProfile(ctxTimeout, tx, id)
		if err != nil {
			r.logger.Error("Falha ao travar perfil para pagamento.", err)
			return domain.PaymentResult{}, apperror.NewDBError("Falha ao travar perfil", err)
		}
		locked[id] = p
	}
	client, contractor := locked[job.ClientID], locked[job.ContractorID]

	// 3. Aplicar a transferência em memória (revalida todas as regras)
	now := r.now()
	if err := domain.Transfer(payerID, &client, &contractor, &job, now); err != nil {
		r.logger.Warn("Pagamento rejeitado sob lock.", map[string]interface{}{"job_id": jobID, "reason": err.Error()})
		return domain.PaymentResult{}, err
	}

	// 4. Débito condicional: nunca deixa o saldo negativo.
	res, err := tx.ExecContext(ctxTimeout,
		`UPDATE profiles SET balance = balance - $1, updated_at = $2 WHERE id = $3 AND balance >= $1`,
		job.Price, now, client.ID)
	if err := expectOneRow(res, err); err != nil {
		if errors.Is(err, errNoRow) || database.IsCheckViolation(err) {
			return domain.PaymentResult{}, apperror.NewConflictErrorWithReason(apperror.ReasonInsufficientBalance, "saldo insuficiente para pagar o job")
		}
		r.logger.Error("Falha ao debitar cliente.", err)
		return domain.PaymentResult{}, apperror.NewDBError("Falha ao debitar cliente", err)
	}

	// 5. Crédito
	res, err = tx.ExecContext(ctxTimeout,
		`UPDATE profiles SET balance = balance + $1, updated_at = $2 WHERE id = $3`,
		job.Price, now, contractor.ID)
	if err := expectOneRow(res, err); err != nil {
		r.logger.Error("Falha ao creditar contratado.", err)
		return domain.PaymentResult{}, apperror.NewDBError("Falha ao creditar contratado", err)
	}

	// 6. Marcar como pago, condicionado a paid = false.
	res, err = tx.ExecContext(ctxTimeout,
		`UPDATE jobs SET paid = TRUE, paid_at = $1, updated_at = $1 WHERE id = $2 AND paid = FALSE`,
		now, job.ID)
	if err := expectOneRow(res, err); err != nil {
		if errors.Is(err, errNoRow) {
			return domain.PaymentResult{}, apperror.NewConflictErrorWithReason(apperror.ReasonJobAlreadyPaid,
				fmt.Sprintf("o job %s já foi pago", job.ID))
		}
		r.logger.Error("Falha ao marcar job como pago.", err)
		return domain.PaymentResult{}, apperror.NewDBError("Falha ao marcar job como pago", err)
	}

	// 7. Extrato
	for _, entry := range domain.PaymentEntries(r.newID(), r.newID(), client, contractor, job, now) {
		if err := insertEntry(ctxTimeout, tx, entry); err != nil {
			r.logger.Error("Falha ao gravar lançamento do pagamento.", err)
			return domain.PaymentResult{}, apperror.NewDBError("Falha ao gravar extrato", err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de pagamento.", commitErr)
		if database.IsSerializationFailure(commitErr) {
			return domain.PaymentResult{}, apperror.NewConflictErrorWithReason(apperror.ReasonConcurrentUpdate,
				"o pagamento conflitou com outra operação. Tente novamente.")
		}
		return domain.PaymentResult{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Job pago com sucesso.", map[string]interface{}{
		"job_id":        job.ID,
		"amount":        job.Price.String(),
		"client_id":     client.ID,
		"contractor_id": contractor.ID,
	})
	return domain.PaymentResult{Job: job, ClientBalance: client.Balance, ContractorBalance: contractor.Balance}, nil
}

// Deposit credita amount no saldo do cliente, limitado a ratio * total devido.
// O total devido é calculado com o perfil travado, na mesma transação do crédito.
func (r *EscrowRepository) Deposit(ctx context.Context, profileID string, amount, ratio decimal.Decimal) (domain.DepositResult, error) {
	r.logger.Debug("Iniciando depósito no repositório.", map[string]interface{}{"profile_id": profileID, "amount": amount.String()})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de depósito.", err)
		return domain.DepositResult{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Travar o perfil
	profile, err := lockProfile(ctxTimeout, tx, profileID)
	if errors.Is(err, sql.ErrNoRows) || database.IsInvalidTextRepresentation(err) {
		return domain.DepositResult{}, apperror.NewNotFoundError(fmt.Sprintf("Perfil com ID %s não encontrado.", profileID))
	}
	if err != nil {
		r.logger.Error("Falha ao travar perfil para depósito.", err)
		return domain.DepositResult{}, apperror.NewDBError("Falha ao buscar perfil", err)
	}

	// 2. Total devido: jobs concluídos, aprovados e não pagos do cliente
	var totalDue decimal.Decimal
	err = tx.QueryRowContext(ctxTimeout, `
        SELECT COALESCE(SUM(price), 0)
        FROM jobs
        WHERE client_id = $1 AND completed = TRUE AND paid = FALSE AND approval_status = 'approved'`,
		profile.ID,
	).Scan(&totalDue)
	if err != nil {
		r.logger.Error("Falha ao calcular total devido.", err)
		return domain.DepositResult{}, apperror.NewDBError("Falha ao calcular total devido", err)
	}

	// 3. Teto
	if err := domain.CheckDeposit(amount, totalDue, ratio); err != nil {
		r.logger.Warn("Depósito acima do teto.", map[string]interface{}{"profile_id": profileID, "amount": amount.String(), "total_due": totalDue.String()})
		return domain.DepositResult{}, err
	}

	// 4. Crédito
	now := r.now()
	var balance decimal.Decimal
	err = tx.QueryRowContext(ctxTimeout,
		`UPDATE profiles SET balance = balance + $1, updated_at = $2 WHERE id = $3 RETURNING balance`,
		amount, now, profile.ID,
	).Scan(&balance)
	if err != nil {
		r.logger.Error("Falha ao creditar depósito.", err)
		return domain.DepositResult{}, apperror.NewDBError("Falha ao creditar depósito", err)
	}

	// 5. Extrato
	entry := domain.BalanceEntry{ID: r.newID(), ProfileID: profile.ID, Kind: domain.EntryDeposit, Amount: amount, BalanceAfter: balance, CreatedAt: now}
	if err := insertEntry(ctxTimeout, tx, entry); err != nil {
		r.logger.Error("Falha ao gravar lançamento do depósito.", err)
		return domain.DepositResult{}, apperror.NewDBError("Falha ao gravar extrato", err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de depósito.", commitErr)
		return domain.DepositResult{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Depósito realizado com sucesso.", map[string]interface{}{"profile_id": profile.ID, "amount": amount.String(), "balance": balance.String()})
	return domain.DepositResult{ProfileID: profile.ID, Balance: balance}, nil
}

// ListEntries retorna uma página do extrato do perfil, do mais recente ao mais antigo.
func (r *EscrowRepository) ListEntries(ctx context.Context, profileID string, p domain.Pagination) ([]domain.BalanceEntry, int, error) {
	r.logger.Debug("Listando extrato.", map[string]interface{}{"profile_id": profileID, "page": p.Page})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total int
	if err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM balance_entries WHERE profile_id = $1`, profileID).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar lançamentos.", err)
		return nil, 0, apperror.NewDBError("Falha ao contar lançamentos", err)
	}

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT id, profile_id, job_id, kind, amount, balance_after, created_at
        FROM balance_entries
        WHERE profile_id = $1
        ORDER BY created_at DESC, id
        LIMIT $2 OFFSET $3`,
		profileID, p.Limit, p.Offset())
	if err != nil {
		r.logger.Error("Falha ao listar lançamentos.", err)
		return nil, 0, apperror.NewDBError("Falha ao listar lançamentos", err)
	}
	defer rows.Close()

	var entries []domain.BalanceEntry
	for rows.Next() {
		var e domain.BalanceEntry
		var jobID sql.NullString
		if err := rows.Scan(&e.ID, &e.ProfileID, &jobID, &e.Kind, &e.Amount, &e.BalanceAfter, &e.CreatedAt); err != nil {
			r.logger.Error("Falha ao mapear lançamento.", err)
			return nil, 0, apperror.NewDBError("Falha ao mapear lançamentos do DB", err)
		}
		if jobID.Valid {
			e.JobID = &jobID.String
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração dos lançamentos.", err)
		return nil, 0, apperror.NewDBError("Erro após iteração de lançamentos", err)
	}
	return entries, total, nil
}

var errNoRow = errors.New("nenhuma linha afetada")

func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return errNoRow
	}
	return nil
}

func lockJob(ctx context.Context, tx *sql.Tx, id string) (domain.Job, error) {
	var j domain.Job
	var paidAt sql.NullTime
	err := tx.QueryRowContext(ctx, `
        SELECT id, title, description, price, contract_id, client_id, contractor_id,
               completed, approval_status, paid, paid_at, created_at, updated_at
        FROM jobs WHERE id = $1 FOR UPDATE`, id,
	).Scan(&j.ID, &j.Title, &j.Description, &j.Price, &j.ContractID, &j.ClientID, &j.ContractorID,
		&j.Completed, &j.ApprovalStatus, &j.Paid, &paidAt, &j.CreatedAt, &j.UpdatedAt)
	if paidAt.Valid {
		j.PaidAt = &paidAt.Time
	}
	return j, err
}

func lockProfile(ctx context.Context, tx *sql.Tx, id string) (domain.Profile, error) {
	var p domain.Profile
	err := tx.QueryRowContext(ctx,
		`SELECT id, type, balance, updated_at FROM profiles WHERE id = $1 FOR UPDATE`, id,
	).Scan(&p.ID, &p.Type, &p.Balance, &p.UpdatedAt)
	return p, err
}

func insertEntry(ctx context.Context, tx *sql.Tx, e domain.BalanceEntry) error {
	_, err := tx.ExecContext(ctx, `
        INSERT INTO balance_entries (id, profile_id, job_id, kind, amount, balance_after, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ProfileID, e.JobID, e.Kind, e.Amount, e.BalanceAfter, e.CreatedAt)
	return err
}
