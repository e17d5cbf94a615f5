package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperror "goescrow/internal/errors"
)

// EntryKind classifica um lançamento no extrato de saldo.
type EntryKind string

const (
	EntryDeposit       EntryKind = "deposit"
	EntryPaymentDebit  EntryKind = "payment_debit"
	EntryPaymentCredit EntryKind = "payment_credit"
)

// BalanceEntry é um lançamento do extrato, gravado na mesma transação da mudança de saldo.
type BalanceEntry struct {
	ID           string          `json:"id"`
	ProfileID    string          `json:"profileId"`
	JobID        *string         `json:"jobId,omitempty"`
	Kind         EntryKind       `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// DepositRequest é o payload de POST /balances/deposit/{userId}.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"dgt0,cents"`
}

// DepositResult é a resposta de um depósito aceito.
type DepositResult struct {
	ProfileID string          `json:"profileId"`
	Balance   decimal.Decimal `json:"balance"`
}

// PaymentResult é a resposta de um pagamento aceito.
type PaymentResult struct {
	Job               Job             `json:"job"`
	ClientBalance     decimal.Decimal `json:"clientBalance"`
	ContractorBalance decimal.Decimal `json:"contractorBalance"`
}

// DepositCap é o valor máximo aceito num depósito: ratio * totalDue.
func DepositCap(totalDue, ratio decimal.Decimal) decimal.Decimal {
	return totalDue.Mul(ratio)
}

// CheckDeposit rejeita valores não positivos e valores acima do teto.
func CheckDeposit(amount, totalDue, ratio decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.NewValidationError("o valor do depósito deve ser positivo")
	}
	limit := DepositCap(totalDue, ratio)
	if amount.GreaterThan(limit) {
		return apperror.NewValidationError(fmt.Sprintf(
			"o depósito de %s excede o máximo permitido de %s (%s%% de %s em jobs aprovados a pagar)",
			amount.String(), limit.String(), ratio.Shift(2).String(), totalDue.String()))
	}
	return nil
}

// CheckSufficientBalance rejeita quando o saldo do cliente não cobre o preço.
func CheckSufficientBalance(client Profile, price decimal.Decimal) error {
	if client.Balance.LessThan(price) {
		return apperror.NewConflictErrorWithReason(apperror.ReasonInsufficientBalance,
			fmt.Sprintf("saldo insuficiente: disponível %s, necessário %s", client.Balance.String(), price.String()))
	}
	return nil
}

// Transfer aplica o pagamento do job em memória: debita o cliente, credita o contratado
// e marca o job como pago. Ou todas as mudanças acontecem, ou nenhuma.
// Os repositórios chamam Transfer com as linhas travadas dentro da transação.
func Transfer(payerID string, client, contractor *Profile, job *Job, at time.Time) error {
	if client.ID != job.ClientID || contractor.ID != job.ContractorID {
		return apperror.NewInternalError("perfis não correspondem às partes do job", nil)
	}
	if err := CheckJobPayable(payerID, *job); err != nil {
		return err
	}
	if err := CheckSufficientBalance(*client, job.Price); err != nil {
		return err
	}

	client.Balance = client.Balance.Sub(job.Price)
	contractor.Balance = contractor.Balance.Add(job.Price)
	job.Paid = true
	paidAt := at
	job.PaidAt = &paidAt
	job.UpdatedAt = at
	client.UpdatedAt = at
	contractor.UpdatedAt = at
	return nil
}

// PaymentEntries monta os dois lançamentos de um pagamento já aplicado por Transfer.
func PaymentEntries(debitID, creditID string, client, contractor Profile, job Job, at time.Time) []BalanceEntry {
	jobID := job.ID
	return []BalanceEntry{
		{ID: debitID, ProfileID: client.ID, JobID: &jobID, Kind: EntryPaymentDebit,
			Amount: job.Price.Neg(), BalanceAfter: client.Balance, CreatedAt: at},
		{ID: creditID, ProfileID: contractor.ID, JobID: &jobID, Kind: EntryPaymentCredit,
			Amount: job.Price, BalanceAfter: contractor.Balance, CreatedAt: at},
	}
}

// LockOrder devolve os dois ids em ordem crescente, a ordem em que as linhas são travadas.
func LockOrder(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
