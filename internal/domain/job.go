package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalStatus é a decisão do cliente sobre um job.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Job é uma unidade de trabalho faturável dentro de um contrato.
// ClientID e ContractorID são cópias do contrato, fixadas na criação.
type Job struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	ContractID     string          `json:"contractId"`
	ClientID       string          `json:"clientId"`
	ContractorID   string          `json:"contractorId"`
	Completed      bool            `json:"completed"`
	ApprovalStatus ApprovalStatus  `json:"approvalStatus"`
	Paid           bool            `json:"paid"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// IsPayable informa se o job já pode ser pago: concluído, aprovado e ainda não pago.
func (j Job) IsPayable() bool {
	return j.Completed && j.ApprovalStatus == ApprovalApproved && !j.Paid
}

// NewJob monta um job pendente sob o contrato, copiando as partes do contrato.
func NewJob(id string, c Contract, req CreateJobRequest, now time.Time) Job {
	return Job{
		ID:             id,
		Title:          req.Title,
		Description:    req.Description,
		Price:          req.Price,
		ContractID:     c.ID,
		ClientID:       c.ClientID,
		ContractorID:   c.ContractorID,
		ApprovalStatus: ApprovalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Apply aplica uma edição parcial: apenas os campos informados mudam.
func (j Job) Apply(u JobUpdate) Job {
	if u.Title != nil {
		j.Title = *u.Title
	}
	if u.Description != nil {
		j.Description = *u.Description
	}
	if u.Price != nil {
		j.Price = *u.Price
	}
	return j
}

// CreateJobRequest é o payload de criação de job.
type CreateJobRequest struct {
	ContractID  string          `json:"contractId" validate:"required,uuid"`
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price" validate:"dgt0,cents"`
}

// JobUpdate é a edição parcial de um job pelo cliente.
type JobUpdate struct {
	Title       *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,dgt0,cents"`
}

// IsEmpty informa se nenhum campo foi enviado.
func (u JobUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil
}

// ModifyJobRequest é o payload de PUT /jobs/modify.
type ModifyJobRequest struct {
	JobID string `json:"jobId" validate:"required,uuid"`
	JobUpdate
}

// CompleteJobRequest é o payload de PUT /jobs/update/completed.
type CompleteJobRequest struct {
	JobID string `json:"jobId" validate:"required,uuid"`
}

// ApprovalRequest é o payload de PUT /jobs/update/approval.
type ApprovalRequest struct {
	JobID  string         `json:"jobId" validate:"required,uuid"`
	Status ApprovalStatus `json:"status" validate:"required"`
}

// PartySummary é a visão pública de um perfil dentro de um job (sem saldo).
type PartySummary struct {
	ID         string      `json:"id"`
	Type       ProfileType `json:"type"`
	Profession *string     `json:"profession,omitempty"`
	FirstName  string      `json:"firstName"`
	LastName   string      `json:"lastName"`
	Email      string      `json:"email"`
}

// JobDetails é o job com o contrato e as duas partes expandidos.
type JobDetails struct {
	Job
	Contract   Contract     `json:"contract"`
	Client     PartySummary `json:"client"`
	Contractor PartySummary `json:"contractor"`
}

// JobFilter define os parâmetros de listagem de jobs.
type JobFilter struct {
	PartyID string // vazio = todos os perfis (consulta administrativa)
	Pagination
}
