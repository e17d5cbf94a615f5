package domain

import "time"

// ContractStatus é o estado do ciclo de vida de um contrato.
type ContractStatus string

const (
	ContractNew        ContractStatus = "new"
	ContractInProgress ContractStatus = "in_progress"
	ContractTerminated ContractStatus = "terminated" // terminal
)

// Valid informa se o status é conhecido.
func (s ContractStatus) Valid() bool {
	switch s {
	case ContractNew, ContractInProgress, ContractTerminated:
		return true
	}
	return false
}

// Contract é a relação de trabalho entre exatamente um cliente e um contratado.
type Contract struct {
	ID           string         `json:"id"`
	ClientID     string         `json:"clientId"`
	ContractorID string         `json:"contractorId"`
	Status       ContractStatus `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// HasParty informa se o perfil é o cliente ou o contratado do contrato.
func (c Contract) HasParty(profileID string) bool {
	return profileID != "" && (profileID == c.ClientID || profileID == c.ContractorID)
}

// IsTerminated informa se o contrato está no estado terminal.
func (c Contract) IsTerminated() bool {
	return c.Status == ContractTerminated
}

// StatusAfterJobCreated é o estado do contrato depois que um job é criado nele.
// new e in_progress passam a in_progress; terminated nunca sai do estado terminal.
func (c Contract) StatusAfterJobCreated() ContractStatus {
	if c.IsTerminated() {
		return ContractTerminated
	}
	return ContractInProgress
}

// CreateContractRequest é o payload de criação de contrato.
type CreateContractRequest struct {
	ContractorID string `json:"contractorId" validate:"required,uuid"`
}

// ContractFilter define os parâmetros de busca e paginação de contratos.
// Status vazio significa "todos exceto terminated".
type ContractFilter struct {
	PartyID string // vazio = todos os perfis (consulta administrativa)
	Status  ContractStatus
	Pagination
}
