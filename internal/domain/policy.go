package domain

import (
	"fmt"

	apperror "goescrow/internal/errors"
)

// Actor é a identidade autenticada que executa uma operação.
// Role é o tipo do perfil; Admin vem à parte, então um cliente admin continua cliente.
type Actor struct {
	ID    string
	Role  Role
	Admin bool
}

// IsAdmin informa se o ator tem acesso administrativo. Tokens emitidos antes do
// claim admin carregam a role admin no lugar do tipo do perfil.
func (a Actor) IsAdmin() bool {
	return a.Admin || a.Role == RoleAdmin
}

// Predicados de autorização por operação: (ator, entidade) -> erro.
// A role do token só filtra rotas; a permissão sobre a entidade é decidida aqui,
// pela relação do ator com o contrato ou o job.

// AuthorizeContractRead permite a leitura apenas às partes do contrato.
func AuthorizeContractRead(actorID string, c Contract) error {
	if !c.HasParty(actorID) {
		return apperror.NewForbiddenError("somente as partes do contrato podem acessá-lo")
	}
	return nil
}

// AuthorizeContractCreation valida o par cliente/contratado de um novo contrato.
func AuthorizeContractCreation(clientID string, contractor Profile) error {
	if contractor.Type != ProfileContractor {
		return apperror.NewValidationError(fmt.Sprintf("o perfil %s não é um contratado", contractor.ID))
	}
	if clientID == contractor.ID {
		return apperror.NewValidationError("cliente e contratado devem ser perfis diferentes")
	}
	return nil
}

// AuthorizeContractTermination permite que qualquer uma das partes encerre o contrato.
// Encerrar um contrato já encerrado é permitido e não altera nada.
func AuthorizeContractTermination(actorID string, c Contract) error {
	if !c.HasParty(actorID) {
		return apperror.NewForbiddenError("somente o cliente ou o contratado podem encerrar o contrato")
	}
	return nil
}

// AuthorizeJobCreation exige que o ator seja o cliente do contrato e que o contrato não esteja encerrado.
func AuthorizeJobCreation(actorID string, c Contract) error {
	if actorID != c.ClientID {
		return apperror.NewForbiddenError("somente o cliente do contrato pode criar jobs")
	}
	if c.IsTerminated() {
		return apperror.NewConflictErrorWithReason(apperror.ReasonContractTerminated,
			fmt.Sprintf("o contrato %s está encerrado", c.ID))
	}
	return nil
}

// AuthorizeJobRead permite a leitura apenas às partes do job.
func AuthorizeJobRead(actorID string, j Job) error {
	if actorID == "" || (actorID != j.ClientID && actorID != j.ContractorID) {
		return apperror.NewForbiddenError("somente as partes do job podem acessá-lo")
	}
	return nil
}

// AuthorizeJobModification exige o cliente do job. Título e descrição podem mudar
// a qualquer momento; o preço fica congelado depois do pagamento.
func AuthorizeJobModification(actorID string, j Job, u JobUpdate) error {
	if actorID != j.ClientID {
		return apperror.NewForbiddenError("somente o cliente do job pode modificá-lo")
	}
	if j.Paid && u.Price != nil && !u.Price.Equal(j.Price) {
		return apperror.NewConflictErrorWithReason(apperror.ReasonJobAlreadyPaid,
			fmt.Sprintf("o preço do job %s não pode mudar depois do pagamento", j.ID))
	}
	return nil
}

// AuthorizeJobCompletion exige o contratado do job.
func AuthorizeJobCompletion(actorID string, j Job) error {
	if actorID != j.ContractorID {
		return apperror.NewForbiddenError("somente o contratado do job pode marcá-lo como concluído")
	}
	return nil
}

// AuthorizeApprovalUpdate exige o cliente do job e um status final (approved ou rejected).
// Não exige que o job esteja concluído. Depois do pagamento a aprovação fica congelada.
func AuthorizeApprovalUpdate(actorID string, j Job, status ApprovalStatus) error {
	if status != ApprovalApproved && status != ApprovalRejected {
		return apperror.NewValidationError(fmt.Sprintf("status de aprovação inválido: '%s'", status))
	}
	if actorID != j.ClientID {
		return apperror.NewForbiddenError("somente o cliente do job pode aprová-lo ou rejeitá-lo")
	}
	if j.Paid && status != j.ApprovalStatus {
		return apperror.NewConflictErrorWithReason(apperror.ReasonJobAlreadyPaid,
			fmt.Sprintf("a aprovação do job %s não pode mudar depois do pagamento", j.ID))
	}
	return nil
}

// CheckJobPayable verifica, nesta ordem: pagador, pagamento anterior, conclusão e aprovação.
func CheckJobPayable(payerID string, j Job) error {
	if payerID != j.ClientID {
		return apperror.NewForbiddenError("somente o cliente do job pode pagá-lo")
	}
	if j.Paid {
		return apperror.NewConflictErrorWithReason(apperror.ReasonJobAlreadyPaid,
			fmt.Sprintf("o job %s já foi pago", j.ID))
	}
	if !j.Completed || j.ApprovalStatus != ApprovalApproved {
		return apperror.NewConflictErrorWithReason(apperror.ReasonJobNotPayable,
			fmt.Sprintf("o job %s precisa estar concluído e aprovado para ser pago", j.ID))
	}
	return nil
}

// AuthorizeDeposit exige que o ator seja o próprio perfil que recebe o depósito.
func AuthorizeDeposit(actorID string, target Profile) error {
	if actorID != target.ID {
		return apperror.NewForbiddenError("somente o próprio cliente pode depositar em seu saldo")
	}
	if target.Type != ProfileClient {
		return apperror.NewValidationError("depósitos são aceitos apenas em perfis de cliente")
	}
	return nil
}

// AuthorizeProfileRead permite ao próprio perfil ou a um admin. Vale também para o extrato.
func AuthorizeProfileRead(actor Actor, profileID string) error {
	if actor.IsAdmin() || actor.ID == profileID {
		return nil
	}
	return apperror.NewForbiddenError("acesso permitido apenas ao próprio perfil")
}

// AuthorizeProfileUpdate permite apenas ao próprio perfil. Profissão só vale para contratados.
func AuthorizeProfileUpdate(actorID string, p Profile, u ProfileUpdate) error {
	if actorID != p.ID {
		return apperror.NewForbiddenError("somente o próprio perfil pode ser editado")
	}
	if u.Profession != nil && p.Type != ProfileContractor {
		return apperror.NewValidationError("profissão só pode ser definida para contratados")
	}
	return nil
}
