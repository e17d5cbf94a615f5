package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProfileType é o papel fixo de um participante do marketplace.
type ProfileType string

const (
	ProfileClient     ProfileType = "client"     // paga pelo trabalho
	ProfileContractor ProfileType = "contractor" // executa o trabalho e recebe
)

// Valid informa se o tipo é conhecido.
func (t ProfileType) Valid() bool {
	return t == ProfileClient || t == ProfileContractor
}

// Role é a capability carregada no token. Usada apenas como filtro de rota;
// a autorização sobre entidades é feita pelos predicados em policy.go.
type Role string

const (
	RoleClient     Role = "client"
	RoleContractor Role = "contractor"
	RoleAdmin      Role = "admin"
)

// Profile representa um participante do marketplace (cliente ou contratado).
type Profile struct {
	ID           string          `json:"id"`
	Type         ProfileType     `json:"type"`
	Profession   *string         `json:"profession"` // nil quando Type != contractor
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Email        string          `json:"email"`
	Balance      decimal.Decimal `json:"balance"`
	PasswordHash string          `json:"-"` // Oculta o hash da senha no JSON de resposta
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// FullName concatena nome e sobrenome.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// ProfileSignup é o payload de criação de perfil.
type ProfileSignup struct {
	Type       ProfileType `json:"type" validate:"required,oneof=client contractor"`
	Profession string      `json:"profession" validate:"omitempty,max=100"`
	FirstName  string      `json:"firstName" validate:"required,max=100"`
	LastName   string      `json:"lastName" validate:"required,max=100"`
	Email      string      `json:"email" validate:"required,email"`
	Password   string      `json:"password" validate:"required,min=8"`
}

// ProfileUpdate é a edição parcial de um perfil. Type e Balance não são editáveis.
type ProfileUpdate struct {
	FirstName  *string `json:"firstName" validate:"omitempty,max=100"`
	LastName   *string `json:"lastName" validate:"omitempty,max=100"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Profession *string `json:"profession" validate:"omitempty,max=100"`
}

// Credentials é o payload de login.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult é devolvido no signup e no login.
type AuthResult struct {
	Profile Profile `json:"profile"`
	Token   string  `json:"token"`
}

// NormalizeEmail aplica a regra de unicidade case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
