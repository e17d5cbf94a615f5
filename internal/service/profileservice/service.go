package profileservice

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/token"
)

// ProfileRepository define o contrato que o Serviço de Perfis espera da camada de Persistência.
type ProfileRepository interface {
	Save(ctx context.Context, p domain.Profile) (domain.Profile, error)
	FindByID(ctx context.Context, id string) (domain.Profile, error)
	FindByEmail(ctx context.Context, email string) (domain.Profile, error)
	UpdateDetails(ctx context.Context, p domain.Profile) (domain.Profile, error)
}

// TokenIssuer é o contrato da camada de token (internal/pkg/token).
type TokenIssuer interface {
	GenerateToken(id token.Identity) (string, error)
}

// Options reúne as regras configuráveis do cadastro.
type Options struct {
	SignupCredit decimal.Decimal
	AdminEmails  []string // em minúsculas
	BcryptCost   int      // zero = bcrypt.DefaultCost
}

// Service implementa cadastro, login e edição de perfis.
type Service struct {
	repo   ProfileRepository
	tokens TokenIssuer
	opts   Options
	logger logger.Logger
	now    func() time.Time
}

// NewService cria uma nova instância do Serviço de Perfis.
func NewService(repo ProfileRepository, tokens TokenIssuer, opts Options, logger logger.Logger) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:   repo,
		tokens: tokens,
		opts:   opts,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// IdentityFor monta a identidade do token. A role é sempre o tipo do perfil;
// emails em AdminEmails ganham o claim admin por cima dela.
func (s *Service) IdentityFor(p domain.Profile) token.Identity {
	return token.Identity{
		ProfileID: p.ID,
		Role:      string(p.Type),
		Admin:     slices.Contains(s.opts.AdminEmails, domain.NormalizeEmail(p.Email)),
	}
}

// Signup cria o perfil com o crédito inicial e devolve um token de sessão.
func (s *Service) Signup(ctx context.Context, req domain.ProfileSignup) (domain.AuthResult, error) {
	s.logger.Debug("Iniciando cadastro de perfil.", map[string]interface{}{"email": req.Email, "type": req.Type})

	// 1. Regras de tipo/profissão
	if !req.Type.Valid() {
		return domain.AuthResult{}, apperror.NewValidationError("tipo de perfil inválido")
	}
	profession := strings.TrimSpace(req.Profession)
	if req.Type == domain.ProfileClient && profession != "" {
		return domain.AuthResult{}, apperror.NewValidationError("profissão só pode ser definida para contratados")
	}
	if req.Type == domain.ProfileContractor && profession == "" {
		return domain.AuthResult{}, apperror.NewValidationError("contratados devem informar a profissão")
	}

	// 2. Hashing da Senha
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		s.logger.Error("Falha ao gerar hash da senha.", err)
		return domain.AuthResult{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 3. Montagem do perfil
	now := s.now()
	p := domain.Profile{
		ID:           uuid.NewString(),
		Type:         req.Type,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        domain.NormalizeEmail(req.Email),
		Balance:      s.opts.SignupCredit,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if profession != "" {
		p.Profession = &profession
	}

	// 4. Persistência (email duplicado volta como conflito EMAIL_TAKEN)
	saved, err := s.repo.Save(ctx, p)
	if err != nil {
		return domain.AuthResult{}, err
	}

	// 5. Token
	tok, err := s.tokens.GenerateToken(s.IdentityFor(saved))
	if err != nil {
		s.logger.Error("Falha ao gerar token de autenticação.", err)
		return domain.AuthResult{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	s.logger.Info("Perfil cadastrado com sucesso.", map[string]interface{}{"profile_id": saved.ID, "type": saved.Type})
	return domain.AuthResult{Profile: saved, Token: tok}, nil
}

// Login autentica por email e senha e devolve um token novo.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error) {
	// 1. Buscar Perfil pelo Email
	p, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(creds.Email))
	if err != nil {
		// NotFound vira Unauthorized para não revelar quais emails existem.
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.AuthResult{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return domain.AuthResult{}, err
	}

	// 2. Comparar Senhas
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(creds.Password)); err != nil {
		s.logger.Debug("Senha incorreta no login.", map[string]interface{}{"profile_id": p.ID})
		return domain.AuthResult{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	// 3. Gerar JWT
	tok, err := s.tokens.GenerateToken(s.IdentityFor(p))
	if err != nil {
		s.logger.Error("Falha ao gerar token de autenticação.", err)
		return domain.AuthResult{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	s.logger.Info("Login realizado.", map[string]interface{}{"profile_id": p.ID})
	return domain.AuthResult{Profile: p, Token: tok}, nil
}

// GetProfile devolve o perfil ao próprio dono ou a um admin.
func (s *Service) GetProfile(ctx context.Context, actor domain.Actor, id string) (domain.Profile, error) {
	if err := domain.AuthorizeProfileRead(actor, id); err != nil {
		return domain.Profile{}, err
	}
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile aplica a edição parcial. Tipo e saldo não são editáveis.
func (s *Service) UpdateProfile(ctx context.Context, actor domain.Actor, id string, u domain.ProfileUpdate) (domain.Profile, error) {
	s.logger.Debug("Iniciando edição de perfil.", map[string]interface{}{"profile_id": id, "actor_id": actor.ID})

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}
	if err := domain.AuthorizeProfileUpdate(actor.ID, current, u); err != nil {
		s.logger.Warn("Edição de perfil rejeitada.", map[string]interface{}{"profile_id": id, "actor_id": actor.ID})
		return domain.Profile{}, err
	}

	if u.FirstName != nil {
		current.FirstName = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		current.LastName = strings.TrimSpace(*u.LastName)
	}
	if u.Email != nil {
		current.Email = domain.NormalizeEmail(*u.Email)
	}
	if u.Profession != nil {
		profession := strings.TrimSpace(*u.Profession)
		if profession == "" {
			return domain.Profile{}, apperror.NewValidationError("contratados devem informar a profissão")
		}
		current.Profession = &profession
	}

	updated, err := s.repo.UpdateDetails(ctx, current)
	if err != nil {
		return domain.Profile{}, err
	}

	s.logger.Info("Perfil atualizado.", map[string]interface{}{"profile_id": updated.ID})
	return updated, nil
}
