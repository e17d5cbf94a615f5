package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "GoEscrow-API"

// ErrInvalidToken envolve toda falha de validação; a causa do jwt segue encadeada.
var ErrInvalidToken = errors.New("token inválido")

// Identity é o que a sessão afirma sobre o portador do token.
type Identity struct {
	ProfileID string
	Role      string // tipo do perfil: client ou contractor
	Admin     bool   // email listado em ADMIN_EMAILS
}

// CustomClaims carrega a identidade no JWT. O ID do perfil vai no Subject.
type CustomClaims struct {
	Role  string `json:"role"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// ProfileID é o perfil dono da sessão.
func (c *CustomClaims) ProfileID() string {
	return c.Subject
}

// Service emite e valida tokens HS256.
type Service struct {
	secretKey []byte
	expiry    time.Duration
	now       func() time.Time
	parser    *jwt.Parser
}

// NewService cria o serviço de tokens com a chave e a validade informadas.
func NewService(secretKey string, expiry time.Duration) *Service {
	s := &Service{
		secretKey: []byte(secretKey),
		expiry:    expiry,
		now:       time.Now,
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s
}

// GenerateToken assina um token de sessão para a identidade.
func (s *Service) GenerateToken(id Identity) (string, error) {
	if id.ProfileID == "" {
		return "", errors.New("identidade sem perfil")
	}

	now := s.now()
	claims := CustomClaims{
		Role:  id.Role,
		Admin: id.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.ProfileID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("falha ao assinar o token: %w", err)
	}
	return signed, nil
}

// ValidateToken confere assinatura, emissor e validade e devolve as claims.
func (s *Service) ValidateToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	if _, err := s.parser.ParseWithClaims(tokenString, claims, s.key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sem subject", ErrInvalidToken)
	}
	return claims, nil
}

func (s *Service) key(*jwt.Token) (interface{}, error) {
	return s.secretKey, nil
}
