package profileservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/logger"
	"goescrow/internal/pkg/token"
	"goescrow/internal/service/profileservice"
)

// MockProfileRepository é uma implementação mock da interface ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Save(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	args := m.Called(ctx, p)
	if fn, ok := args.Get(0).(func(context.Context, domain.Profile) domain.Profile); ok {
		return fn(ctx, p), args.Error(1)
	}
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id string) (domain.Profile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindByEmail(ctx context.Context, email string) (domain.Profile, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *MockProfileRepository) UpdateDetails(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	args := m.Called(ctx, p)
	if fn, ok := args.Get(0).(func(context.Context, domain.Profile) domain.Profile); ok {
		return fn(ctx, p), args.Error(1)
	}
	return args.Get(0).(domain.Profile), args.Error(1)
}

// MockTokenIssuer é uma implementação mock do emissor de tokens.
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(id token.Identity) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

func newService(repo *MockProfileRepository, tokens *MockTokenIssuer) *profileservice.Service {
	return profileservice.NewService(repo, tokens, profileservice.Options{
		SignupCredit: decimal.RequireFromString("500.00"),
		AdminEmails:  []string{"admin@goescrow.dev"},
		BcryptCost:   bcrypt.MinCost,
	}, logger.NewLogger("debug"))
}

func TestSignup_SeedsCreditAndIssuesToken(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newService(repo, tokens)

	var saved domain.Profile
	repo.On("Save", mock.Anything, mock.AnythingOfType("domain.Profile")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Profile) }).
		Return(func(_ context.Context, p domain.Profile) domain.Profile { return p }, nil)
	tokens.On("GenerateToken", mock.MatchedBy(func(id token.Identity) bool {
		return id.ProfileID != "" && id.Role == "contractor" && !id.Admin
	})).Return("jwt-token", nil)

	result, err := svc.Signup(context.Background(), domain.ProfileSignup{
		Type: domain.ProfileContractor, Profession: " Designer ", FirstName: "Ana", LastName: "Lima",
		Email: "Ana@Ex.com", Password: "segredo123",
	})

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", result.Token)
	assert.True(t, decimal.RequireFromString("500.00").Equal(saved.Balance))
	assert.Equal(t, "ana@ex.com", saved.Email)
	require.NotNil(t, saved.Profession)
	assert.Equal(t, "Designer", *saved.Profession)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.PasswordHash), []byte("segredo123")))
	repo.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestSignup_ProfessionRules(t *testing.T) {
	svc := newService(new(MockProfileRepository), new(MockTokenIssuer))

	_, err := svc.Signup(context.Background(), domain.ProfileSignup{
		Type: domain.ProfileClient, Profession: "Designer", FirstName: "Rui", LastName: "Souza", Email: "rui@ex.com", Password: "segredo123",
	})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.Signup(context.Background(), domain.ProfileSignup{
		Type: domain.ProfileContractor, FirstName: "Rui", LastName: "Souza", Email: "rui@ex.com", Password: "segredo123",
	})
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestSignup_AdminEmailKeepsProfileType(t *testing.T) {
	repo := new(MockProfileRepository)
	tokens := new(MockTokenIssuer)
	svc := newService(repo, tokens)

	repo.On("Save", mock.Anything, mock.AnythingOfType("domain.Profile")).
		Return(func(_ context.Context, p domain.Profile) domain.Profile { return p }, nil)
	tokens.On("GenerateToken", mock.MatchedBy(func(id token.Identity) bool {
		return id.Role == "client" && id.Admin
	})).Return("admin-token", nil)

	result, err := svc.Signup(context.Background(), domain.ProfileSignup{
		Type: domain.ProfileClient, FirstName: "Adm", LastName: "In", Email: "ADMIN@goescrow.dev", Password: "segredo123",
	})

	require.NoError(t, err)
	assert.Equal(t, "admin-token", result.Token)
	tokens.AssertExpectations(t)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	repo := new(MockProfileRepository)
	svc := newService(repo, new(MockTokenIssuer))

	repo.On("Save", mock.Anything, mock.AnythingOfType("domain.Profile")).
		Return(domain.Profile{}, apperror.NewConflictErrorWithReason(apperror.ReasonEmailTaken, "em uso"))

	_, err := svc.Signup(context.Background(), domain.ProfileSignup{
		Type: domain.ProfileClient, FirstName: "Rui", LastName: "Souza", Email: "rui@ex.com", Password: "segredo123",
	})

	assert.True(t, apperror.IsConflictReason(err, apperror.ReasonEmailTaken))
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost)
	require.NoError(t, err)
	profile := domain.Profile{ID: uuid.NewString(), Type: domain.ProfileClient, Email: "rui@ex.com", PasswordHash: string(hash)}

	t.Run("sucesso", func(t *testing.T) {
		repo := new(MockProfileRepository)
		tokens := new(MockTokenIssuer)
		svc := newService(repo, tokens)
		repo.On("FindByEmail", mock.Anything, "rui@ex.com").Return(profile, nil)
		tokens.On("GenerateToken", token.Identity{ProfileID: profile.ID, Role: "client"}).Return("tok", nil)

		result, err := svc.Login(context.Background(), domain.Credentials{Email: "RUI@ex.com", Password: "segredo123"})

		require.NoError(t, err)
		assert.Equal(t, "tok", result.Token)
	})

	t.Run("senha errada", func(t *testing.T) {
		repo := new(MockProfileRepository)
		svc := newService(repo, new(MockTokenIssuer))
		repo.On("FindByEmail", mock.Anything, "rui@ex.com").Return(profile, nil)

		_, err := svc.Login(context.Background(), domain.Credentials{Email: "rui@ex.com", Password: "errada"})

		assert.IsType(t, &apperror.UnauthorizedError{}, err)
	})

	t.Run("email inexistente", func(t *testing.T) {
		repo := new(MockProfileRepository)
		svc := newService(repo, new(MockTokenIssuer))
		repo.On("FindByEmail", mock.Anything, "x@ex.com").Return(domain.Profile{}, apperror.NewNotFoundError("x"))

		_, err := svc.Login(context.Background(), domain.Credentials{Email: "x@ex.com", Password: "qualquer"})

		assert.IsType(t, &apperror.UnauthorizedError{}, err)
	})

	t.Run("falha de DB", func(t *testing.T) {
		repo := new(MockProfileRepository)
		svc := newService(repo, new(MockTokenIssuer))
		repo.On("FindByEmail", mock.Anything, "x@ex.com").Return(domain.Profile{}, apperror.NewDBError("falha", errors.New("timeout")))

		_, err := svc.Login(context.Background(), domain.Credentials{Email: "x@ex.com", Password: "qualquer"})

		assert.IsType(t, &apperror.InternalError{}, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	profile := domain.Profile{ID: uuid.NewString(), Type: domain.ProfileClient, FirstName: "Rui", LastName: "Souza",
		Email: "rui@ex.com", Balance: decimal.NewFromInt(500)}
	owner := domain.Actor{ID: profile.ID, Role: domain.RoleClient}

	t.Run("dono altera nome e email", func(t *testing.T) {
		repo := new(MockProfileRepository)
		svc := newService(repo, new(MockTokenIssuer))
		name := "Raul"
		email := "RAUL@ex.com"
		repo.On("FindByID", mock.Anything, profile.ID).Return(profile, nil)
		repo.On("UpdateDetails", mock.Anything, mock.MatchedBy(func(p domain.Profile) bool {
			return p.FirstName == "Raul" && p.Email == "raul@ex.com" && p.Balance.Equal(profile.Balance) && p.Type == profile.Type
		})).Return(func(_ context.Context, p domain.Profile) domain.Profile { return p }, nil)

		updated, err := svc.UpdateProfile(context.Background(), owner, profile.ID, domain.ProfileUpdate{FirstName: &name, Email: &email})

		require.NoError(t, err)
		assert.Equal(t, "Raul", updated.FirstName)
		repo.AssertExpectations(t)
	})

	t.Run("outro perfil é rejeitado", func(t *testing.T) {
		repo := new(MockProfileRepository)
		svc := newService(repo, new(MockTokenIssuer))
		repo.On("FindByID", mock.Anything, profile.ID).Return(profile, nil)

		_, err := svc.UpdateProfile(context.Background(), domain.Actor{ID: uuid.NewString(), Role: domain.RoleAdmin}, profile.ID, domain.ProfileUpdate{})

		assert.IsType(t, &apperror.ForbiddenError{}, err)
		repo.AssertNotCalled(t, "UpdateDetails", mock.Anything, mock.Anything)
	})

	t.Run("cliente não recebe profissão", func(t *testing.T) {
		repo := new(MockProfileRepository)
		svc := newService(repo, new(MockTokenIssuer))
		profession := "Dev"
		repo.On("FindByID", mock.Anything, profile.ID).Return(profile, nil)

		_, err := svc.UpdateProfile(context.Background(), owner, profile.ID, domain.ProfileUpdate{Profession: &profession})

		assert.IsType(t, &apperror.ValidationError{}, err)
	})
}

func TestGetProfile_Authorization(t *testing.T) {
	repo := new(MockProfileRepository)
	svc := newService(repo, new(MockTokenIssuer))
	id := uuid.NewString()
	repo.On("FindByID", mock.Anything, id).Return(domain.Profile{ID: id}, nil)

	_, err := svc.GetProfile(context.Background(), domain.Actor{ID: id, Role: domain.RoleClient}, id)
	assert.NoError(t, err)

	_, err = svc.GetProfile(context.Background(), domain.Actor{ID: uuid.NewString(), Role: domain.RoleAdmin}, id)
	assert.NoError(t, err)

	_, err = svc.GetProfile(context.Background(), domain.Actor{ID: uuid.NewString(), Role: domain.RoleClient}, id)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}
