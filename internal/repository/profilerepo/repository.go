package profilerepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"goescrow/internal/domain"
	apperror "goescrow/internal/errors"
	"goescrow/internal/pkg/database"
	"goescrow/internal/pkg/logger"
)

const profileColumns = `id, type, profession, first_name, last_name, email, balance, password_hash, created_at, updated_at`

// ProfileRepository persiste perfis no PostgreSQL.
type ProfileRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProfileRepository cria uma nova instância do ProfileRepository, injetando o DB.
func NewProfileRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ProfileRepository {
	return &ProfileRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (domain.Profile, error) {
	var p domain.Profile
	var profession sql.NullString
	err := row.Scan(&p.ID, &p.Type, &profession, &p.FirstName, &p.LastName, &p.Email,
		&p.Balance, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if profession.Valid {
		p.Profession = &profession.String
	}
	return p, err
}

// Save insere um novo perfil. Email duplicado (case-insensitive) vira conflito EMAIL_TAKEN.
func (r *ProfileRepository) Save(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	r.logger.Debug("Iniciando Save de perfil no repositório.", map[string]interface{}{"email": p.Email, "type": p.Type})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `INSERT INTO profiles (` + profileColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
              RETURNING ` + profileColumns

	saved, err := scanProfile(r.DB.QueryRowContext(ctxTimeout, query,
		p.ID, p.Type, p.Profession, p.FirstName, p.LastName, p.Email,
		p.Balance, p.PasswordHash, p.CreatedAt, p.UpdatedAt,
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			r.logger.Info("Email já cadastrado.", map[string]interface{}{"email": p.Email})
			return domain.Profile{}, apperror.NewConflictErrorWithReason(apperror.ReasonEmailTaken,
				fmt.Sprintf("O email '%s' já está em uso.", p.Email))
		}
		r.logger.Error("Falha ao inserir perfil no DB.", err)
		return domain.Profile{}, apperror.NewDBError("Falha ao inserir perfil", err)
	}

	r.logger.Info("Perfil salvo com sucesso no repositório.", map[string]interface{}{"profile_id": saved.ID})
	return saved, nil
}

// FindByID busca um perfil pelo id.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (domain.Profile, error) {
	r.logger.Debug("Buscando perfil por ID.", map[string]interface{}{"profile_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(r.DB.QueryRowContext(ctxTimeout, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Perfil não encontrado.", map[string]interface{}{"profile_id": id})
		return domain.Profile{}, apperror.NewNotFoundError(fmt.Sprintf("Perfil com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar perfil por ID no DB.", err)
		return domain.Profile{}, apperror.NewDBError("Falha ao buscar perfil", err)
	}
	return p, nil
}

// FindByEmail busca um perfil pelo email, ignorando maiúsculas e minúsculas.
func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (domain.Profile, error) {
	r.logger.Debug("Buscando perfil por email.", map[string]interface{}{"email": email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE lower(email) = lower($1)`

	p, err := scanProfile(r.DB.QueryRowContext(ctxTimeout, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Perfil não encontrado por email.", map[string]interface{}{"email": email})
		return domain.Profile{}, apperror.NewNotFoundError(fmt.Sprintf("Perfil com email '%s' não encontrado.", email))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar perfil por email no DB.", err)
		return domain.Profile{}, apperror.NewDBError("Falha ao buscar perfil por email", err)
	}
	return p, nil
}

// UpdateDetails grava nome, email e profissão. Saldo e tipo nunca mudam por aqui.
func (r *ProfileRepository) UpdateDetails(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	r.logger.Debug("Atualizando dados do perfil.", map[string]interface{}{"profile_id": p.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE profiles
        SET first_name = $1, last_name = $2, email = $3, profession = $4, updated_at = $5
        WHERE id = $6
        RETURNING ` + profileColumns

	updated, err := scanProfile(r.DB.QueryRowContext(ctxTimeout, query,
		p.FirstName, p.LastName, p.Email, p.Profession, time.Now().UTC(), p.ID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, apperror.NewNotFoundError(fmt.Sprintf("Perfil com ID %s não encontrado.", p.ID))
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.Profile{}, apperror.NewConflictErrorWithReason(apperror.ReasonEmailTaken,
				fmt.Sprintf("O email '%s' já está em uso.", p.Email))
		}
		r.logger.Error("Falha ao atualizar perfil no DB.", err)
		return domain.Profile{}, apperror.NewDBError("Falha ao atualizar perfil", err)
	}

	r.logger.Info("Perfil atualizado com sucesso.", map[string]interface{}{"profile_id": updated.ID})
	return updated, nil
}
