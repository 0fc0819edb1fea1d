package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var validate = validator.New()

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	l := logger.With().Str("component", "user_service").Logger()
	return &UserService{repo: repo, logger: &l}
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	created := models.User{Name: strings.TrimSpace(user.Name), Email: strings.TrimSpace(user.Email)}
	if created.Name == "" {
		return nil, domain.Invalidf("user name is blank")
	}
	if err := validate.Var(created.Email, "required,email"); err != nil {
		return nil, domain.Invalidf("invalid email %q", created.Email)
	}

	if err := s.repo.CreateUser(ctx, &created); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email %s is already registered", domain.ErrConflict, created.Email)
		}
		return nil, err
	}

	s.logger.Info().Int64("user_id", created.ID).Msg("User created")
	return &created, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return findUser(ctx, s.repo, id)
}
