package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"organigrama/internal/apperror"
	"organigrama/internal/auth"
	"organigrama/internal/metrics"
	"organigrama/internal/models"
	"organigrama/internal/repository"
)

var errInvalidCredentials = apperror.New(apperror.CodeUnauthorized, "invalid dni or password")

type AuthService struct {
	accounts  AccountStore
	directory EmployeeDirectory
	tokens    TokenSigner
	logger    *zap.Logger
}

func NewAuthService(accounts AccountStore, directory EmployeeDirectory, tokens TokenSigner, logger *zap.Logger) *AuthService {
	return &AuthService{
		accounts:  accounts,
		directory: directory,
		tokens:    tokens,
		logger:    logger,
	}
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	dni := strings.TrimSpace(input.DNI)
	if dni == "" || input.Password == "" {
		return LoginResult{}, apperror.New(apperror.CodeValidation, "dni and password are required")
	}

	user, err := s.accounts.FindUser(ctx, dni)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			metrics.RecordLogin("rejected")
			return LoginResult{}, errInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		metrics.RecordLogin("rejected")
		return LoginResult{}, errInvalidCredentials
	}

	if !user.Active {
		metrics.RecordLogin("disabled")
		return LoginResult{}, apperror.New(apperror.CodeForbidden, "account is disabled")
	}

	vistas, err := s.accounts.EnabledVistas(ctx, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("load vistas: %w", err)
	}

	identity := auth.Identity{
		DNI:    user.DNI,
		Role:   user.Role,
		Vistas: vistas,
	}

	// accounts may exist for people no longer in the directory
	employee, err := s.directory.FindByID(ctx, user.DNI, models.StatusAny)
	switch {
	case err == nil:
		identity.Name = employee.FullName()
	case errors.Is(err, repository.ErrEmployeeNotFound):
		s.logger.Warn("login for account without employee record", zap.String("dni", user.DNI))
	default:
		return LoginResult{}, fmt.Errorf("load employee: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(identity)
	if err != nil {
		return LoginResult{}, err
	}

	metrics.RecordLogin("ok")
	return LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      identity,
	}, nil
}
