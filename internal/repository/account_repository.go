package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"organigrama/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindUser(ctx context.Context, dni string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("dni = ?", dni).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, queryError("find user", err)
	}
	return user, nil
}

// EnabledVistas returns the vista names granted to role, sorted by name.
func (r *AccountRepository) EnabledVistas(ctx context.Context, role string) ([]string, error) {
	vistas := make([]string, 0)
	err := r.db.WithContext(ctx).
		Model(&models.RoleVista{}).
		Where("rol = ? AND habilitado = ?", role, true).
		Order("vista").
		Pluck("vista", &vistas).Error
	if err != nil {
		return nil, queryError("list vistas", err)
	}
	return vistas, nil
}
