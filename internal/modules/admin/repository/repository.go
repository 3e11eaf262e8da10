package repository

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/gemcert/internal/entity"
	"anoa.com/gemcert/pkg/apperror"
	"gorm.io/gorm"
)

type AdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*entity.Admin, error)
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) FindByUsername(ctx context.Context, username string) (*entity.Admin, error) {
	var admin entity.Admin
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("admin %s: %w", username, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("find admin %s: %w", username, err)
	}
	return &admin, nil
}
