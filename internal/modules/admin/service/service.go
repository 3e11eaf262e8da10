package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/gemcert/internal/modules/admin/dto"
	"anoa.com/gemcert/internal/modules/admin/repository"
	"anoa.com/gemcert/pkg/apperror"
	"anoa.com/gemcert/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

type AdminService interface {
	Login(ctx context.Context, input dto.LoginInput) error
}

type adminService struct {
	repo repository.AdminRepository
	log  *logger.Logger
}

func NewAdminService(repo repository.AdminRepository, log *logger.Logger) AdminService {
	if log == nil {
		log = logger.Nop()
	}
	return &adminService{repo: repo, log: log.With("component", "admin_service")}
}

// Login checks the credentials against the stored bcrypt hash. An unknown
// username and a wrong password fail the same way.
func (s *adminService) Login(ctx context.Context, input dto.LoginInput) error {
	admin, err := s.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.log.Info("admin login rejected", "username", input.Username, "reason", "unknown user")
			return fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(input.Password)); err != nil {
		s.log.Info("admin login rejected", "username", input.Username, "reason", "wrong password")
		return fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
	}

	s.log.Info("admin logged in", "username", admin.Username)
	return nil
}
