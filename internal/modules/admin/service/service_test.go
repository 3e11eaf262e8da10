package service

import (
	"context"
	"testing"

	"anoa.com/gemcert/internal/bootstrap"
	"anoa.com/gemcert/internal/modules/admin/dto"
	"anoa.com/gemcert/internal/modules/admin/repository"
	"anoa.com/gemcert/internal/testutil"
	"anoa.com/gemcert/pkg/apperror"
	"anoa.com/gemcert/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	db := testutil.DB(t)
	require.NoError(t, bootstrap.SeedAdmin(db, "admin", "s3cret-pass", logger.Nop()))
	svc := NewAdminService(repository.NewAdminRepository(db), nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   dto.LoginInput
		wantErr error
	}{
		{"valid credentials", dto.LoginInput{Username: "admin", Password: "s3cret-pass"}, nil},
		{"wrong password", dto.LoginInput{Username: "admin", Password: "admin123"}, apperror.ErrUnauthorized},
		{"unknown user", dto.LoginInput{Username: "root", Password: "s3cret-pass"}, apperror.ErrUnauthorized},
		{"username is case sensitive", dto.LoginInput{Username: "ADMIN", Password: "s3cret-pass"}, apperror.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Login(ctx, tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
