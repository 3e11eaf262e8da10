package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"anoa.com/gemcert/pkg/apperror"
)

const (
	reportNumberPrefix   = "G"
	reportNumberDigits   = 10
	reportNumberAttempts = 5
)

var reportNumberSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(reportNumberDigits), nil)

func randomReportNumber() (string, error) {
	n, err := rand.Int(rand.Reader, reportNumberSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%0*d", reportNumberPrefix, reportNumberDigits, n), nil
}

// GenerateReportNumber proposes a report number that is not yet taken. It
// does not reserve it; Create still rejects a number claimed in between.
func (s *service) GenerateReportNumber(ctx context.Context) (string, error) {
	for i := 0; i < reportNumberAttempts; i++ {
		candidate, err := s.randomNumber()
		if err != nil {
			return "", fmt.Errorf("generate report number: %w", err)
		}

		_, err = s.repo.FindByReportNumber(ctx, candidate)
		if isNotFound(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free report number after %d attempts: %w", reportNumberAttempts, apperror.ErrInternal)
}
