package service

import (
	"context"
	"fmt"
	"time"

	"anoa.com/gemcert/internal/entity"
	"anoa.com/gemcert/internal/modules/certificate/dto"
	"anoa.com/gemcert/pkg/apperror"
)

const (
	SecurityLevelHigh     = "High"
	SecurityLevelStandard = "Standard"

	verificationLocation = "Online Verification Portal"
)

func verificationCountKey(reportNumber string) string {
	return "verifications:" + reportNumber
}

// Verify looks up a certificate for a public verification request. Unknown
// and deactivated certificates yield an invalid result rather than an error.
func (s *service) Verify(ctx context.Context, reportNumber, clientIP string) (*dto.VerificationResult, error) {
	if !dto.ValidReportNumber(reportNumber) {
		return nil, fmt.Errorf("malformed report number: %w", apperror.ErrBadRequest)
	}
	reportNumber = dto.CanonicalReportNumber(reportNumber)

	cert, err := s.repo.FindByReportNumber(ctx, reportNumber)
	if err != nil {
		if isNotFound(err) {
			s.metrics.incVerified(resultInvalid)
			return dto.InvalidVerification(), nil
		}
		return nil, err
	}
	if !cert.IsActive {
		s.metrics.incVerified(resultInvalid)
		return dto.InvalidVerification(), nil
	}

	now := s.now().UTC()
	hash := cert.ComputeContentHash()
	tampered := cert.ContentHash != "" && cert.ContentHash != hash

	count, err := s.counters.Incr(ctx, verificationCountKey(reportNumber))
	if err != nil {
		s.log.Warn("failed to count verification", "report_number", reportNumber, "error", err)
		count = 0
	}

	if tampered {
		s.metrics.incVerified(resultTampered)
		s.log.Warn("certificate content hash mismatch", "report_number", reportNumber)
	} else {
		s.metrics.incVerified(resultValid)
	}

	return &dto.VerificationResult{
		IsValid:               true,
		Certificate:           cert,
		SecurityLevel:         securityLevel(cert),
		LastVerified:          &now,
		VerificationCount:     count,
		DigitalSignatureValid: !tampered,
		TamperDetected:        tampered,
		CertificateAge:        ageInDays(cert, now),
		ContentHash:           hash,
		VerificationHistory: []dto.VerificationEntry{
			{Timestamp: now, IP: clientIP, Location: verificationLocation},
		},
	}, nil
}

func securityLevel(cert *entity.Certificate) string {
	if blank(cert.GemologistName) || blank(cert.LabLocation) || blank(cert.EquipmentUsed) {
		return SecurityLevelStandard
	}
	return SecurityLevelHigh
}

func ageInDays(cert *entity.Certificate, now time.Time) int {
	days := int(now.Sub(cert.ReportDate.UTC()).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
