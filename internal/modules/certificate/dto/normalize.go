package dto

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"anoa.com/gemcert/internal/entity"
	"github.com/microcosm-cc/bluemonday"
)

var narrativePolicy = bluemonday.StrictPolicy()

// Normalize maps a validated payload of either shape onto the stored record.
// Legacy names fill gaps in the primary fields, then the primary fields are
// mirrored back so older clients read consistent values.
func (p *CertificatePayload) Normalize(now time.Time) (*entity.Certificate, error) {
	reportNumber := CanonicalReportNumber(firstNonBlank(p.ReportNumber, p.ReferenceNumber))
	if reportNumber == "" {
		return nil, fmt.Errorf("reportNumber is required")
	}

	cert := &entity.Certificate{
		ReportNumber:       reportNumber,
		Shape:              strings.TrimSpace(p.Shape),
		Measurements:       strings.TrimSpace(firstNonBlank(p.Measurements, p.Dimensions)),
		ColorGrade:         strings.TrimSpace(p.ColorGrade),
		ClarityGrade:       strings.TrimSpace(p.ClarityGrade),
		CutGrade:           strings.TrimSpace(p.CutGrade),
		Polish:             strings.TrimSpace(p.Polish),
		Symmetry:           strings.TrimSpace(p.Symmetry),
		Fluorescence:       strings.TrimSpace(p.Fluorescence),
		Inscription:        sanitize(p.Inscription),
		Comments:           sanitize(p.Comments),
		CertificateNotes:   sanitize(p.CertificateNotes),
		GemologistName:     strings.TrimSpace(firstNonBlank(p.GemologistName, p.ExaminedBy)),
		LabLocation:        strings.TrimSpace(p.LabLocation),
		EquipmentUsed:      strings.TrimSpace(p.EquipmentUsed),
		DigitallySignedBy:  p.DigitallySignedBy,
		ColorGradeDiagram:  p.ColorGradeDiagram,
		ClarityPlotDiagram: p.ClarityPlotDiagram,
		ApprovedBy:         strings.TrimSpace(p.ApprovedBy),
		IsActive:           true,
		IssueDate:          now,
		UploadDate:         now,
	}

	reportDate := firstNonBlank(p.ReportDate, p.CertificationDate)
	if reportDate == "" {
		cert.ReportDate = now
	} else {
		t, err := ParseDate(reportDate)
		if err != nil {
			return nil, fmt.Errorf("reportDate: %w", err)
		}
		cert.ReportDate = t
	}

	if p.SignatureDate != "" {
		t, err := ParseDate(p.SignatureDate)
		if err != nil {
			return nil, fmt.Errorf("signatureDate: %w", err)
		}
		cert.SignatureDate = &t
	}

	if strings.TrimSpace(string(p.CaratWeight)) != "" {
		carat, err := CaratValue(strings.TrimSpace(string(p.CaratWeight))).Float()
		if err != nil {
			return nil, fmt.Errorf("caratWeight: %w", err)
		}
		// numeric(10,3) column
		cert.CaratWeight = math.Round(carat*1000) / 1000
	}

	cert.ReferenceNumber = cert.ReportNumber
	cert.Dimensions = cert.Measurements
	certificationDate := cert.ReportDate
	cert.CertificationDate = &certificationDate
	cert.ExaminedBy = cert.GemologistName
	if cert.ApprovedBy == "" {
		cert.ApprovedBy = cert.GemologistName
	}

	return cert, nil
}

func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(narrativePolicy.Sanitize(s)))
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
