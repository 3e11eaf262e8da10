package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"anoa.com/gemcert/internal/entity"
)

// CaratValue accepts a carat weight sent either as a JSON number or a string.
type CaratValue string

func (v *CaratValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = CaratValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("caratWeight must be a number or numeric string")
	}
	*v = CaratValue(n.String())
	return nil
}

// CertificatePayload is the submitted certificate in either historical shape.
// The strict tags describe the current generator form, the legacy tags the
// older upload flow where most fields may be missing.
type CertificatePayload struct {
	ReportNumber string     `json:"reportNumber" form:"reportNumber" strict:"required,max=32,reportnumber" legacy:"required_without=ReferenceNumber,max=32,reportnumber"`
	ReportDate   string     `json:"reportDate" form:"reportDate" strict:"required,isodate" legacy:"isodate"`
	Shape        string     `json:"shape" form:"shape" strict:"required,max=100" legacy:"max=100"`
	Measurements string     `json:"measurements" form:"measurements" strict:"required,max=100" legacy:"max=100"`
	CaratWeight  CaratValue `json:"caratWeight" form:"caratWeight" strict:"required,carat" legacy:"carat"`
	ColorGrade   string     `json:"colorGrade" form:"colorGrade" strict:"required,max=50" legacy:"max=50"`
	ClarityGrade string     `json:"clarityGrade" form:"clarityGrade" strict:"required,max=50" legacy:"max=50"`
	CutGrade     string     `json:"cutGrade" form:"cutGrade" strict:"required,max=50" legacy:"max=50"`
	Polish       string     `json:"polish" form:"polish" strict:"required,max=50" legacy:"max=50"`
	Symmetry     string     `json:"symmetry" form:"symmetry" strict:"required,max=50" legacy:"max=50"`
	Fluorescence string     `json:"fluorescence" form:"fluorescence" strict:"required,max=50" legacy:"max=50"`

	Inscription      string `json:"inscription" form:"inscription" strict:"max=2000" legacy:"max=2000"`
	Comments         string `json:"comments" form:"comments" strict:"max=2000" legacy:"max=2000"`
	CertificateNotes string `json:"certificateNotes" form:"certificateNotes" strict:"max=2000" legacy:"max=2000"`

	GemologistName string `json:"gemologistName" form:"gemologistName" strict:"required,max=150" legacy:"max=150"`
	SignatureDate  string `json:"signatureDate" form:"signatureDate" strict:"required,isodate" legacy:"isodate"`
	LabLocation    string `json:"labLocation" form:"labLocation" strict:"max=150" legacy:"max=150"`
	EquipmentUsed  string `json:"equipmentUsed" form:"equipmentUsed" strict:"max=255" legacy:"max=255"`

	DigitallySignedBy  bool `json:"digitallySignedBy" form:"digitallySignedBy"`
	ColorGradeDiagram  bool `json:"colorGradeDiagram" form:"colorGradeDiagram"`
	ClarityPlotDiagram bool `json:"clarityPlotDiagram" form:"clarityPlotDiagram"`

	ReferenceNumber   string `json:"referenceNumber" form:"referenceNumber" strict:"max=32,reportnumber" legacy:"max=32,reportnumber"`
	Dimensions        string `json:"dimensions" form:"dimensions" strict:"max=100" legacy:"max=100"`
	CertificationDate string `json:"certificationDate" form:"certificationDate" strict:"isodate" legacy:"isodate"`
	ExaminedBy        string `json:"examinedBy" form:"examinedBy" strict:"max=150" legacy:"max=150"`
	ApprovedBy        string `json:"approvedBy" form:"approvedBy" strict:"max=150" legacy:"max=150"`
}

type CertificateListResponse struct {
	Data  []entity.Certificate `json:"data"`
	Total int                  `json:"total"`
}

type CertificateIDRequest struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

type ReportNumberRequest struct {
	ReportNumber string `uri:"reportNumber" binding:"required"`
}

type SetStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type ReportNumberResponse struct {
	ReportNumber string `json:"reportNumber"`
}

// VerificationEntry is one line of the verification log shown to the client.
type VerificationEntry struct {
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	Location  string    `json:"location"`
}

// VerificationResult is returned for both known and unknown report numbers so
// the client can render an "invalid certificate" view without branching on
// the status code.
type VerificationResult struct {
	IsValid               bool                `json:"isValid"`
	Certificate           *entity.Certificate `json:"certificate"`
	SecurityLevel         string              `json:"securityLevel"`
	LastVerified          *time.Time          `json:"lastVerified"`
	VerificationCount     int64               `json:"verificationCount"`
	DigitalSignatureValid bool                `json:"digitalSignatureValid"`
	TamperDetected        bool                `json:"tamperDetected"`
	CertificateAge        int                 `json:"certificateAge"`
	ContentHash           string              `json:"contentHash"`
	VerificationHistory   []VerificationEntry `json:"verificationHistory"`
}

// InvalidVerification is the zero-valued result for an unknown certificate.
func InvalidVerification() *VerificationResult {
	return &VerificationResult{
		VerificationHistory: []VerificationEntry{},
	}
}

func (v CaratValue) Float() (float64, error) {
	return strconv.ParseFloat(string(v), 64)
}
