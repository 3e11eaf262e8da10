package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Certificate struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	ReportNumber string `gorm:"size:32;uniqueIndex;not null" json:"reportNumber"`

	ReportDate   time.Time `gorm:"index;not null" json:"reportDate"`
	Shape        string    `gorm:"size:100" json:"shape"`
	Measurements string    `gorm:"size:100" json:"measurements"`
	CaratWeight  float64   `gorm:"type:numeric(10,3)" json:"caratWeight"`
	ColorGrade   string    `gorm:"size:50" json:"colorGrade"`
	ClarityGrade string    `gorm:"size:50" json:"clarityGrade"`
	CutGrade     string    `gorm:"size:50" json:"cutGrade"`
	Polish       string    `gorm:"size:50" json:"polish"`
	Symmetry     string    `gorm:"size:50" json:"symmetry"`
	Fluorescence string    `gorm:"size:50" json:"fluorescence"`

	Inscription      string `gorm:"type:text" json:"inscription"`
	Comments         string `gorm:"type:text" json:"comments"`
	CertificateNotes string `gorm:"type:text" json:"certificateNotes"`

	GemologistName string     `gorm:"size:150" json:"gemologistName"`
	SignatureDate  *time.Time `json:"signatureDate"`
	LabLocation    string     `gorm:"size:150" json:"labLocation"`
	EquipmentUsed  string     `gorm:"size:255" json:"equipmentUsed"`

	DigitallySignedBy  bool `gorm:"not null;default:false" json:"digitallySignedBy"`
	ColorGradeDiagram  bool `gorm:"not null;default:false" json:"colorGradeDiagram"`
	ClarityPlotDiagram bool `gorm:"not null;default:false" json:"clarityPlotDiagram"`

	// Older clients read these names.
	ReferenceNumber   string     `gorm:"size:32" json:"referenceNumber"`
	Dimensions        string     `gorm:"size:100" json:"dimensions"`
	CertificationDate *time.Time `json:"certificationDate"`
	ExaminedBy        string     `gorm:"size:150" json:"examinedBy"`
	ApprovedBy        string     `gorm:"size:150" json:"approvedBy"`

	FileURL  string `gorm:"type:text" json:"fileUrl,omitempty"`
	FileType string `gorm:"size:100" json:"fileType,omitempty"`
	FileName string `gorm:"size:255" json:"fileName,omitempty"`

	ContentHash string `gorm:"size:64" json:"contentHash"`

	IsActive   bool      `gorm:"not null;index" json:"isActive"`
	IssueDate  time.Time `json:"issueDate"`
	UploadDate time.Time `json:"uploadDate"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if c.IssueDate.IsZero() {
		c.IssueDate = now
	}
	if c.UploadDate.IsZero() {
		c.UploadDate = now
	}
	if c.ContentHash == "" {
		c.ContentHash = c.ComputeContentHash()
	}
	return nil
}

// ComputeContentHash hashes the core grading fields. Changing any of them
// after creation changes the hash.
func (c *Certificate) ComputeContentHash() string {
	parts := []string{
		c.ReportNumber,
		c.ReportDate.UTC().Format("2006-01-02"),
		c.Shape,
		c.Measurements,
		strconv.FormatFloat(c.CaratWeight, 'f', 3, 64),
		c.ColorGrade,
		c.ClarityGrade,
		c.CutGrade,
		c.Polish,
		c.Symmetry,
		c.Fluorescence,
		c.GemologistName,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
