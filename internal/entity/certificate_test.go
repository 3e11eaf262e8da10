package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeContentHashTracksGradingFields(t *testing.T) {
	cert := Certificate{
		ReportNumber: "G1234567890",
		ReportDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Shape:        "Round",
		Measurements: "6.5 x 6.5 x 4.0",
		CaratWeight:  1.0,
		ColorGrade:   "G",
		ClarityGrade: "VS1",
	}

	original := cert.ComputeContentHash()
	assert.Len(t, original, 64)
	assert.Equal(t, original, cert.ComputeContentHash())

	cert.Comments = "narrative text is not part of the hash"
	assert.Equal(t, original, cert.ComputeContentHash())

	cert.CaratWeight = 1.01
	assert.NotEqual(t, original, cert.ComputeContentHash())
}

func TestComputeContentHashIgnoresTimezone(t *testing.T) {
	utc := Certificate{ReportNumber: "G1", ReportDate: time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)}
	local := utc
	local.ReportDate = utc.ReportDate.In(time.FixedZone("WIB", 7*3600))

	assert.Equal(t, utc.ComputeContentHash(), local.ComputeContentHash())
}
