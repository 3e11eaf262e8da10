package dto

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"anoa.com/gemcert/pkg/validator"
	playground "github.com/go-playground/validator/v10"
)

// Contract names the payload shape a submission was accepted under.
type Contract string

const (
	ContractStrict Contract = "strict"
	ContractLegacy Contract = "legacy"
)

var (
	reportNumberPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

	dateLayouts = []string{"2006-01-02", time.RFC3339Nano}

	strictValidator = newContractValidator(string(ContractStrict))
	legacyValidator = newContractValidator(string(ContractLegacy))
)

func newContractValidator(tag string) *playground.Validate {
	v := validator.New(tag)
	mustRegister(v, "isodate", func(fl playground.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := ParseDate(s)
		return err == nil
	})
	mustRegister(v, "carat", func(fl playground.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		if s == "" {
			return true
		}
		f, err := strconv.ParseFloat(s, 64)
		return err == nil && f > 0 && !math.IsInf(f, 0)
	})
	mustRegister(v, "reportnumber", func(fl playground.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return s == "" || reportNumberPattern.MatchString(s)
	})
	return v
}

func mustRegister(v *playground.Validate, tag string, fn playground.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Validate accepts the payload under the strict contract first and falls
// back to the legacy one. When both reject it, the returned
// *validator.ValidationError lists every field the strict contract rejected.
func (p *CertificatePayload) Validate() (Contract, error) {
	strictErr := strictValidator.Struct(p)
	if strictErr == nil {
		return ContractStrict, nil
	}
	if legacyValidator.Struct(p) == nil {
		return ContractLegacy, nil
	}
	return "", validator.FromError(strictErr)
}

// ValidReportNumber reports whether s is an acceptable lookup key.
func ValidReportNumber(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && len(s) <= 32 && reportNumberPattern.MatchString(s)
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// CanonicalReportNumber is the form report numbers are stored and cached under.
func CanonicalReportNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
