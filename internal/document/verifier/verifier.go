// Package verifier scores the authenticity of a submitted document from its
// number and file metadata. It is pure: no I/O, no clock.
package verifier

import (
	"fmt"
	"strings"

	"trustline/internal/document/models"
)

// DefaultThreshold is the confidence at which a document is auto-verified.
const DefaultThreshold = 70

// MaxFileSize bounds the file integrity check (10 MiB).
const MaxFileSize int64 = 10 << 20

const (
	weightChecksum = 50
	weightFormat   = 40
	weightFileSize = 20
	weightFileType = 20
)

// Check names reported in Result.Checks.
const (
	CheckNationalIDChecksum = "national_id_checksum"
	CheckTaxIDFormat        = "tax_id_format"
	CheckTaxEntityCode      = "tax_id_entity_code"
	CheckPassportFormat     = "passport_format"
	CheckLicenseFormat      = "driving_license_format"
	CheckFileSize           = "file_size"
	CheckFileType           = "file_type"
)

var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
}

// File is the metadata the verifier sees; it never reads file content.
type File struct {
	Size     int64
	MimeType string
}

type Input struct {
	Type   models.DocumentType
	Number string
	File   *File
}

type Result struct {
	Passed     bool
	Confidence int
	Checks     []models.Check
}

// AutoVerification converts the result into its persisted form.
func (r Result) AutoVerification() models.AutoVerification {
	return models.AutoVerification{
		Attempted:  true,
		Passed:     r.Passed,
		Confidence: r.Confidence,
		Checks:     r.Checks,
	}
}

type Verifier struct {
	threshold int
}

type Option func(*Verifier)

// WithThreshold overrides the auto-verify threshold. Values outside [0,100]
// are ignored.
func WithThreshold(threshold int) Option {
	return func(v *Verifier) {
		if threshold >= 0 && threshold <= 100 {
			v.threshold = threshold
		}
	}
}

func New(opts ...Option) *Verifier {
	v := &Verifier{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Verifier) Threshold() int {
	return v.threshold
}

// Verify runs the rules that apply to in.Type and sums the weights of the
// checks that passed.
func (v *Verifier) Verify(in Input) Result {
	number := models.NormalizeNumber(in.Number)
	var (
		checks     []models.Check
		confidence int
	)
	add := func(name string, passed bool, weight int, detail string) {
		checks = append(checks, models.Check{Name: name, Passed: passed, Detail: detail})
		if passed {
			confidence += weight
		}
	}

	if number != "" {
		switch in.Type {
		case models.TypeNationalID:
			ok := validNationalID(number)
			add(CheckNationalIDChecksum, ok, weightChecksum, detailFor(ok, "12 digits with valid check digit"))
		case models.TypeTaxID:
			ok := validTaxID(number)
			add(CheckTaxIDFormat, ok, weightFormat, detailFor(ok, "tax ID format"))
			// The entity code is informational and carries no weight.
			if ok {
				code, known := taxEntityCode(number)
				checks = append(checks, models.Check{
					Name:   CheckTaxEntityCode,
					Passed: known,
					Detail: fmt.Sprintf("entity code %q", string(code)),
				})
			}
		case models.TypePassport:
			ok := validPassport(number)
			add(CheckPassportFormat, ok, weightFormat, detailFor(ok, "one letter followed by 7 digits"))
		case models.TypeDrivingLicense:
			ok := validDrivingLicense(number)
			add(CheckLicenseFormat, ok, weightFormat, detailFor(ok, "state code, RTO code and 11 digits"))
		}
	}

	if in.File != nil {
		sizeOK := in.File.Size > 0 && in.File.Size <= MaxFileSize
		add(CheckFileSize, sizeOK, weightFileSize, fmt.Sprintf("%d bytes", in.File.Size))

		mime := strings.ToLower(strings.TrimSpace(in.File.MimeType))
		_, typeOK := allowedMimeTypes[mime]
		add(CheckFileType, typeOK, weightFileType, mime)
	}

	confidence = min(confidence, 100)
	return Result{
		Passed:     confidence >= v.threshold,
		Confidence: confidence,
		Checks:     checks,
	}
}

func detailFor(ok bool, rule string) string {
	if ok {
		return rule
	}
	return "expected " + rule
}
