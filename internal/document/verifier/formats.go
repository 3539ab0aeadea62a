package verifier

import (
	"regexp"
	"strings"
)

var (
	taxIDPattern           = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	taxRegistrationPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
	passportPattern        = regexp.MustCompile(`^[A-Z][0-9]{7}$`)
	drivingLicensePattern  = regexp.MustCompile(`^[A-Z]{2}[0-9]{2} ?[0-9]{11}$`)
)

// taxEntityCodes are the holder-type letters accepted in the fourth
// position of a 10-character tax ID.
const taxEntityCodes = "PCHFATBLJG"

const nationalIDLength = 12

// normalizeNationalID strips the spaces users type between digit groups.
func normalizeNationalID(number string) string {
	return strings.ReplaceAll(number, " ", "")
}

func validNationalID(number string) bool {
	digits := normalizeNationalID(number)
	if len(digits) != nationalIDLength {
		return false
	}
	return VerhoeffValid(digits)
}

// validTaxID accepts either the 10-character personal tax ID or the
// 15-character composite registration ID that embeds it.
func validTaxID(number string) bool {
	switch len(number) {
	case 10:
		return taxIDPattern.MatchString(number)
	case 15:
		return taxRegistrationPattern.MatchString(number)
	}
	return false
}

// taxEntityCode extracts the holder-type letter, reporting whether it is one
// of the recognised codes.
func taxEntityCode(number string) (byte, bool) {
	var code byte
	switch len(number) {
	case 10:
		code = number[3]
	case 15:
		code = number[5]
	default:
		return 0, false
	}
	return code, strings.IndexByte(taxEntityCodes, code) >= 0
}

func validPassport(number string) bool {
	return passportPattern.MatchString(number)
}

func validDrivingLicense(number string) bool {
	return drivingLicensePattern.MatchString(number)
}
