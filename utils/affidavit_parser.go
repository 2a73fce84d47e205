package utils

import (
	"regexp"
	"strings"

	"github.com/Aashish23092/affidavit-ocr/dto"
)

const (
	NamePrimaryConfidence  = 0.75
	NameFallbackConfidence = 0.5
	AgeConfidence          = 0.85
	AddressConfidence      = 0.8
	MobileConfidence       = 0.75

	NameReasonPrimary    = "name and parent extracted from affidavit intro"
	NameReasonFallback   = "only name extracted; parent missing"
	ParentReasonMissing  = "parent not present in affidavit intro"
	NameReasonNotFound   = "name not reliably detected"
	AgeReasonFound       = "age extracted from declaration"
	AgeReasonNotFound    = "age not detected"
	AgeReasonNotNumeric  = "age digits could not be parsed"
	AddressReasonFound   = "address extracted from residence clause"
	AddressReasonMissing = "address not detected"
	MobileReasonFound    = "mobile number pattern matched"
	MobileReasonMissing  = "mobile number not detected"
)

// Name segments are 3 to 40 characters with no digit, comma or danda.
var (
	nameParentRegex = regexp.MustCompile(`मैं\s+([^\p{Nd},।]{3,40})\s+(पुत्र|पत्नी|पुत्री)\s+([^\p{Nd},।]{3,40})`)
	nameOnlyRegex   = regexp.MustCompile(`मैं\s+([^\p{Nd},।]{3,40})`)
	ageRegex        = regexp.MustCompile(`आयु\s*(\p{Nd}+)\s*वर्ष`)
	addressRegex    = regexp.MustCompile(`(जो|निवासी)\s+(.+?)(?:हूँ|हूं|,|\.)`)
)

// RE2's \b only knows ASCII word characters, so the number is fenced by
// explicit Unicode letter, mark and digit guards instead.
var mobileRegex = regexp.MustCompile(`(?:^|[^\p{L}\p{M}\p{N}_])([6-9][0-9]{9})(?:[^\p{L}\p{M}\p{N}_]|$)`)

// ExtractNameAndParent reads the declarant and the father or spouse from
// the "मैं <name> पुत्र/पत्नी/पुत्री <parent>" opening of the affidavit.
// When the relationship clause is missing only the name is returned.
func ExtractNameAndParent(text string) (name, parent dto.FieldExtraction[string]) {
	t := collapseSpaces(text)

	if m := nameParentRegex.FindStringSubmatch(t); m != nil {
		n, p := strings.TrimSpace(m[1]), strings.TrimSpace(m[3])
		if n != "" && p != "" {
			return dto.Found(n, NamePrimaryConfidence, NameReasonPrimary),
				dto.Found(p, NamePrimaryConfidence, NameReasonPrimary)
		}
	}

	if m := nameOnlyRegex.FindStringSubmatch(t); m != nil {
		if n := strings.TrimSpace(m[1]); n != "" {
			return dto.Found(n, NameFallbackConfidence, NameReasonFallback),
				dto.Absent[string](ParentReasonMissing)
		}
	}

	return dto.Absent[string](NameReasonNotFound), dto.Absent[string](NameReasonNotFound)
}

// ExtractAge reads "आयु <digits> वर्ष".
func ExtractAge(text string) dto.FieldExtraction[int] {
	m := ageRegex.FindStringSubmatch(text)
	if m == nil {
		return dto.Absent[int](AgeReasonNotFound)
	}
	age, err := AtoiDevanagari(m[1])
	if err != nil {
		return dto.Absent[int](AgeReasonNotNumeric)
	}
	return dto.Found(age, AgeConfidence, AgeReasonFound)
}

// ExtractAddress returns the span after "जो" or "निवासी" up to the first
// "हूँ", "हूं", comma or period.
func ExtractAddress(text string) dto.FieldExtraction[string] {
	m := addressRegex.FindStringSubmatch(text)
	if m == nil {
		return dto.Absent[string](AddressReasonMissing)
	}
	addr := strings.TrimSpace(m[2])
	if addr == "" {
		return dto.Absent[string](AddressReasonMissing)
	}
	return dto.Found(addr, AddressConfidence, AddressReasonFound)
}

// ExtractMobile returns the first ten digit Indian mobile number.
func ExtractMobile(text string) dto.FieldExtraction[string] {
	m := mobileRegex.FindStringSubmatch(text)
	if m == nil {
		return dto.Absent[string](MobileReasonMissing)
	}
	return dto.Found(m[1], MobileConfidence, MobileReasonFound)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
