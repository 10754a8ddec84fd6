// Package gs1 implements GS1 identifier check-digit calculation and EPC
// URN well-formedness checks, adapted from the teacher's
// tasks/gs1_utils.go. The teacher used these to look names up in a
// Directus CMS by GLN/GTIN; here they back a narrower job: schema's
// rewriter uses IsWellFormedEPC to reject structurally malformed EPC URNs
// while restructuring epcList/parentID/childEPCs across schema versions.
// This is a well-formedness check on the wire format's own identifier
// scheme, not a correction of business data.
package gs1

import (
	"fmt"
	"strings"
)

// CalculateCheckDigit computes the GS1 mod-10 check digit for a numeric
// base identifier (no check digit included).
func CalculateCheckDigit(base string) string {
	if base == "" {
		return ""
	}
	sum := 0
	for i := len(base) - 1; i >= 0; i-- {
		digit := int(base[i] - '0')
		if digit < 0 || digit > 9 {
			continue
		}
		posFromRight := len(base) - 1 - i
		if posFromRight%2 == 0 {
			sum += digit * 3
		} else {
			sum += digit
		}
	}
	checkDigit := (10 - (sum % 10)) % 10
	return fmt.Sprintf("%d", checkDigit)
}

// ParseGLNFromSGLN extracts the 13-digit GLN (with check digit) from an
// SGLN URN or GS1 Digital Link. Returns "" if the input isn't recognized.
func ParseGLNFromSGLN(sglnURN string) string {
	if sglnURN == "" {
		return ""
	}
	if parts, found := strings.CutPrefix(sglnURN, "urn:epc:id:sgln:"); found {
		segments := strings.Split(parts, ".")
		if len(segments) < 2 {
			return ""
		}
		gln12 := normalizeToLength(segments[0]+segments[1], 12)
		return gln12 + CalculateCheckDigit(gln12)
	}
	for _, ai := range []string{"/414/", "/417/"} {
		if strings.Contains(sglnURN, ai) {
			parts := strings.Split(sglnURN, ai)
			if len(parts) > 1 {
				gln := parts[1]
				if idx := strings.Index(gln, "/"); idx > 0 {
					gln = gln[:idx]
				}
				if len(gln) == 13 {
					return gln
				}
			}
		}
	}
	return ""
}

// ParseGTINFromSGTIN extracts the 14-digit GTIN from an SGTIN URN, idpat,
// or GS1 Digital Link.
func ParseGTINFromSGTIN(sgtinURN string) string {
	if sgtinURN == "" {
		return ""
	}
	var parts string
	var found bool
	if parts, found = strings.CutPrefix(sgtinURN, "urn:epc:id:sgtin:"); !found {
		parts, found = strings.CutPrefix(sgtinURN, "urn:epc:idpat:sgtin:")
	}
	if found {
		segments := strings.Split(parts, ".")
		if len(segments) < 2 {
			return ""
		}
		companyPrefix := segments[0]
		indicatorAndItemRef := segments[1]
		indicator := "0"
		itemRef := indicatorAndItemRef
		if len(indicatorAndItemRef) > 0 {
			indicator = indicatorAndItemRef[0:1]
			itemRef = indicatorAndItemRef[1:]
		}
		gtin13 := normalizeToLength(indicator+companyPrefix+itemRef, 13)
		return gtin13 + CalculateCheckDigit(gtin13)
	}
	if strings.Contains(sgtinURN, "/01/") {
		parts := strings.Split(sgtinURN, "/01/")
		if len(parts) > 1 {
			gtin := parts[1]
			if idx := strings.Index(gtin, "/"); idx > 0 {
				gtin = gtin[:idx]
			}
			if len(gtin) >= 14 {
				return gtin[:14]
			}
		}
	}
	return ""
}

// ParseSSCCFromURN extracts the 18-digit SSCC from an SSCC URN or Digital
// Link.
func ParseSSCCFromURN(ssccURN string) string {
	if ssccURN == "" {
		return ""
	}
	if parts, found := strings.CutPrefix(ssccURN, "urn:epc:id:sscc:"); found {
		segments := strings.Split(parts, ".")
		if len(segments) < 2 {
			return ""
		}
		sscc17 := normalizeToLength(segments[0]+segments[1], 17)
		return sscc17 + CalculateCheckDigit(sscc17)
	}
	if strings.Contains(ssccURN, "/00/") {
		parts := strings.Split(ssccURN, "/00/")
		if len(parts) > 1 {
			sscc := parts[1]
			if idx := strings.Index(sscc, "/"); idx > 0 {
				sscc = sscc[:idx]
			}
			if len(sscc) >= 18 {
				return sscc[:18]
			}
		}
	}
	return ""
}

// recognizedEPCSchemes are the urn:epc:id:<scheme>: prefixes this package
// can validate the shape of. EPC schemes not in this list (grai, giai,
// gsrn, ...) are accepted as-is: the transcoder restructures documents, it
// does not enforce the full EPC Tag Data Standard.
var recognizedEPCSchemes = map[string]func(string) string{
	"sgtin": ParseGTINFromSGTIN,
	"sgln":  ParseGLNFromSGLN,
	"sscc":  ParseSSCCFromURN,
}

// IsWellFormedEPC reports whether epc is structurally valid: either not a
// urn:epc:id:<scheme>: form this package recognizes (left alone), or one
// that parses to a non-empty identifier with the expected digit count.
func IsWellFormedEPC(epc string) bool {
	if epc == "" {
		return false
	}
	rest, found := strings.CutPrefix(epc, "urn:epc:id:")
	if !found {
		return true // idpat and non-EPC-scheme identifiers pass through
	}
	scheme, _, found := strings.Cut(rest, ":")
	if !found {
		return false
	}
	parse, known := recognizedEPCSchemes[scheme]
	if !known {
		return true
	}
	return parse(epc) != ""
}

// StripSerialFromSGTIN removes the serial number segment from an SGTIN
// URN, returning just the company-prefix.item-reference base.
func StripSerialFromSGTIN(sgtinURN string) string {
	parts, found := strings.CutPrefix(sgtinURN, "urn:epc:id:sgtin:")
	if !found {
		return ""
	}
	segments := strings.Split(parts, ".")
	if len(segments) < 2 {
		return ""
	}
	return fmt.Sprintf("urn:epc:id:sgtin:%s.%s", segments[0], segments[1])
}

func normalizeToLength(s string, length int) string {
	if len(s) < length {
		return strings.Repeat("0", length-len(s)) + s
	}
	if len(s) > length {
		return s[:length]
	}
	return s
}
