package canon

import (
	"regexp"
	"strings"

	"github.com/yourorg/listings-api/internal/listing"
)

var rePunct = regexp.MustCompile(`[^A-Za-z0-9\s]`)

// Address is a normalized postal address plus its parcel key.
type Address struct {
	Line1 string
	City  string
	State string
	Zip   string
	Key   string
}

// Canonicalize normalizes an address and computes a stable property key.
// Unit and suite designators are dropped so every unit of a parcel shares a key.
func Canonicalize(line1, city, state, zip string) Address {
	n1 := strings.ToUpper(strings.TrimSpace(line1))
	n1 = stripUnit(n1)
	n1 = collapseSpaces(rePunct.ReplaceAllString(n1, " "))
	n1 = abbreviateSuffix(n1)

	a := Address{
		Line1: n1,
		City:  collapseSpaces(rePunct.ReplaceAllString(strings.ToUpper(city), " ")),
		State: stateAbbrev(strings.ToUpper(strings.TrimSpace(state))),
		Zip:   trimZIP(zip),
	}
	if a.Line1 == "" || a.City == "" {
		return a
	}
	a.Key = strings.ToLower(a.Line1 + "|" + a.City + "|" + a.State + "|" + a.Zip)
	return a
}

// FromListing canonicalizes the street portion of a listing's formatted
// address together with its city, state and zip.
func FromListing(l listing.Listing) Address {
	street, _, _ := strings.Cut(l.Address, ",")
	return Canonicalize(street, l.City, l.State, l.ZipCode)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func trimZIP(z string) string {
	z = strings.TrimSpace(z)
	if len(z) >= 5 {
		return z[:5]
	}
	return z
}

var unitMarkers = []string{" APT ", " UNIT ", " STE ", " SUITE ", " #"}

func stripUnit(s string) string {
	up := " " + s + " "
	for _, t := range unitMarkers {
		if i := strings.Index(up, t); i >= 0 {
			return strings.TrimSpace(up[:i])
		}
	}
	return strings.TrimSpace(s)
}

// USPS suffix forms, applied to the last word only.
var suffixes = map[string]string{
	"STREET":    "ST",
	"ROAD":      "RD",
	"AVENUE":    "AVE",
	"BOULEVARD": "BLVD",
	"DRIVE":     "DR",
	"LANE":      "LN",
	"COURT":     "CT",
	"CIRCLE":    "CIR",
	"TERRACE":   "TER",
	"PLACE":     "PL",
	"PARKWAY":   "PKWY",
	"HIGHWAY":   "HWY",
	"SQUARE":    "SQ",
	"TURNPIKE":  "TPKE",
}

func abbreviateSuffix(s string) string {
	words := strings.Fields(s)
	if len(words) < 2 {
		return s
	}
	if v, ok := suffixes[words[len(words)-1]]; ok {
		words[len(words)-1] = v
	}
	return strings.Join(words, " ")
}

var states = map[string]string{
	"MASSACHUSETTS": "MA", "NEW HAMPSHIRE": "NH", "RHODE ISLAND": "RI",
	"CONNECTICUT": "CT", "VERMONT": "VT", "MAINE": "ME", "NEW YORK": "NY",
}

func stateAbbrev(s string) string {
	if s == "" {
		return "MA"
	}
	if v, ok := states[s]; ok {
		return v
	}
	return s
}
