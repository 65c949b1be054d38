package listing

import "strings"

// Listing is the canonical, fully-defaulted property record served by the API.
// Numeric fields are never null; optional attributes use pointers.
type Listing struct {
	ID            string       `json:"id"`
	MLSNumber     string       `json:"mlsNumber"`
	Price         int          `json:"price"` // 0 = price on request
	Address       string       `json:"address"`
	City          string       `json:"city"`
	State         string       `json:"state"`
	ZipCode       string       `json:"zipCode"`
	Bedrooms      int          `json:"bedrooms"`
	Bathrooms     float64      `json:"bathrooms"`
	HalfBathrooms int          `json:"halfBathrooms"`
	Sqft          int          `json:"sqft"`
	LotSize       *float64     `json:"lotSize"` // acres
	YearBuilt     *int         `json:"yearBuilt"`
	Stories       *int         `json:"stories"`
	PropertyType  PropertyType `json:"propertyType"`
	Status        Status       `json:"status"`
	Images        []string     `json:"images"`
	Lat           float64      `json:"lat"`
	Lng           float64      `json:"lng"`
	DaysOnMarket  int          `json:"daysOnMarket"`
	ListDate      string       `json:"listDate,omitempty"`
	Description   string       `json:"description"`
	Features      Features     `json:"features"`
	AgentID       string       `json:"agentId,omitempty"`
	AgentName     string       `json:"agentName,omitempty"`
	SoldPrice     *int         `json:"soldPrice,omitempty"`
	SoldDate      string       `json:"soldDate,omitempty"`
	Distance      *float64     `json:"distance,omitempty"` // miles, nearby results only
	Source        string       `json:"source"`
}

type Features struct {
	Garage     *int `json:"garage"`
	Pool       bool `json:"pool"`
	Waterfront bool `json:"waterfront"`
	Fireplace  *int `json:"fireplace"`
}

type PropertyType string

const (
	Houses      PropertyType = "houses"
	Condos      PropertyType = "condos"
	Townhomes   PropertyType = "townhomes"
	MultiFamily PropertyType = "multi-family"
)

type Status string

const (
	ForSale Status = "sale"
	Sold    Status = "sold"
	ForRent Status = "rent"
)

// PropertyTypeLabels maps the provider property-type codes to display labels.
var PropertyTypeLabels = map[string]string{
	"sfr": "Single Family Residential",
	"cnd": "Condominium",
	"twn": "Townhouse",
	"mfr": "Multi-Family",
	"lnd": "Land",
	"com": "Commercial",
}

var propertyTypeCodes = map[PropertyType]string{
	Houses:      "sfr",
	Condos:      "cnd",
	Townhomes:   "twn",
	MultiFamily: "mfr",
}

// Code returns the provider code for the canonical type.
func (t PropertyType) Code() string { return propertyTypeCodes[t] }

// Label is the human readable form used in synthesized descriptions.
func (t PropertyType) Label() string {
	switch t {
	case Condos:
		return "condominium"
	case Townhomes:
		return "townhome"
	case MultiFamily:
		return "multi-family home"
	default:
		return "single family home"
	}
}

// ParsePropertyType maps any upstream code or label onto the closed set.
// Unrecognized values are houses.
func ParsePropertyType(v string) PropertyType {
	s := strings.ToLower(strings.TrimSpace(v))
	switch s {
	case "cnd", "cc", "condo", "condos", "condominium":
		return Condos
	case "twn", "th", "townhouse", "townhome", "townhomes":
		return Townhomes
	case "mfr", "mf", "multi-family", "multifamily", "multi family":
		return MultiFamily
	case "", "sfr", "sf", "houses", "house", "single-family", "single family", "single family residential", "residential":
		return Houses
	}
	switch {
	case strings.Contains(s, "condo"):
		return Condos
	case strings.Contains(s, "town"):
		return Townhomes
	case strings.Contains(s, "multi"), strings.Contains(s, "duplex"), strings.Contains(s, "triplex"):
		return MultiFamily
	}
	return Houses
}

// IsPropertyType reports whether v names one of the canonical types or the
// code of one. Land and commercial codes have labels but no canonical type.
func IsPropertyType(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	for _, code := range propertyTypeCodes {
		if s == code {
			return true
		}
	}
	switch PropertyType(s) {
	case Houses, Condos, Townhomes, MultiFamily:
		return true
	}
	return false
}

// ParseStatus maps upstream status codes onto sale, sold or rent.
// Unrecognized values are sale.
func ParseStatus(v string) Status {
	s := strings.ToLower(strings.TrimSpace(v))
	switch s {
	case "sold", "s", "sld", "closed", "cls":
		return Sold
	case "rent", "rental", "rnt", "lease", "for rent", "for lease", "rnl":
		return ForRent
	}
	switch {
	case strings.Contains(s, "sold"), strings.Contains(s, "closed"):
		return Sold
	case strings.Contains(s, "rent"), strings.Contains(s, "lease"):
		return ForRent
	}
	return ForSale
}

// MassachusettsCities is the default city allow-list.
var MassachusettsCities = []string{
	"Boston", "Worcester", "Springfield", "Cambridge", "Lowell",
	"Brockton", "New Bedford", "Quincy", "Lynn", "Fall River",
	"Newton", "Lawrence", "Somerville", "Framingham", "Haverhill",
	"Waltham", "Malden", "Brookline", "Plymouth", "Medford",
	"Taunton", "Chicopee", "Weymouth", "Revere", "Peabody",
	"Methuen", "Barnstable", "Pittsfield", "Attleboro", "Everett",
	"Salem", "Westfield", "Leominster", "Fitchburg", "Beverly",
	"Holyoke", "Marlborough", "Woburn", "Amherst", "Chelsea",
	"Braintree", "Dartmouth", "Randolph", "Natick", "Gloucester",
	"Dracut", "Acton", "Andover", "Arlington", "Billerica",
	"Burlington", "Chelmsford", "Concord", "Lexington", "Medway",
	"Milford", "Reading", "Stoneham", "Tewksbury", "Wakefield",
	"Watertown", "Winchester", "Wilmington", "North Reading",
}
