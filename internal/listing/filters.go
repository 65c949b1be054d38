package listing

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultLimit     = 12
	MaxLimit         = 100
	DefaultSoldDays  = 90
	DefaultSoldLimit = 20
	maxRooms         = 20
	maxRadiusMiles   = 100
)

// Massachusetts bounding box used to validate nearby coordinates.
const (
	MinLat = 41.2
	MaxLat = 42.9
	MinLng = -73.5
	MaxLng = -69.9
)

// SortKeys lists the accepted sortBy values. Empty means newest.
var SortKeys = []string{"price-low-high", "price-high-low", "newest", "bedrooms", "bathrooms", "sqft"}

// Filters is the basic listing query. Zero values mean "no constraint";
// Bedrooms and Bathrooms are minimums.
type Filters struct {
	City         string  `json:"city,omitempty"`
	MinPrice     int     `json:"minPrice,omitempty"`
	MaxPrice     int     `json:"maxPrice,omitempty"`
	PropertyType string  `json:"propertyType,omitempty"`
	Bedrooms     int     `json:"bedrooms,omitempty"`
	Bathrooms    float64 `json:"bathrooms,omitempty"`
	Status       string  `json:"status,omitempty"`
	SqftMin      int     `json:"sqftMin,omitempty"`
	SqftMax      int     `json:"sqftMax,omitempty"`
	Page         int     `json:"page,omitempty"`
	Limit        int     `json:"limit,omitempty"`
	SortBy       string  `json:"sortBy,omitempty"`
}

// Criteria is the advanced search superset of Filters.
type Criteria struct {
	Filters
	Keywords     string  `json:"keywords,omitempty"`
	ZipCode      string  `json:"zipCode,omitempty"`
	YearBuiltMin int     `json:"yearBuiltMin,omitempty"`
	YearBuiltMax int     `json:"yearBuiltMax,omitempty"`
	LotSizeMin   float64 `json:"lotSizeMin,omitempty"`
	LotSizeMax   float64 `json:"lotSizeMax,omitempty"`
	HasPool      bool    `json:"hasPool,omitempty"`
	HasGarage    bool    `json:"hasGarage,omitempty"`
	Waterfront   bool    `json:"waterfront,omitempty"`
}

type SoldFilters struct {
	City         string `json:"city,omitempty"`
	MinPrice     int    `json:"minPrice,omitempty"`
	MaxPrice     int    `json:"maxPrice,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`
	DaysBack     int    `json:"daysBack,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// ValidationError carries every violated rule of a rejected query.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid filter: " + strings.Join(e.Violations, "; ")
}

type violations []string

func (v *violations) addf(format string, args ...any) {
	*v = append(*v, fmt.Sprintf(format, args...))
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Violations: v}
}

// Validate checks the filters against the business rules. allowedCities may be
// empty to accept any city.
func (f Filters) Validate(allowedCities []string) error {
	var v violations
	f.check(&v, allowedCities)
	return v.err()
}

func (f Filters) check(v *violations, allowedCities []string) {
	checkPrice(v, f.MinPrice, f.MaxPrice)
	checkCity(v, f.City, allowedCities)
	checkType(v, f.PropertyType)
	if f.Bedrooms < 0 || f.Bedrooms > maxRooms {
		v.addf("bedrooms must be between 0 and %d", maxRooms)
	}
	if !finite(f.Bathrooms) || f.Bathrooms < 0 || f.Bathrooms > maxRooms {
		v.addf("bathrooms must be between 0 and %d", maxRooms)
	}
	if f.SqftMin < 0 || f.SqftMax < 0 {
		v.addf("square footage cannot be negative")
	}
	if f.SqftMin > 0 && f.SqftMax > 0 && f.SqftMin > f.SqftMax {
		v.addf("minimum square footage cannot be greater than maximum square footage")
	}
	if f.Status != "" && !isStatus(f.Status) {
		v.addf("unknown status %q", f.Status)
	}
	if f.Page < 0 {
		v.addf("page must be positive")
	}
	if f.Limit < 0 {
		v.addf("limit must be positive")
	}
	if f.SortBy != "" && !isSortKey(f.SortBy) {
		v.addf("unknown sort %q", f.SortBy)
	}
}

func (c Criteria) Validate(allowedCities []string) error {
	var v violations
	c.Filters.check(&v, allowedCities)
	if c.YearBuiltMin < 0 || c.YearBuiltMax < 0 {
		v.addf("year built cannot be negative")
	}
	if c.YearBuiltMin > 0 && c.YearBuiltMax > 0 && c.YearBuiltMin > c.YearBuiltMax {
		v.addf("minimum year built cannot be greater than maximum year built")
	}
	if c.LotSizeMin < 0 || c.LotSizeMax < 0 {
		v.addf("lot size cannot be negative")
	}
	if c.LotSizeMin > 0 && c.LotSizeMax > 0 && c.LotSizeMin > c.LotSizeMax {
		v.addf("minimum lot size cannot be greater than maximum lot size")
	}
	return v.err()
}

func (s SoldFilters) Validate(allowedCities []string) error {
	var v violations
	checkPrice(&v, s.MinPrice, s.MaxPrice)
	checkCity(&v, s.City, allowedCities)
	checkType(&v, s.PropertyType)
	if s.DaysBack < 0 {
		v.addf("daysBack must be positive")
	}
	if s.Limit < 0 {
		v.addf("limit must be positive")
	}
	return v.err()
}

// ValidateNearby checks that the point lies inside Massachusetts and the
// radius is in (0, 100] miles.
func ValidateNearby(lat, lng, radius float64) error {
	var v violations
	if !finite(lat) || !finite(lng) || lat < MinLat || lat > MaxLat || lng < MinLng || lng > MaxLng {
		v.addf("coordinates must be within Massachusetts")
	}
	if !finite(radius) || radius <= 0 || radius > maxRadiusMiles {
		v.addf("radius must be between 0 and %d miles", maxRadiusMiles)
	}
	return v.err()
}

// ValidateCity is used by the market routes that only take a city.
func ValidateCity(city string, allowedCities []string) error {
	var v violations
	checkCity(&v, city, allowedCities)
	return v.err()
}

func checkPrice(v *violations, minPrice, maxPrice int) {
	if minPrice < 0 || maxPrice < 0 {
		v.addf("price cannot be negative")
	}
	if minPrice > 0 && maxPrice > 0 && minPrice > maxPrice {
		v.addf("minimum price cannot be greater than maximum price")
	}
}

func checkCity(v *violations, city string, allowed []string) {
	if city == "" || len(allowed) == 0 {
		return
	}
	if !IsValidCity(city, allowed) {
		v.addf("invalid Massachusetts city %q", city)
	}
}

func checkType(v *violations, pt string) {
	if pt != "" && !IsPropertyType(pt) {
		v.addf("unknown property type %q", pt)
	}
}

// finite reports whether f is neither NaN nor an infinity.
func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// IsValidCity reports whether city is in the allow-list, ignoring case.
func IsValidCity(city string, allowed []string) bool {
	c := strings.TrimSpace(city)
	for _, a := range allowed {
		if strings.EqualFold(a, c) {
			return true
		}
	}
	return false
}

func isSortKey(s string) bool {
	for _, k := range SortKeys {
		if k == s {
			return true
		}
	}
	return false
}

func isStatus(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sale", "sold", "rent", "for_sale", "for sale", "active", "closed", "lease":
		return true
	}
	return false
}

// Match reports whether l satisfies every set filter. Pagination and sort are ignored.
func (f Filters) Match(l Listing) bool {
	if f.City != "" && !strings.EqualFold(strings.TrimSpace(f.City), l.City) {
		return false
	}
	if f.MinPrice > 0 && l.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && l.Price > f.MaxPrice {
		return false
	}
	if f.PropertyType != "" && ParsePropertyType(f.PropertyType) != l.PropertyType {
		return false
	}
	if f.Bedrooms > 0 && l.Bedrooms < f.Bedrooms {
		return false
	}
	if f.Bathrooms > 0 && l.Bathrooms < f.Bathrooms {
		return false
	}
	if f.Status != "" && ParseStatus(f.Status) != l.Status {
		return false
	}
	if f.SqftMin > 0 && l.Sqft < f.SqftMin {
		return false
	}
	if f.SqftMax > 0 && l.Sqft > f.SqftMax {
		return false
	}
	return true
}

func (c Criteria) Match(l Listing) bool {
	if !c.Filters.Match(l) {
		return false
	}
	if c.ZipCode != "" && !strings.HasPrefix(l.ZipCode, strings.TrimSpace(c.ZipCode)) {
		return false
	}
	if c.YearBuiltMin > 0 && (l.YearBuilt == nil || *l.YearBuilt < c.YearBuiltMin) {
		return false
	}
	if c.YearBuiltMax > 0 && (l.YearBuilt == nil || *l.YearBuilt > c.YearBuiltMax) {
		return false
	}
	if c.LotSizeMin > 0 && (l.LotSize == nil || *l.LotSize < c.LotSizeMin) {
		return false
	}
	if c.LotSizeMax > 0 && (l.LotSize == nil || *l.LotSize > c.LotSizeMax) {
		return false
	}
	if c.HasPool && !l.Features.Pool {
		return false
	}
	if c.HasGarage && (l.Features.Garage == nil || *l.Features.Garage == 0) {
		return false
	}
	if c.Waterfront && !l.Features.Waterfront {
		return false
	}
	if kw := strings.Fields(strings.ToLower(c.Keywords)); len(kw) > 0 {
		hay := strings.ToLower(strings.Join([]string{l.Address, l.City, l.ZipCode, l.MLSNumber, l.Description}, " "))
		for _, w := range kw {
			if !strings.Contains(hay, w) {
				return false
			}
		}
	}
	return true
}

func (s SoldFilters) Match(l Listing) bool {
	if l.Status != Sold {
		return false
	}
	f := Filters{City: s.City, MinPrice: s.MinPrice, MaxPrice: s.MaxPrice, PropertyType: s.PropertyType}
	return f.Match(l)
}

// Filter returns the listings matching pred, preserving order.
func Filter(ls []Listing, pred func(Listing) bool) []Listing {
	out := make([]Listing, 0, len(ls))
	for _, l := range ls {
		if pred(l) {
			out = append(out, l)
		}
	}
	return out
}
