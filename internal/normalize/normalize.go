// Package normalize reconciles raw listing records from the partner, legacy
// and mock shapes into listing.Listing values.
package normalize

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/yourorg/listings-api/internal/listing"
)

const (
	DefaultLat        = 42.6667
	DefaultLng        = -71.3020
	maxDescription    = 150
	sqftPerAcre       = 43560.0
	defaultState      = "MA"
	fallbackCityLabel = "Massachusetts"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

type Normalizer struct {
	PhotoCount    int
	PhotoTemplate string
	FallbackImage string
	Lat, Lng      float64
	Now           func() time.Time
	Logger        *slog.Logger
}

// New returns a Normalizer with the default photo template and regional centroid.
func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		PhotoCount:    DefaultPhotoCount,
		PhotoTemplate: DefaultPhotoTemplate,
		FallbackImage: DefaultFallbackImage,
		Lat:           DefaultLat,
		Lng:           DefaultLng,
		Now:           time.Now,
		Logger:        logger,
	}
}

// NormalizeAll normalizes every record, keeping order.
func (n *Normalizer) NormalizeAll(raws []map[string]any, source string) []listing.Listing {
	out := make([]listing.Listing, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Normalize(raw, source))
	}
	return out
}

// Normalize never fails. Missing attributes get their documented defaults.
func (n *Normalizer) Normalize(raw map[string]any, source string) listing.Listing {
	if raw == nil {
		raw = map[string]any{}
	}
	r := newRecord(raw)

	id := r.str(fID)
	if id == "" {
		id = uuid.NewString()
		n.logger().Warn("listing without identifier", "source", source, "id", id)
	}
	mls := r.str(fMLS)
	if mls == "" {
		mls = id
	}

	city := r.str(fCity)
	if city == "1" {
		city = "Boston"
	}
	state := r.str(fState)
	if state == "" {
		state = defaultState
	}
	zip := normalizeZip(r.str(fZip))
	pt := listing.ParsePropertyType(r.str(fPropertyType))

	l := listing.Listing{
		ID:           id,
		MLSNumber:    mls,
		Address:      formatAddress(streetLine(r), city, state, zip),
		City:         city,
		State:        state,
		ZipCode:      zip,
		PropertyType: pt,
		Status:       listing.ParseStatus(r.str(fStatus)),
		AgentID:      r.str(fAgentID),
		AgentName:    r.str(fAgentName),
		Source:       source,
	}
	if p, ok := r.integer(fPrice); ok && p > 0 {
		l.Price = p
	}
	if v, ok := r.integer(fBedrooms); ok && v > 0 {
		l.Bedrooms = v
	}
	if v, ok := r.num(fBathrooms); ok && v > 0 {
		l.Bathrooms = v
	}
	if v, ok := r.integer(fHalfBaths); ok && v > 0 {
		l.HalfBathrooms = v
	}
	if v, ok := r.integer(fSqft); ok && v > 0 {
		l.Sqft = v
	}
	l.LotSize = lotSize(r)
	if v, ok := r.integer(fYearBuilt); ok && v > 0 {
		l.YearBuilt = intPtr(v)
	}
	if v, ok := r.integer(fStories); ok && v > 0 {
		l.Stories = intPtr(v)
	}

	l.Lat, l.Lng = n.Lat, n.Lng
	if v, ok := r.num(fLat); ok && v != 0 {
		l.Lat = v
	}
	if v, ok := r.num(fLng); ok && v != 0 {
		l.Lng = v
	}

	if ds := r.str(fListDate); ds != "" {
		if t, ok := parseDate(ds); ok {
			l.ListDate = t.Format("2006-01-02")
			l.DaysOnMarket = daysBetween(t, n.now())
		} else {
			n.logger().Warn("unparseable listing date", "source", source, "id", id, "value", ds)
		}
	}

	l.Description = n.description(r.str(fRemarks), pt, city)
	l.Images = n.images(r, mls)
	l.Features = features(r)

	if v, ok := r.integer(fSoldPrice); ok && v > 0 {
		l.SoldPrice = intPtr(v)
	}
	if ds := r.str(fSoldDate); ds != "" {
		if t, ok := parseDate(ds); ok {
			l.SoldDate = t.Format("2006-01-02")
		}
	}
	return l
}

func (n *Normalizer) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

func (n *Normalizer) images(r record, mls string) []string {
	var imgs []string
	if v, ok := r.lookup(fImages); ok {
		imgs = imagesFrom(v)
	}
	if len(imgs) == 0 {
		count := n.PhotoCount
		if count <= 0 {
			count = DefaultPhotoCount
		}
		tmpl := n.PhotoTemplate
		if tmpl == "" {
			tmpl = DefaultPhotoTemplate
		}
		imgs = PhotoURLs(tmpl, mls, count)
	}
	fallback := n.FallbackImage
	if fallback == "" {
		fallback = DefaultFallbackImage
	}
	return append(imgs, fallback)
}

func (n *Normalizer) description(remarks string, pt listing.PropertyType, city string) string {
	text := remarks
	if strings.Contains(text, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		if city == "" {
			city = fallbackCityLabel
		}
		return fmt.Sprintf("Beautiful %s in %s.", pt.Label(), city)
	}
	return truncate(text, maxDescription)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}

func streetLine(r record) string {
	num := r.str(fStreetNumber)
	name := r.str(fStreetName)
	if suffix := r.str(fStreetSuffix); suffix != "" && name != "" {
		name += " " + suffix
	}
	switch {
	case num != "" && name != "":
		return num + " " + name
	case name != "":
		return name
	case num != "":
		return num
	}
	return r.str(fUnparsedAddress)
}

// formatAddress joins "street, city, state zip", omitting missing parts.
func formatAddress(street, city, state, zip string) string {
	tail := strings.TrimSpace(state + " " + zip)
	parts := make([]string, 0, 3)
	for _, p := range []string{street, city, tail} {
		p = strings.Trim(strings.TrimSpace(p), ",")
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func normalizeZip(z string) string {
	z = strings.TrimSpace(z)
	if z == "" {
		return ""
	}
	if len(z) < 5 && strings.Trim(z, "0123456789") == "" {
		return strings.Repeat("0", 5-len(z)) + z
	}
	return z
}

func lotSize(r record) *float64 {
	if v, ok := r.num(fLotAcres); ok && v > 0 {
		return floatPtr(math.Round(v*100) / 100)
	}
	if v, ok := r.num(fLotSqft); ok && v > 0 {
		return floatPtr(math.Round(v/sqftPerAcre*100) / 100)
	}
	return nil
}

func features(r record) listing.Features {
	var f listing.Features
	if v, ok := r.integer(fGarage); ok && v >= 0 {
		f.Garage = intPtr(v)
	}
	if v, ok := r.integer(fFireplace); ok && v >= 0 {
		f.Fireplace = intPtr(v)
	}
	f.Pool = r.flag(fPool)
	f.Waterfront = r.flag(fWaterfront)
	return f
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// daysBetween counts whole days from listed to now, never negative.
func daysBetween(listed, now time.Time) int {
	d := int(now.Sub(listed).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
