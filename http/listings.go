package httpapi

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/yourorg/listings-api/internal/listing"
)

// ListingService is the part of the aggregation service the listing routes use.
type ListingService interface {
	Listings(ctx context.Context, f listing.Filters) (*listing.Page, error)
	Listing(ctx context.Context, id string) (*listing.Listing, error)
	Photos(ctx context.Context, id string) ([]string, error)
	Featured(ctx context.Context) ([]listing.Listing, error)
	Search(ctx context.Context, c listing.Criteria) ([]listing.Listing, error)
	Nearby(ctx context.Context, lat, lng, radius float64) ([]listing.Listing, error)
	Sold(ctx context.Context, f listing.SoldFilters) ([]listing.Listing, error)
}

type ListingsDeps struct {
	Service ListingService

	// SearchLimit wraps the advanced search route, usually a stricter rate limit.
	SearchLimit func(http.Handler) http.Handler
}

func RegisterListings(r chi.Router, d ListingsDeps) {
	r.Route("/listings", func(r chi.Router) {
		r.Get("/", d.list)
		r.Get("/featured/all", d.featured)
		r.Get("/nearby/{lat}/{lng}", d.nearby)
		r.Get("/sold/recent", d.sold)
		r.Group(func(r chi.Router) {
			if d.SearchLimit != nil {
				r.Use(d.SearchLimit)
			}
			r.Post("/search", d.search)
		})
		r.Get("/{mlsID}", d.byID)
		r.Get("/{mlsID}/photos", d.photos)
	})
}

func filtersFromQuery(q *query) listing.Filters {
	return listing.Filters{
		City:         q.str("city"),
		MinPrice:     q.integer("minPrice", 0),
		MaxPrice:     q.integer("maxPrice", 0),
		PropertyType: q.str("propertyType"),
		Bedrooms:     q.integer("bedrooms", 0),
		Bathrooms:    q.number("bathrooms", 0),
		Status:       q.str("status"),
		SqftMin:      q.integer("sqftMin", 0),
		SqftMax:      q.integer("sqftMax", 0),
		Page:         q.integer("page", 1),
		Limit:        q.integer("limit", listing.DefaultLimit),
		SortBy:       q.str("sortBy", "sort"),
	}
}

func (d ListingsDeps) list(w http.ResponseWriter, req *http.Request) {
	q := newQuery(req)
	f := filtersFromQuery(q)
	if err := q.err(); err != nil {
		writeServiceError(w, req, err)
		return
	}
	page, err := d.Service.Listings(req.Context(), f)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	render.JSON(w, req, map[string]any{"ok": true, "data": page.Items, "pagination": page.Pagination})
}

func (d ListingsDeps) featured(w http.ResponseWriter, req *http.Request) {
	ls, err := d.Service.Featured(req.Context())
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	render.JSON(w, req, map[string]any{"ok": true, "count": len(ls), "data": ls})
}

func (d ListingsDeps) byID(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "mlsID")
	l, err := d.Service.Listing(req.Context(), id)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	if l == nil {
		writeNotFound(w, req, id)
		return
	}
	render.JSON(w, req, map[string]any{"ok": true, "data": l})
}

func (d ListingsDeps) photos(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "mlsID")
	photos, err := d.Service.Photos(req.Context(), id)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	if photos == nil {
		writeNotFound(w, req, id)
		return
	}
	render.JSON(w, req, map[string]any{"ok": true, "count": len(photos), "data": photos})
}

func (d ListingsDeps) search(w http.ResponseWriter, req *http.Request) {
	var c listing.Criteria
	if err := render.DecodeJSON(req.Body, &c); err != nil {
		writeError(w, req, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	ls, err := d.Service.Search(req.Context(), c)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	render.JSON(w, req, map[string]any{"ok": true, "count": len(ls), "data": ls, "criteria": c})
}

func (d ListingsDeps) nearby(w http.ResponseWriter, req *http.Request) {
	q := newQuery(req)
	radius := q.number("radius", 0)
	lat, latErr := strconv.ParseFloat(chi.URLParam(req, "lat"), 64)
	lng, lngErr := strconv.ParseFloat(chi.URLParam(req, "lng"), 64)
	if latErr != nil || lngErr != nil || math.IsNaN(lat) || math.IsNaN(lng) {
		q.bad = append(q.bad, "latitude and longitude must be numbers")
	}
	if err := q.err(); err != nil {
		writeServiceError(w, req, err)
		return
	}
	ls, err := d.Service.Nearby(req.Context(), lat, lng, radius)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	render.JSON(w, req, map[string]any{
		"ok":       true,
		"count":    len(ls),
		"data":     ls,
		"location": map[string]float64{"latitude": lat, "longitude": lng, "radius": radius},
	})
}

func (d ListingsDeps) sold(w http.ResponseWriter, req *http.Request) {
	q := newQuery(req)
	f := listing.SoldFilters{
		City:         q.str("city"),
		MinPrice:     q.integer("minPrice", 0),
		MaxPrice:     q.integer("maxPrice", 0),
		PropertyType: q.str("propertyType"),
		DaysBack:     q.integer("daysBack", listing.DefaultSoldDays),
		Limit:        q.integer("limit", listing.DefaultSoldLimit),
	}
	if err := q.err(); err != nil {
		writeServiceError(w, req, err)
		return
	}
	ls, err := d.Service.Sold(req.Context(), f)
	if err != nil {
		writeServiceError(w, req, err)
		return
	}
	render.JSON(w, req, map[string]any{"ok": true, "count": len(ls), "data": ls, "filters": f})
}
