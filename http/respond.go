package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/yourorg/listings-api/internal/listing"
)

func writeError(w http.ResponseWriter, req *http.Request, status int, code string, detail any) {
	render.Status(req, status)
	body := map[string]any{"error": code}
	if detail != nil {
		body["detail"] = detail
	}
	render.JSON(w, req, body)
}

// writeServiceError maps a service error onto a response. Validation
// failures are 400 with every violation listed; anything else is a 500.
func writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	var ve *listing.ValidationError
	if errors.As(err, &ve) {
		render.Status(req, http.StatusBadRequest)
		render.JSON(w, req, map[string]any{
			"error":      "invalid_filter",
			"detail":     ve.Error(),
			"violations": ve.Violations,
		})
		return
	}
	writeError(w, req, http.StatusInternalServerError, "internal_error", err.Error())
}

func writeNotFound(w http.ResponseWriter, req *http.Request, id string) {
	writeError(w, req, http.StatusNotFound, "not_found", "listing "+strconv.Quote(id)+" not found")
}

// query reads typed values from a URL query and collects parse failures
// so they can be reported together.
type query struct {
	vals map[string][]string
	bad  []string
}

func newQuery(req *http.Request) *query {
	return &query{vals: req.URL.Query()}
}

func (q *query) str(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.first(k)); v != "" {
			return v
		}
	}
	return ""
}

func (q *query) first(k string) string {
	if vs := q.vals[k]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (q *query) integer(key string, def int) int {
	v := strings.TrimSpace(q.first(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		q.bad = append(q.bad, key+" must be an integer")
		return def
	}
	return i
}

func (q *query) number(key string, def float64) float64 {
	v := strings.TrimSpace(q.first(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		q.bad = append(q.bad, key+" must be a number")
		return def
	}
	return f
}

// err returns the collected parse failures as a validation error.
func (q *query) err() error {
	if len(q.bad) == 0 {
		return nil
	}
	return &listing.ValidationError{Violations: q.bad}
}
