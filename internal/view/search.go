// Package view holds the page-level presentation logic that runs on data
// the API already returned: filtering, sorting, paging and detail lookup.
//
// Search filters the full available-cars list in memory. That does not
// scale past a few thousand listings; server-side filtering and pagination
// on the API are a prerequisite for production traffic.
package view

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/carshare-web/internal/model"
)

// SortOrder names a search ordering.
type SortOrder string

const (
	SortRelevance SortOrder = ""
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortYearDesc  SortOrder = "year_desc"
	SortNewest    SortOrder = "newest"
)

// DefaultPageSize is used when the request does not ask for one.
const DefaultPageSize = 12

// Filter is the search page's local filter state.
type Filter struct {
	MinPrice float64   `json:"min_price,omitempty"`
	MaxPrice float64   `json:"max_price,omitempty"`
	CarType  string    `json:"type,omitempty"`
	Feature  string    `json:"feature,omitempty"`
	Make     string    `json:"make,omitempty"`
	Location string    `json:"location,omitempty"`
	Seats    int       `json:"seats,omitempty"`
	Sort     SortOrder `json:"sort,omitempty"`
	Page     int       `json:"page,omitempty"`
	PageSize int       `json:"page_size,omitempty"`
}

// ParseFilter reads the filter from query parameters. Unparseable numbers
// are ignored rather than rejected.
func ParseFilter(q url.Values) Filter {
	f := Filter{
		CarType:  strings.TrimSpace(q.Get("type")),
		Feature:  strings.TrimSpace(q.Get("feature")),
		Make:     strings.TrimSpace(q.Get("make")),
		Location: strings.TrimSpace(q.Get("location")),
		Sort:     SortOrder(q.Get("sort")),
	}
	if v, err := strconv.ParseFloat(q.Get("min_price"), 64); err == nil && v > 0 {
		f.MinPrice = v
	}
	if v, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil && v > 0 {
		f.MaxPrice = v
	}
	if v, err := strconv.Atoi(q.Get("seats")); err == nil && v > 0 {
		f.Seats = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		f.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 && v <= 100 {
		f.PageSize = v
	}
	return f
}

// Match reports whether c passes every set filter.
func (f Filter) Match(c model.Car) bool {
	if f.MinPrice > 0 && c.DailyRate < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && c.DailyRate > f.MaxPrice {
		return false
	}
	if f.CarType != "" && !strings.EqualFold(c.CarType, f.CarType) {
		return false
	}
	if f.Make != "" && !strings.EqualFold(c.Make, f.Make) {
		return false
	}
	if f.Feature != "" && !c.HasFeature(f.Feature) {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(c.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.Seats > 0 && c.Seats < f.Seats {
		return false
	}
	return true
}

// Page is one page of search results plus the facets of the whole list.
type Page struct {
	Cars       []model.Car `json:"cars"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	Makes      []string    `json:"makes"`
	Types      []string    `json:"types"`
	Features   []string    `json:"features"`
}

// Search filters, sorts and pages cars. The input slice is not modified.
func Search(cars []model.Car, f Filter) Page {
	matched := make([]model.Car, 0, len(cars))
	for _, c := range cars {
		if f.Match(c) {
			matched = append(matched, c)
		}
	}
	sortCars(matched, f.Sort)

	size := f.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	totalPages := (len(matched) + size - 1) / size
	// Pages past the end are empty; the bound check comes first so a huge
	// page number cannot overflow the offset.
	start := len(matched)
	if page-1 < totalPages {
		start = (page - 1) * size
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return Page{
		Cars:       matched[start:end],
		Total:      len(matched),
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		Makes:      facet(cars, func(c model.Car) []string { return []string{c.Make} }),
		Types:      facet(cars, func(c model.Car) []string { return []string{c.CarType} }),
		Features:   facet(cars, func(c model.Car) []string { return c.Features }),
	}
}

func sortCars(cars []model.Car, order SortOrder) {
	switch order {
	case SortPriceAsc:
		sort.SliceStable(cars, func(i, j int) bool { return cars[i].DailyRate < cars[j].DailyRate })
	case SortPriceDesc:
		sort.SliceStable(cars, func(i, j int) bool { return cars[i].DailyRate > cars[j].DailyRate })
	case SortYearDesc:
		sort.SliceStable(cars, func(i, j int) bool { return cars[i].Year > cars[j].Year })
	case SortNewest:
		sort.SliceStable(cars, func(i, j int) bool { return cars[i].ID > cars[j].ID })
	}
}

// facet returns the distinct non-empty values, case-insensitively, sorted.
func facet(cars []model.Car, values func(model.Car) []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, c := range cars {
		for _, v := range values(c) {
			v = strings.TrimSpace(v)
			k := strings.ToLower(v)
			if v == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
