package view

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carshare-web/internal/model"
)

func fleet() []model.Car {
	return []model.Car{
		{ID: 1, Make: "Toyota", CarType: "sedan", DailyRate: 40, Year: 2019, Seats: 5, Location: "Austin, TX", Features: []string{"Bluetooth"}},
		{ID: 2, Make: "Tesla", CarType: "electric", DailyRate: 120, Year: 2023, Seats: 5, Location: "Dallas, TX", Features: []string{"GPS", "Autopilot"}},
		{ID: 3, Make: "Ford", CarType: "truck", DailyRate: 75, Year: 2021, Seats: 3, Location: "Austin, TX", Features: []string{"gps"}},
		{ID: 4, Make: "toyota", CarType: "suv", DailyRate: 75, Year: 2022, Seats: 7, Location: "Houston, TX"},
	}
}

func ids(cars []model.Car) []int64 {
	out := make([]int64, 0, len(cars))
	for _, c := range cars {
		out = append(out, c.ID)
	}
	return out
}

func TestParseFilter(t *testing.T) {
	q := url.Values{
		"min_price": {"50"},
		"max_price": {"abc"},
		"type":      {" suv "},
		"seats":     {"4"},
		"sort":      {"price_desc"},
		"page":      {"2"},
		"page_size": {"500"},
	}
	f := ParseFilter(q)
	assert.Equal(t, Filter{MinPrice: 50, CarType: "suv", Seats: 4, Sort: SortPriceDesc, Page: 2}, f)
}

func TestFilter_Match(t *testing.T) {
	cars := fleet()
	tests := []struct {
		name     string
		filter   Filter
		expected []int64
	}{
		{name: "no filter", filter: Filter{}, expected: []int64{1, 2, 3, 4}},
		{name: "price range", filter: Filter{MinPrice: 50, MaxPrice: 100}, expected: []int64{3, 4}},
		{name: "type case-insensitive", filter: Filter{CarType: "SEDAN"}, expected: []int64{1}},
		{name: "make case-insensitive", filter: Filter{Make: "Toyota"}, expected: []int64{1, 4}},
		{name: "feature case-insensitive", filter: Filter{Feature: "GPS"}, expected: []int64{2, 3}},
		{name: "location substring", filter: Filter{Location: "austin"}, expected: []int64{1, 3}},
		{name: "minimum seats", filter: Filter{Seats: 6}, expected: []int64{4}},
		{name: "nothing matches", filter: Filter{Make: "Lada"}, expected: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []model.Car
			for _, c := range cars {
				if tt.filter.Match(c) {
					got = append(got, c)
				}
			}
			assert.Equal(t, tt.expected, ids(got))
		})
	}
}

func TestSearch_Sort(t *testing.T) {
	tests := []struct {
		order    SortOrder
		expected []int64
	}{
		{SortRelevance, []int64{1, 2, 3, 4}},
		{SortPriceAsc, []int64{1, 3, 4, 2}},
		{SortPriceDesc, []int64{2, 3, 4, 1}},
		{SortYearDesc, []int64{2, 4, 3, 1}},
		{SortNewest, []int64{4, 3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			p := Search(fleet(), Filter{Sort: tt.order})
			assert.Equal(t, tt.expected, ids(p.Cars))
		})
	}
}

func TestSearch_DoesNotModifyInput(t *testing.T) {
	cars := fleet()
	Search(cars, Filter{Sort: SortPriceDesc})
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(cars))
}

func TestSearch_Paginates(t *testing.T) {
	tests := []struct {
		name       string
		filter     Filter
		expected   []int64
		page       int
		pageSize   int
		totalPages int
	}{
		{name: "second page", filter: Filter{PageSize: 3, Page: 2}, expected: []int64{4}, page: 2, pageSize: 3, totalPages: 2},
		{name: "past the last page", filter: Filter{PageSize: 3, Page: 9}, expected: []int64{}, page: 9, pageSize: 3, totalPages: 2},
		{name: "defaults", filter: Filter{}, expected: []int64{1, 2, 3, 4}, page: 1, pageSize: DefaultPageSize, totalPages: 1},
		{
			name:       "page number near max int",
			filter:     ParseFilter(url.Values{"page": {"9223372036854775807"}}),
			expected:   []int64{},
			page:       math.MaxInt,
			pageSize:   DefaultPageSize,
			totalPages: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Page
			require.NotPanics(t, func() { p = Search(fleet(), tt.filter) })
			assert.ElementsMatch(t, tt.expected, ids(p.Cars))
			assert.Equal(t, 4, p.Total)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.pageSize, p.PageSize)
			assert.Equal(t, tt.totalPages, p.TotalPages)
		})
	}
}

func TestSearch_FacetsCoverWholeList(t *testing.T) {
	p := Search(fleet(), Filter{Make: "Ford"})
	assert.Equal(t, []int64{3}, ids(p.Cars))
	assert.Equal(t, []string{"Ford", "Tesla", "Toyota"}, p.Makes)
	assert.Equal(t, []string{"electric", "sedan", "suv", "truck"}, p.Types)
	assert.Equal(t, []string{"Autopilot", "Bluetooth", "GPS"}, p.Features)
}

func TestSearch_Empty(t *testing.T) {
	p := Search(nil, Filter{})
	assert.NotNil(t, p.Cars)
	assert.Empty(t, p.Cars)
	assert.Zero(t, p.TotalPages)
	assert.Equal(t, []string{}, p.Makes)
}
