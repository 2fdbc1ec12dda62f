package ogc

import (
	"fmt"
	"time"
)

const (
	CRS84        = "http://www.opengis.net/def/crs/OGC/1.3/CRS84"
	GregorianTRS = "http://www.opengis.net/def/uom/ISO-8601/0/Gregorian"

	MediaTypeJSON    = "application/json"
	MediaTypeGeoJSON = "application/geo+json"
)

// Europe bounding box shared by all Waterbase collections.
var europeBBox = [4]float64{-31.5, 27.6, 69.1, 81.0}

const temporalFloor = "1990-01-01T00:00:00Z"

type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

type SpatialExtent struct {
	BBox [][4]float64 `json:"bbox"`
	CRS  string       `json:"crs"`
}

type TemporalExtent struct {
	Interval [][2]string `json:"interval"`
	TRS      string      `json:"trs"`
}

type Extent struct {
	Spatial  SpatialExtent   `json:"spatial"`
	Temporal *TemporalExtent `json:"temporal,omitempty"`
}

type Collection struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ItemType    string   `json:"itemType"`
	CRS         []string `json:"crs"`
	Extent      Extent   `json:"extent"`
	Links       []Link   `json:"links,omitempty"`

	// Delegated marks a collection whose items are not served through the
	// OGC items endpoint but through a dedicated route instead.
	Delegated     bool   `json:"-"`
	DelegatedPath string `json:"-"`
}

// WithLinks returns a copy of the collection carrying its metadata links.
func (c Collection) WithLinks(baseURL string) Collection {
	c.Links = []Link{
		{Href: fmt.Sprintf("%s/collections/%s", baseURL, c.ID), Rel: "self", Type: MediaTypeJSON, Title: "This collection"},
		{Href: fmt.Sprintf("%s/collections/%s/items", baseURL, c.ID), Rel: "items", Type: MediaTypeGeoJSON, Title: "Items in this collection"},
	}
	return c
}

// Registry is the immutable catalog of Waterbase collections. It is built
// once at process start and shared by every handler.
type Registry struct {
	order []string
	byID  map[string]Collection
}

// NewRegistry builds the four Waterbase collections. The temporal interval is
// open at 1990 and closed at the given instant, normally the process start.
func NewRegistry(now time.Time) *Registry {
	upper := now.UTC().Format(time.RFC3339)
	temporal := &TemporalExtent{
		Interval: [][2]string{{temporalFloor, upper}},
		TRS:      GregorianTRS,
	}

	mk := func(id, title, description string) Collection {
		return Collection{
			ID:          id,
			Title:       title,
			Description: description,
			ItemType:    "feature",
			CRS:         []string{CRS84},
			Extent: Extent{
				Spatial:  SpatialExtent{BBox: [][4]float64{europeBBox}, CRS: CRS84},
				Temporal: temporal,
			},
		}
	}

	sites := mk("monitoring-sites",
		"Water Quality Monitoring Sites",
		"Locations of water quality monitoring sites across Europe. Each site represents a location where water quality measurements are taken. Includes site identifiers, names, and geographic coordinates.")

	latest := mk("latest-measurements",
		"Latest Water Quality Measurements",
		"Most recent water quality measurement for each parameter at each monitoring site. Includes chemical parameter values, units of measurement, and sampling dates. This collection provides a snapshot of current water quality conditions.")

	disagg := mk("disaggregated-data",
		"Disaggregated Water Quality Data",
		"Complete disaggregated water quality measurement data from the EEA Waterbase. Includes all historical measurements with full metadata, chemical parameters, observed values, quality flags, and temporal information.")

	series := mk("time-series",
		"Water Quality Time Series",
		"Time-series data for water quality parameters at monitoring sites. Supports raw, monthly, and yearly aggregations. Useful for trend analysis and temporal pattern identification.")
	series.Delegated = true
	series.DelegatedPath = "/timeseries/site/{siteID}"

	r := &Registry{byID: map[string]Collection{}}
	for _, c := range []Collection{sites, latest, disagg, series} {
		r.order = append(r.order, c.ID)
		r.byID[c.ID] = c
	}
	return r
}

// List returns the collections in declaration order.
func (r *Registry) List() []Collection {
	out := make([]Collection, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *Registry) Get(id string) (Collection, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// IDs returns the valid collection ids in declaration order, used for
// NotFound diagnostics.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

type CollectionsDocument struct {
	Collections []Collection `json:"collections"`
	Links       []Link       `json:"links"`
}

// Document renders the /collections response with metadata links resolved
// against the given base URL.
func (r *Registry) Document(baseURL string) CollectionsDocument {
	cols := make([]Collection, 0, len(r.order))
	for _, id := range r.order {
		cols = append(cols, r.byID[id].WithLinks(baseURL))
	}
	return CollectionsDocument{
		Collections: cols,
		Links: []Link{
			{Href: baseURL + "/collections", Rel: "self", Type: MediaTypeJSON, Title: "This document"},
			{Href: baseURL + "/", Rel: "service-desc", Type: MediaTypeJSON, Title: "API definition"},
		},
	}
}
