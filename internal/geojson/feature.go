// Package geojson converts tabular water-quality rows into RFC 7946
// features and feature collections.
package geojson

import (
	"math"
	"strconv"
	"time"

	"github.com/eea-wise/waterdata-api/internal/ogc"
)

// Row is one upstream result record: column name to scalar value.
type Row map[string]any

// Accepted column spellings, checked in priority order.
var (
	latAliases = []string{"latitude", "lat", "coordinate_latitude"}
	lonAliases = []string{"longitude", "lon", "lng", "coordinate_longitude"}
)

// DefaultIDField is the monitoring-site identifier column used when a
// collection does not configure its own.
const DefaultIDField = "thematicIdIdentifier"

type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lon, lat], never [lat, lon]
}

type Feature struct {
	Type       string    `json:"type"`
	ID         any       `json:"id,omitempty"`
	Geometry   *Geometry `json:"geometry"`
	Properties Row       `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	// NumberMatched is nil when the upstream total is unknown.
	NumberMatched  *int       `json:"numberMatched,omitempty"`
	NumberReturned int        `json:"numberReturned"`
	TimeStamp      string     `json:"timeStamp,omitempty"`
	Links          []ogc.Link `json:"links,omitempty"`
}

// ExtractPoint locates latitude and longitude in the row and returns a Point
// geometry, or nil when either coordinate is absent, null or unparsable.
// Values are assumed to be WGS-84 decimal degrees already.
func ExtractPoint(row Row) *Geometry {
	lat, ok := lookupCoord(row, latAliases)
	if !ok {
		return nil
	}
	lon, ok := lookupCoord(row, lonAliases)
	if !ok {
		return nil
	}
	return &Geometry{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

func lookupCoord(row Row, aliases []string) (float64, bool) {
	for _, name := range aliases {
		v, present := row[name]
		if !present || v == nil {
			continue
		}
		f, ok := toFiniteFloat(v)
		if !ok {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func toFiniteFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToFeature converts one row. The raw coordinate columns stay in the
// properties for traceability. A row without resolvable coordinates still
// yields a well-formed feature with null geometry.
func ToFeature(row Row, idField string) Feature {
	if idField == "" {
		idField = DefaultIDField
	}
	f := Feature{
		Type:       "Feature",
		Geometry:   ExtractPoint(row),
		Properties: row,
	}
	if id, ok := row[idField]; ok && id != nil {
		f.ID = id
	}
	return f
}

// ToFeatureCollection converts rows in input order. numberMatched is the
// upstream total before any row-level failure; pass a negative value when the
// upstream count is unknown. The timestamp is captured once per call.
func ToFeatureCollection(rows []Row, numberMatched int, idField string) FeatureCollection {
	features := make([]Feature, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		features = append(features, ToFeature(row, idField))
	}

	fc := FeatureCollection{
		Type:           "FeatureCollection",
		Features:       features,
		NumberReturned: len(features),
		TimeStamp:      time.Now().UTC().Format(time.RFC3339),
	}
	if numberMatched >= 0 {
		fc.NumberMatched = &numberMatched
	}
	return fc
}
