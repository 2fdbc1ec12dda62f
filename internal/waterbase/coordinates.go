package waterbase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Coordinates is a resolved monitoring-site location.
type Coordinates struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	SiteName   string  `json:"monitoring_site_name,omitempty"`
	Identifier string  `json:"thematic_identifier,omitempty"`
	Scheme     string  `json:"thematic_identifier_scheme,omitempty"`
}

// CoordinateService resolves site identifiers to coordinates against the
// spatial object table. Sites never move, so positive lookups are held in an
// in-process LRU.
type CoordinateService struct {
	querier Querier
	cache   *lru.Cache[string, Coordinates]
	logger  *slog.Logger
}

func NewCoordinateService(querier Querier, cacheSize int, logger *slog.Logger) (*CoordinateService, error) {
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	c, err := lru.New[string, Coordinates](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("coordinate cache: %w", err)
	}
	return &CoordinateService{querier: querier, cache: c, logger: logger}, nil
}

// LookupSite returns the coordinates for a monitoring site, trying the
// euMonitoringSiteCode scheme first and falling back to any scheme.
func (cs *CoordinateService) LookupSite(ctx context.Context, siteID string) (Coordinates, bool, error) {
	if c, ok := cs.cache.Get(siteID); ok {
		return c, true, nil
	}

	for _, sql := range []string{
		coordinateQuery(siteID, "euMonitoringSiteCode"),
		coordinateQuery(siteID, ""),
	} {
		rows, err := cs.querier.Query(ctx, sql)
		if err != nil {
			return Coordinates{}, false, fmt.Errorf("coordinate lookup for %s: %w", siteID, err)
		}
		if len(rows) == 0 {
			continue
		}

		c, ok := coordinatesFromRow(rows[0])
		if !ok {
			continue
		}
		cs.cache.Add(siteID, c)
		return c, true, nil
	}

	if cs.logger != nil {
		cs.logger.Debug("no coordinates for site", "site", siteID)
	}
	return Coordinates{}, false, nil
}

func coordinateQuery(siteID, scheme string) string {
	where := "thematicIdIdentifier = " + quote(siteID)
	if scheme != "" {
		where += " AND thematicIdIdentifierScheme = " + quote(scheme)
	}
	return fmt.Sprintf(`SELECT
    thematicIdIdentifier,
    thematicIdIdentifierScheme,
    lat,
    lon,
    monitoringSiteName
FROM %s
WHERE %s AND lat IS NOT NULL AND lon IS NOT NULL
LIMIT 1`, spatialTable, where)
}

func coordinatesFromRow(row map[string]any) (Coordinates, bool) {
	lat, okLat := toFloat(row["lat"])
	lon, okLon := toFloat(row["lon"])
	if !okLat || !okLon {
		return Coordinates{}, false
	}
	c := Coordinates{Latitude: lat, Longitude: lon}
	if s, ok := row["monitoringSiteName"].(string); ok {
		c.SiteName = s
	}
	if s, ok := row["thematicIdIdentifier"].(string); ok {
		c.Identifier = s
	}
	if s, ok := row["thematicIdIdentifierScheme"].(string); ok {
		c.Scheme = s
	}
	return c, true
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}
