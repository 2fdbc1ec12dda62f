package waterbase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/eea-wise/waterdata-api/internal/geojson"
	"github.com/eea-wise/waterdata-api/internal/items"
)

// Querier executes SQL against the data lake.
type Querier interface {
	Query(ctx context.Context, sql string) ([]map[string]any, error)
}

// Cache is an optional read-through cache for query results.
type Cache interface {
	Get(ctx context.Context, sql string) ([]map[string]any, bool)
	Put(ctx context.Context, sql string, rows []map[string]any) error
}

// Source is the row source for the OGC collections, backed by Dremio.
type Source struct {
	querier Querier
	cache   Cache
	logger  *slog.Logger
}

func NewSource(querier Querier, cache Cache, logger *slog.Logger) *Source {
	return &Source{querier: querier, cache: cache, logger: logger}
}

// IDField names the feature-id column for a collection.
func (s *Source) IDField(collectionID string) string {
	if collectionID == "monitoring-sites" {
		return "thematicIdIdentifier"
	}
	return "monitoringSiteIdentifier"
}

// FetchItems runs the backing query for the collection. The total is the
// upstream match count for monitoring-sites; the measurement collections skip
// the COUNT for cost reasons and report -1 (unknown).
func (s *Source) FetchItems(ctx context.Context, q items.Query) ([]geojson.Row, int, error) {
	switch q.CollectionID {
	case "monitoring-sites":
		total, err := s.count(ctx, sitesCountQuery(q))
		if err != nil {
			return nil, 0, err
		}
		rows, err := s.run(ctx, paginate(sitesQuery(q), q.Limit, q.Offset))
		if err != nil {
			return nil, 0, err
		}
		return toRows(rows), total, nil

	case "latest-measurements":
		rows, err := s.run(ctx, paginate(latestQuery(q), q.Limit, q.Offset))
		if err != nil {
			return nil, 0, err
		}
		return foldCoordinates(rows), -1, nil

	case "disaggregated-data":
		rows, err := s.run(ctx, paginate(disaggregatedQuery(q), q.Limit, q.Offset))
		if err != nil {
			return nil, 0, err
		}
		return foldCoordinates(rows), -1, nil
	}

	return nil, 0, fmt.Errorf("no backing query for collection %q", q.CollectionID)
}

// Parameters lists the available determinands.
func (s *Source) Parameters(ctx context.Context) ([]geojson.Row, error) {
	rows, err := s.run(ctx, parametersQuery())
	if err != nil {
		return nil, err
	}
	return toRows(rows), nil
}

func (s *Source) run(ctx context.Context, sql string) ([]map[string]any, error) {
	if s.cache != nil {
		if rows, ok := s.cache.Get(ctx, sql); ok {
			return rows, nil
		}
	}

	rows, err := s.querier.Query(ctx, sql)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, sql, rows); err != nil && s.logger != nil {
			s.logger.Warn("result cache put failed", "err", err)
		}
	}
	return rows, nil
}

func (s *Source) count(ctx context.Context, sql string) (int, error) {
	rows, err := s.run(ctx, sql)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, ok := toInt(rows[0]["total"])
	if !ok {
		return 0, fmt.Errorf("count query returned non-numeric total %v", rows[0]["total"])
	}
	return n, nil
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(t)
		return n, err == nil
	}
	return 0, false
}

func toRows(in []map[string]any) []geojson.Row {
	out := make([]geojson.Row, 0, len(in))
	for _, m := range in {
		out = append(out, geojson.Row(m))
	}
	return out
}

// foldCoordinates rewrites the coordinate_* JOIN columns of a measurement
// row: latitude/longitude are promoted to the top level for geometry
// extraction and a nested coordinates object keeps the site context.
func foldCoordinates(in []map[string]any) []geojson.Row {
	out := make([]geojson.Row, 0, len(in))
	for _, m := range in {
		lat := m["coordinate_latitude"]
		lon := m["coordinate_longitude"]

		row := make(geojson.Row, len(m)+3)
		for k, v := range m {
			if k == "coordinate_latitude" || k == "coordinate_longitude" || k == "coordinate_site_name" {
				continue
			}
			row[k] = v
		}

		if lat != nil && lon != nil {
			row["latitude"] = lat
			row["longitude"] = lon
			row["coordinates"] = map[string]any{
				"latitude":             lat,
				"longitude":            lon,
				"monitoring_site_name": m["coordinate_site_name"],
				"source":               "Waterbase_S_WISE_SpatialObject_DerivedData",
			}
		} else {
			row["coordinates"] = nil
		}
		out = append(out, row)
	}
	return out
}
