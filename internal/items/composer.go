// Package items composes OGC items responses: it validates the request,
// pulls rows from the row source and assembles the FeatureCollection
// envelope with pagination links.
package items

import (
	"context"
	"fmt"

	"github.com/eea-wise/waterdata-api/internal/geojson"
	"github.com/eea-wise/waterdata-api/internal/observability"
	"github.com/eea-wise/waterdata-api/internal/ogc"
)

// Query is what the row source needs to scope a fetch.
type Query struct {
	CollectionID string
	CountryCode  string
	BBox         *BBox
	Datetime     string
	Limit        int
	Offset       int
}

// RowSource executes the backing query for a collection. Total is the
// upstream match count before pagination, or -1 when the source does not
// compute one. Failures mean the data lake is unreachable, never an empty
// result.
type RowSource interface {
	FetchItems(ctx context.Context, q Query) (rows []geojson.Row, total int, err error)
	IDField(collectionID string) string
}

type Composer struct {
	registry *ogc.Registry
	source   RowSource
	baseURL  string
}

func NewComposer(registry *ogc.Registry, source RowSource, baseURL string) *Composer {
	return &Composer{registry: registry, source: source, baseURL: baseURL}
}

// Compose builds the items response for a collection. Calling it twice with
// identical params and an unchanged row source yields identical features and
// numberMatched; only the timestamp may differ.
func (c *Composer) Compose(ctx context.Context, collectionID string, p Params) (geojson.FeatureCollection, error) {
	col, ok := c.registry.Get(collectionID)
	if !ok {
		return geojson.FeatureCollection{}, &NotFoundError{CollectionID: collectionID, ValidIDs: c.registry.IDs()}
	}
	if col.Delegated {
		return geojson.FeatureCollection{}, &DelegatedError{CollectionID: collectionID, Path: col.DelegatedPath}
	}

	rows, total, err := c.source.FetchItems(ctx, Query{
		CollectionID: collectionID,
		CountryCode:  p.CountryCode,
		BBox:         p.BBox,
		Datetime:     p.Datetime,
		Limit:        p.Limit,
		Offset:       p.Offset,
	})
	if err != nil {
		return geojson.FeatureCollection{}, &UpstreamError{Err: fmt.Errorf("fetch %s items: %w", collectionID, err)}
	}

	fc := geojson.ToFeatureCollection(rows, total, c.source.IDField(collectionID))
	if skipped := len(rows) - fc.NumberReturned; skipped > 0 {
		for i := 0; i < skipped; i++ {
			observability.IncRowSkipped(collectionID, "format")
		}
	}

	basePath := fmt.Sprintf("%s/collections/%s/items", c.baseURL, collectionID)
	fc.Links = ogc.PaginationLinks(basePath, p.FilterValues(), p.Limit, p.Offset, total, fc.NumberReturned)
	fc.Links = append(fc.Links, ogc.CollectionLink(c.baseURL, collectionID))

	return fc, nil
}
