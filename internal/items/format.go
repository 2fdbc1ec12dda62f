package items

import (
	"net/http"
	"strings"

	"github.com/eea-wise/waterdata-api/internal/ogc"
)

// NegotiateContentType picks the response media type from the f query
// parameter, falling back to the Accept header. The body is the same
// FeatureCollection either way; GeoJSON is the default for items.
func NegotiateContentType(r *http.Request) string {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("f"))) {
	case "geojson":
		return ogc.MediaTypeGeoJSON
	case "json":
		return ogc.MediaTypeJSON
	}

	accept := strings.ToLower(r.Header.Get("Accept"))
	for part := range strings.SplitSeq(accept, ",") {
		mt := strings.TrimSpace(part)
		if i := strings.Index(mt, ";"); i >= 0 {
			mt = strings.TrimSpace(mt[:i])
		}
		switch mt {
		case ogc.MediaTypeGeoJSON:
			return ogc.MediaTypeGeoJSON
		case ogc.MediaTypeJSON:
			return ogc.MediaTypeJSON
		}
	}

	return ogc.MediaTypeGeoJSON
}
