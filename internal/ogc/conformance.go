// Package ogc implements the OGC API - Features metadata layer: the
// conformance declaration, the collections registry and pagination links.
package ogc

// Conformance class URIs from OGC API - Features Part 1.
const (
	ConfCore    = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core"
	ConfGeoJSON = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/geojson"
	ConfOAS30   = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/oas30"
	ConfBBox    = "http://www.opengis.net/spec/ogcapi-features-1/1.0/req/core/bbox"
)

type ConformanceDeclaration struct {
	ConformsTo []string `json:"conformsTo"`
}

// ConformsTo returns the fixed set of implemented conformance classes.
func ConformsTo() ConformanceDeclaration {
	return ConformanceDeclaration{
		ConformsTo: []string{ConfCore, ConfGeoJSON, ConfOAS30, ConfBBox},
	}
}
