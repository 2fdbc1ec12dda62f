package items

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLimit = 1000
	MaxLimit     = 10000
)

// BBox is a WGS-84 bounding box: minLon,minLat,maxLon,maxLat.
type BBox struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Params are the validated query parameters for an items request.
type Params struct {
	Limit       int
	Offset      int
	BBox        *BBox
	CountryCode string
	Datetime    string
}

// FilterValues returns the active filter parameters, the ones that must be
// carried through into every pagination link.
func (p Params) FilterValues() url.Values {
	v := url.Values{}
	if p.CountryCode != "" {
		v.Set("country_code", p.CountryCode)
	}
	if p.BBox != nil {
		v.Set("bbox", p.BBox.String())
	}
	if p.Datetime != "" {
		v.Set("datetime", p.Datetime)
	}
	return v
}

// ParseParams validates the items query string. Out-of-range limit and offset
// are rejected, not clamped, mirroring the range constraints the service has
// always advertised.
func ParseParams(r *http.Request) (Params, error) {
	q := r.URL.Query()
	p := Params{Limit: DefaultLimit}

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, &ValidationError{Param: "limit", Reason: "must be an integer"}
		}
		if n < 1 || n > MaxLimit {
			return Params{}, &ValidationError{Param: "limit", Reason: fmt.Sprintf("must be between 1 and %d", MaxLimit)}
		}
		p.Limit = n
	}

	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, &ValidationError{Param: "offset", Reason: "must be an integer"}
		}
		if n < 0 {
			return Params{}, &ValidationError{Param: "offset", Reason: "must be >= 0"}
		}
		p.Offset = n
	}

	if raw := strings.TrimSpace(q.Get("bbox")); raw != "" {
		bb, err := ParseBBox(raw)
		if err != nil {
			return Params{}, err
		}
		p.BBox = &bb
	}

	if raw := strings.TrimSpace(q.Get("datetime")); raw != "" {
		if err := validateDatetime(raw); err != nil {
			return Params{}, err
		}
		p.Datetime = raw
	}

	p.CountryCode = strings.TrimSpace(q.Get("country_code"))

	return p, nil
}

// validateDatetime accepts the OGC forms: a single instant, "start/end",
// "../end" and "start/..". Bounds must parse as dates or RFC 3339
// timestamps; a bad value is rejected here, never forwarded upstream.
func validateDatetime(raw string) error {
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) == 1 {
		if !validInstant(parts[0]) {
			return &ValidationError{Param: "datetime", Reason: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"}
		}
		return nil
	}

	start, end := parts[0], parts[1]
	if start == ".." && end == ".." {
		return &ValidationError{Param: "datetime", Reason: "interval must have at least one bound"}
	}
	for _, b := range []string{start, end} {
		if b == ".." {
			continue
		}
		if !validInstant(b) {
			return &ValidationError{Param: "datetime", Reason: "interval bounds must be dates (YYYY-MM-DD) or RFC 3339 timestamps"}
		}
	}
	return nil
}

func validInstant(s string) bool {
	if s == "" {
		return false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat". A malformed bbox is a
// validation error, never a silently ignored filter.
func ParseBBox(raw string) (BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return BBox{}, &ValidationError{Param: "bbox", Reason: "expected 4 comma-separated values: minLon,minLat,maxLon,maxLat"}
	}

	vals := make([]float64, 4)
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return BBox{}, &ValidationError{Param: "bbox", Reason: fmt.Sprintf("component %d is not a number", i+1)}
		}
		vals[i] = f
	}

	bb := BBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if bb.MinLon < -180 || bb.MaxLon > 180 {
		return BBox{}, &ValidationError{Param: "bbox", Reason: "longitude must be in [-180,180]"}
	}
	if bb.MinLat < -90 || bb.MaxLat > 90 {
		return BBox{}, &ValidationError{Param: "bbox", Reason: "latitude must be in [-90,90]"}
	}
	if bb.MinLon > bb.MaxLon || bb.MinLat > bb.MaxLat {
		return BBox{}, &ValidationError{Param: "bbox", Reason: "min values must not exceed max values"}
	}
	return bb, nil
}
