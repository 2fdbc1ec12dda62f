package waterbase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/eea-wise/waterdata-api/internal/geojson"
	"github.com/eea-wise/waterdata-api/internal/items"
)

// Aggregation intervals for time-series queries.
const (
	IntervalRaw     = "raw"
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type TimeseriesRequest struct {
	SiteID    string
	Parameter string
	StartDate string
	EndDate   string
	Interval  string
}

// Validate normalizes the request and rejects bad intervals or dates.
func (r *TimeseriesRequest) Validate() error {
	if strings.TrimSpace(r.SiteID) == "" {
		return &items.ValidationError{Param: "site_identifier", Reason: "must not be empty"}
	}
	if r.Interval == "" {
		r.Interval = IntervalRaw
	}
	switch r.Interval {
	case IntervalRaw, IntervalMonthly, IntervalYearly:
	default:
		return &items.ValidationError{Param: "interval", Reason: "must be 'raw', 'monthly', or 'yearly'"}
	}
	if r.StartDate != "" && !isoDate.MatchString(r.StartDate) {
		return &items.ValidationError{Param: "start_date", Reason: "must be YYYY-MM-DD"}
	}
	if r.EndDate != "" && !isoDate.MatchString(r.EndDate) {
		return &items.ValidationError{Param: "end_date", Reason: "must be YYYY-MM-DD"}
	}
	return nil
}

type TimeseriesMetadata struct {
	TotalRecords        int    `json:"total_records"`
	AggregationInterval string `json:"aggregation_interval"`
	Description         string `json:"description"`
}

type TimeseriesResponse struct {
	QueryType string            `json:"query_type"`
	SiteID    string            `json:"site_identifier"`
	Filters   map[string]string `json:"filters"`
	// Site carries the resolved coordinates when the spatial table knows
	// the site.
	Site     *Coordinates       `json:"site,omitempty"`
	Data     []geojson.Row      `json:"data"`
	Metadata TimeseriesMetadata `json:"metadata"`
}

// Timeseries fetches measurement history for one site with the requested
// aggregation.
func (s *Source) Timeseries(ctx context.Context, coords *CoordinateService, req TimeseriesRequest) (TimeseriesResponse, error) {
	if err := req.Validate(); err != nil {
		return TimeseriesResponse{}, err
	}

	rows, err := s.run(ctx, timeseriesQuery(req))
	if err != nil {
		return TimeseriesResponse{}, err
	}
	data := toRows(rows)

	resp := TimeseriesResponse{
		QueryType: "timeseries",
		SiteID:    req.SiteID,
		Filters: map[string]string{
			"parameter":  req.Parameter,
			"start_date": req.StartDate,
			"end_date":   req.EndDate,
			"interval":   req.Interval,
		},
		Data: data,
		Metadata: TimeseriesMetadata{
			TotalRecords:        len(data),
			AggregationInterval: req.Interval,
			Description:         fmt.Sprintf("Time-series data for site %s", req.SiteID),
		},
	}

	if coords != nil {
		if c, ok, err := coords.LookupSite(ctx, req.SiteID); err == nil && ok {
			resp.Site = &c
		}
	}
	return resp, nil
}

// timeseriesQuery builds the per-site measurement query. Monthly and yearly
// aggregation compute avg/min/max/count per determinand and period.
func timeseriesQuery(req TimeseriesRequest) string {
	where := []string{"monitoringSiteIdentifier = " + quote(req.SiteID)}
	if req.Parameter != "" {
		where = append(where, "observedPropertyDeterminandCode = "+quote(req.Parameter))
	}
	if req.StartDate != "" {
		where = append(where, "phenomenonTimeSamplingDate >= "+quote(req.StartDate))
	}
	if req.EndDate != "" {
		where = append(where, "phenomenonTimeSamplingDate <= "+quote(req.EndDate))
	}
	whereClause := "WHERE " + strings.Join(where, " AND ")

	switch req.Interval {
	case IntervalMonthly, IntervalYearly:
		period := "DATE_TRUNC('month', phenomenonTimeSamplingDate)"
		if req.Interval == IntervalYearly {
			period = "DATE_TRUNC('year', phenomenonTimeSamplingDate)"
		}
		return fmt.Sprintf(`SELECT
    monitoringSiteIdentifier,
    monitoringSiteIdentifierScheme,
    countryCode,
    observedPropertyDeterminandCode,
    observedPropertyDeterminandLabel,
    resultUom,
    %[1]s as time_period,
    AVG(CAST(resultObservedValue AS DOUBLE)) as avg_value,
    MIN(CAST(resultObservedValue AS DOUBLE)) as min_value,
    MAX(CAST(resultObservedValue AS DOUBLE)) as max_value,
    COUNT(*) as sample_count,
    '%[2]s' as aggregation_interval
FROM %[3]s
%[4]s
GROUP BY monitoringSiteIdentifier, monitoringSiteIdentifierScheme, countryCode,
    observedPropertyDeterminandCode, observedPropertyDeterminandLabel, resultUom, %[1]s
ORDER BY time_period DESC
LIMIT 10000`, period, req.Interval, disaggTable, whereClause)
	}

	return fmt.Sprintf(`SELECT *
FROM %s
%s
ORDER BY phenomenonTimeSamplingDate DESC
LIMIT 10000`, disaggTable, whereClause)
}
