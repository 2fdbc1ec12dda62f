// Package waterbase builds the SQL for the EEA Waterbase tables and adapts
// the Dremio results into the row shape the formatters expect.
package waterbase

import (
	"fmt"
	"strings"

	"github.com/eea-wise/waterdata-api/internal/items"
)

// Fully qualified Waterbase table references in the Dremio catalog.
const (
	spatialTable = `"Local S3"."datahub-pre-01".discodata."WISE_SOE".latest."Waterbase_S_WISE_SpatialObject_DerivedData"`
	disaggTable  = `"Local S3"."datahub-pre-01".discodata."WISE_SOE".latest."Waterbase_T_WISE6_DisaggregatedData"`

	// measurementFloor keeps the big measurement scans on recent data.
	measurementFloor = "2019-01-01"
)

// quote escapes a string literal for inclusion in SQL.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func paginate(sql string, limit, offset int) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, limit, offset)
}

// sitesQuery selects monitoring-site locations, filtered before projection.
func sitesQuery(q items.Query) string {
	where := sitesWhere(q)
	return fmt.Sprintf(`SELECT
    thematicIdIdentifier,
    thematicIdIdentifierScheme,
    monitoringSiteIdentifier,
    monitoringSiteName,
    countryCode,
    lat as latitude,
    lon as longitude
FROM %s
%s`, spatialTable, where)
}

func sitesCountQuery(q items.Query) string {
	return fmt.Sprintf("SELECT COUNT(*) as total FROM %s\n%s", spatialTable, sitesWhere(q))
}

func sitesWhere(q items.Query) string {
	conds := []string{}
	if q.CountryCode != "" {
		conds = append(conds, "countryCode = "+quote(q.CountryCode))
	}
	if q.BBox != nil {
		conds = append(conds,
			fmt.Sprintf("lon BETWEEN %g AND %g", q.BBox.MinLon, q.BBox.MaxLon),
			fmt.Sprintf("lat BETWEEN %g AND %g", q.BBox.MinLat, q.BBox.MaxLat))
	}
	conds = append(conds, "lat IS NOT NULL", "lon IS NOT NULL")
	return "WHERE " + strings.Join(conds, " AND ")
}

// latestQuery computes the most recent measurement per site and determinand
// via a MAX-date CTE, then joins back for the full record and coordinates.
func latestQuery(q items.Query) string {
	inner := measurementWhere(q, true)
	outer := measurementWhere(q, false)

	return fmt.Sprintf(`WITH latest_dates AS (
    SELECT
        w.monitoringSiteIdentifier,
        w.observedPropertyDeterminandCode,
        MAX(w.phenomenonTimeSamplingDate) as max_date
    FROM %[1]s w
    INNER JOIN %[2]s s
        ON w.monitoringSiteIdentifier = s.thematicIdIdentifier
        AND w.monitoringSiteIdentifierScheme = s.thematicIdIdentifierScheme
    %[3]s
    GROUP BY w.monitoringSiteIdentifier, w.observedPropertyDeterminandCode
)
SELECT
    w.monitoringSiteIdentifier,
    w.monitoringSiteIdentifierScheme,
    w.observedPropertyDeterminandCode,
    w.observedPropertyDeterminandLabel,
    w.phenomenonTimeSamplingDate,
    w.resultObservedValue,
    w.resultUom,
    w.countryCode,
    s.lat as coordinate_latitude,
    s.lon as coordinate_longitude,
    s.monitoringSiteName as coordinate_site_name
FROM %[1]s w
INNER JOIN latest_dates ld
    ON w.monitoringSiteIdentifier = ld.monitoringSiteIdentifier
    AND w.observedPropertyDeterminandCode = ld.observedPropertyDeterminandCode
    AND w.phenomenonTimeSamplingDate = ld.max_date
INNER JOIN %[2]s s
    ON w.monitoringSiteIdentifier = s.thematicIdIdentifier
    AND w.monitoringSiteIdentifierScheme = s.thematicIdIdentifierScheme
%[4]s`, disaggTable, spatialTable, inner, outer)
}

// disaggregatedQuery returns full measurement records joined to coordinates,
// newest first.
func disaggregatedQuery(q items.Query) string {
	where := measurementWhere(q, true)
	return fmt.Sprintf(`SELECT
    w.monitoringSiteIdentifier,
    w.monitoringSiteIdentifierScheme,
    w.observedPropertyDeterminandCode,
    w.observedPropertyDeterminandLabel,
    w.phenomenonTimeSamplingDate,
    w.resultObservedValue,
    w.resultUom,
    w.countryCode,
    w.parameterWaterBodyCategory,
    s.lat as coordinate_latitude,
    s.lon as coordinate_longitude,
    s.monitoringSiteName as coordinate_site_name
FROM %s w
INNER JOIN %s s
    ON w.monitoringSiteIdentifier = s.thematicIdIdentifier
    AND w.monitoringSiteIdentifierScheme = s.thematicIdIdentifierScheme
%s
ORDER BY w.phenomenonTimeSamplingDate DESC`, disaggTable, spatialTable, where)
}

// measurementWhere composes filters on the measurement/spatial join. With
// dateFloor set it also restricts the scan to recent sampling dates.
func measurementWhere(q items.Query, dateFloor bool) string {
	conds := []string{}
	if q.CountryCode != "" {
		conds = append(conds, "w.countryCode = "+quote(q.CountryCode))
	}
	if q.BBox != nil {
		conds = append(conds,
			fmt.Sprintf("s.lon BETWEEN %g AND %g", q.BBox.MinLon, q.BBox.MaxLon),
			fmt.Sprintf("s.lat BETWEEN %g AND %g", q.BBox.MinLat, q.BBox.MaxLat))
	}
	conds = append(conds, "s.lat IS NOT NULL", "s.lon IS NOT NULL")
	if dateFloor {
		conds = append(conds, "w.phenomenonTimeSamplingDate IS NOT NULL")
		conds = append(conds, fmt.Sprintf("w.phenomenonTimeSamplingDate >= CAST('%s' AS DATE)", measurementFloor))
	}
	if q.Datetime != "" {
		if start, end, ok := splitDatetime(q.Datetime); ok {
			if start != "" {
				conds = append(conds, "w.phenomenonTimeSamplingDate >= "+quote(start))
			}
			if end != "" {
				conds = append(conds, "w.phenomenonTimeSamplingDate <= "+quote(end))
			}
		}
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

// splitDatetime handles the OGC datetime forms: a single instant,
// "start/end", "../end" and "start/..".
func splitDatetime(s string) (start, end string, ok bool) {
	if !strings.Contains(s, "/") {
		return s, s, s != ""
	}
	parts := strings.SplitN(s, "/", 2)
	start, end = parts[0], parts[1]
	if start == ".." {
		start = ""
	}
	if end == ".." {
		end = ""
	}
	return start, end, start != "" || end != ""
}

// parametersQuery lists the distinct determinands with measurement counts.
func parametersQuery() string {
	return fmt.Sprintf(`SELECT DISTINCT
    observedPropertyDeterminandCode,
    observedPropertyDeterminandLabel,
    resultUom,
    COUNT(*) as measurement_count
FROM %s
GROUP BY observedPropertyDeterminandCode, observedPropertyDeterminandLabel, resultUom
ORDER BY observedPropertyDeterminandLabel`, disaggTable)
}
