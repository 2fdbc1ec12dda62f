package waterbase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/eea-wise/waterdata-api/internal/items"
)

// fakeQuerier replays canned rows per SQL fragment and records every query.
type fakeQuerier struct {
	responses map[string][]map[string]any
	err       error
	executed  []string
}

func (f *fakeQuerier) Query(_ context.Context, sql string) ([]map[string]any, error) {
	f.executed = append(f.executed, sql)
	if f.err != nil {
		return nil, f.err
	}
	for frag, rows := range f.responses {
		if strings.Contains(sql, frag) {
			return rows, nil
		}
	}
	return nil, nil
}

func TestFetchItems_MonitoringSitesWithTotal(t *testing.T) {
	fq := &fakeQuerier{responses: map[string][]map[string]any{
		"COUNT(*) as total": {{"total": float64(42)}},
		"thematicIdIdentifier": {
			{"thematicIdIdentifier": "SE001", "latitude": 57.7, "longitude": 11.97},
		},
	}}
	s := NewSource(fq, nil, nil)

	rows, total, err := s.FetchItems(context.Background(), items.Query{
		CollectionID: "monitoring-sites", Limit: 10, Offset: 0,
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if total != 42 {
		t.Fatalf("total=%d want 42", total)
	}
	if len(rows) != 1 || rows[0]["thematicIdIdentifier"] != "SE001" {
		t.Fatalf("rows=%v", rows)
	}
	if len(fq.executed) != 2 {
		t.Fatalf("queries=%d want count + page", len(fq.executed))
	}
	if !strings.Contains(fq.executed[1], "LIMIT 10 OFFSET 0") {
		t.Fatalf("page query not paginated: %s", fq.executed[1])
	}
}

func TestFetchItems_MeasurementsUnknownTotal(t *testing.T) {
	for _, id := range []string{"latest-measurements", "disaggregated-data"} {
		fq := &fakeQuerier{responses: map[string][]map[string]any{
			"FROM": {{
				"monitoringSiteIdentifier": "SE001",
				"resultObservedValue":      4.2,
				"coordinate_latitude":      57.7,
				"coordinate_longitude":     11.97,
				"coordinate_site_name":     "Lake Vänern",
			}},
		}}
		s := NewSource(fq, nil, nil)

		rows, total, err := s.FetchItems(context.Background(), items.Query{
			CollectionID: id, Limit: 100,
		})
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if total != -1 {
			t.Fatalf("%s: total=%d want -1 (unknown)", id, total)
		}
		if len(fq.executed) != 1 {
			t.Fatalf("%s: measurement collections must not run a COUNT", id)
		}

		row := rows[0]
		if row["latitude"] != 57.7 || row["longitude"] != 11.97 {
			t.Fatalf("%s: join columns not promoted: %v", id, row)
		}
		if _, leaked := row["coordinate_latitude"]; leaked {
			t.Fatalf("%s: coordinate_latitude leaked: %v", id, row)
		}
		nested, ok := row["coordinates"].(map[string]any)
		if !ok || nested["monitoring_site_name"] != "Lake Vänern" {
			t.Fatalf("%s: coordinates object=%v", id, row["coordinates"])
		}
	}
}

func TestFetchItems_UnknownCollection(t *testing.T) {
	s := NewSource(&fakeQuerier{}, nil, nil)
	if _, _, err := s.FetchItems(context.Background(), items.Query{CollectionID: "rivers"}); err == nil {
		t.Fatalf("unknown collection accepted")
	}
}

func TestFetchItems_QuerierFailurePropagates(t *testing.T) {
	fq := &fakeQuerier{err: errors.New("connection refused")}
	s := NewSource(fq, nil, nil)
	if _, _, err := s.FetchItems(context.Background(), items.Query{CollectionID: "monitoring-sites", Limit: 10}); err == nil {
		t.Fatalf("querier failure swallowed")
	}
}

type memCache struct {
	entries map[string][]map[string]any
	gets    int
	puts    int
}

func (m *memCache) Get(_ context.Context, sql string) ([]map[string]any, bool) {
	m.gets++
	rows, ok := m.entries[sql]
	return rows, ok
}

func (m *memCache) Put(_ context.Context, sql string, rows []map[string]any) error {
	m.puts++
	m.entries[sql] = rows
	return nil
}

func TestRun_ReadThroughCache(t *testing.T) {
	fq := &fakeQuerier{responses: map[string][]map[string]any{
		"DISTINCT": {{"observedPropertyDeterminandCode": "CAS_14797-55-8"}},
	}}
	mc := &memCache{entries: map[string][]map[string]any{}}
	s := NewSource(fq, mc, nil)

	if _, err := s.Parameters(context.Background()); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := s.Parameters(context.Background()); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if len(fq.executed) != 1 {
		t.Fatalf("upstream queries=%d want 1 (second served from cache)", len(fq.executed))
	}
	if mc.puts != 1 || mc.gets != 2 {
		t.Fatalf("cache gets=%d puts=%d", mc.gets, mc.puts)
	}
}

func TestIDField(t *testing.T) {
	s := NewSource(&fakeQuerier{}, nil, nil)
	if got := s.IDField("monitoring-sites"); got != "thematicIdIdentifier" {
		t.Fatalf("monitoring-sites id field=%s", got)
	}
	if got := s.IDField("latest-measurements"); got != "monitoringSiteIdentifier" {
		t.Fatalf("latest-measurements id field=%s", got)
	}
}

func TestToInt(t *testing.T) {
	cases := []struct {
		in   any
		want int
		ok   bool
	}{
		{float64(7), 7, true},
		{int64(7), 7, true},
		{"7", 7, true},
		{"x", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := toInt(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("toInt(%v) = %d,%v want %d,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
