package dremio

import "encoding/json"

// queryResult is the /apiv2/sql response shape. Rows arrive either as
// {"row": [{"v": value}, ...]} objects or as plain arrays; both are folded
// into flat column-name maps.
type queryResult struct {
	Columns []column          `json:"columns"`
	Rows    []json.RawMessage `json:"rows"`
}

type column struct {
	Name string `json:"name"`
}

type wrappedRow struct {
	Row []cell `json:"row"`
}

type cell struct {
	V any `json:"v"`
}

func (qr queryResult) flatten() []map[string]any {
	if len(qr.Rows) == 0 || len(qr.Columns) == 0 {
		return nil
	}

	out := make([]map[string]any, 0, len(qr.Rows))
	for _, raw := range qr.Rows {
		var wr wrappedRow
		if err := json.Unmarshal(raw, &wr); err == nil && wr.Row != nil {
			out = append(out, qr.fromCells(wr.Row))
			continue
		}

		var arr []any
		if err := json.Unmarshal(raw, &arr); err == nil {
			out = append(out, qr.fromValues(arr))
		}
	}
	return out
}

func (qr queryResult) fromCells(cells []cell) map[string]any {
	row := make(map[string]any, len(qr.Columns))
	for i, col := range qr.Columns {
		if i < len(cells) {
			row[col.Name] = cells[i].V
		} else {
			row[col.Name] = nil
		}
	}
	return row
}

func (qr queryResult) fromValues(vals []any) map[string]any {
	row := make(map[string]any, len(qr.Columns))
	for i, col := range qr.Columns {
		if i < len(vals) {
			row[col.Name] = vals[i]
		} else {
			row[col.Name] = nil
		}
	}
	return row
}
