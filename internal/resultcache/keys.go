package resultcache

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key derives a stable cache key from the SQL text. Whitespace runs are
// collapsed first so that formatting-only differences between query builders
// share an entry.
func Key(sql string) string {
	return fmt.Sprintf("sqlres:%016x", xxhash.Sum64String(normalize(sql)))
}

func normalize(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))
	wasWS := false
	for _, r := range strings.TrimSpace(sql) {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !wasWS {
				b.WriteByte(' ')
				wasWS = true
			}
			continue
		}
		b.WriteRune(r)
		wasWS = false
	}
	return b.String()
}
