package cache

import (
	"strings"

	"github.com/dnsscience/recursord/internal/wire"
)

// GroupByName partitions records into same-name batches, preserving the
// order names are first seen in. This resolves the Open Question in
// spec.md §9: insert_all would otherwise hand a single Insert call
// records from multiple distinct names, which must not be co-located
// under one cache entry.
func GroupByName(records []wire.ResourceRecord) [][]wire.ResourceRecord {
	order := make([]string, 0, len(records))
	groups := make(map[string][]wire.ResourceRecord)

	for _, rr := range records {
		key := strings.ToLower(rr.Name)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rr)
	}

	out := make([][]wire.ResourceRecord, 0, len(order))
	for _, name := range order {
		out = append(out, groups[name])
	}
	return out
}
