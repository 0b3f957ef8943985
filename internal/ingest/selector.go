// internal/ingest/selector.go
package ingest

import "brightworld/internal/database"

// selectBalanced picks up to limit articles round-robin across sources so a
// high-volume feed cannot monopolize the rating quota. Sources keep their
// first-seen order and articles keep their order within each source. The
// remainder comes back grouped by source in the same order.
func selectBalanced(items []*database.Article, limit int) (picked, rest []*database.Article) {
	if limit <= 0 {
		return nil, items
	}
	if limit >= len(items) {
		return items, nil
	}

	var order []string
	groups := make(map[string][]*database.Article)
	for _, it := range items {
		if _, ok := groups[it.SourceName]; !ok {
			order = append(order, it.SourceName)
		}
		groups[it.SourceName] = append(groups[it.SourceName], it)
	}

	picked = make([]*database.Article, 0, limit)
	for len(picked) < limit {
		took := false
		for _, name := range order {
			if len(groups[name]) == 0 {
				continue
			}
			picked = append(picked, groups[name][0])
			groups[name] = groups[name][1:]
			took = true
			if len(picked) == limit {
				break
			}
		}
		if !took {
			break
		}
	}

	for _, name := range order {
		rest = append(rest, groups[name]...)
	}
	return picked, rest
}
