package mail

import (
	"sort"
	"time"

	"github.com/mikey/app-tracker/internal/core"
)

// window orders emails oldest first and keeps the newest limit of them
func window(emails []*core.NormalizedEmail, cutoff time.Time, limit int) []*core.NormalizedEmail {
	kept := emails[:0]
	for _, e := range emails {
		if !cutoff.IsZero() && e.Date.Before(cutoff) {
			continue
		}
		kept = append(kept, e)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Date.Before(kept[j].Date)
	})

	if limit > 0 && len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	return kept
}
