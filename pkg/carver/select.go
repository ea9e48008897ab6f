package carver

import "github.com/binsift/binsift/pkg/types"

// Select resolves selection indices against a carved sequence. Results
// keep the order indices were supplied in; out-of-range indices are
// silently skipped and duplicates produce duplicate entries, matching
// the permissive behavior the archiver relies on.
func Select(carved []types.CarvedFile, indices []int) []types.CarvedFile {
	selected := make([]types.CarvedFile, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(carved) {
			continue
		}
		selected = append(selected, carved[idx])
	}
	return selected
}
