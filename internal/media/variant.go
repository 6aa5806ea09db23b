// Package media holds the variant-selection logic shared by extractors.
package media

// Best reduces a candidate list to the single item maximizing the quality
// proxy (bitrate, pixel area, filesize). Ties keep the later candidate, so
// the reduction is a stable "replace when not worse" pass over the input
// order. ok is false for an empty list.
func Best[T any](items []T, quality func(T) int64) (best T, ok bool) {
	if len(items) == 0 {
		return best, false
	}

	best = items[0]
	max := quality(best)
	for _, item := range items[1:] {
		if q := quality(item); q >= max {
			best = item
			max = q
		}
	}

	return best, true
}

// BestIndex is Best returning the index of the winner instead of the value.
// Returns -1 for an empty list.
func BestIndex[T any](items []T, quality func(T) int64) int {
	if len(items) == 0 {
		return -1
	}

	idx := 0
	max := quality(items[0])
	for i, item := range items[1:] {
		if q := quality(item); q >= max {
			idx = i + 1
			max = q
		}
	}

	return idx
}
