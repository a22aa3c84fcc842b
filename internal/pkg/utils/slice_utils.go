package utils

// Batch splits items into consecutive batches of at most batchSize elements.
// A non-positive batchSize yields a single batch.
func Batch[T any](items []T, batchSize int) [][]T {
	if len(items) == 0 {
		return [][]T{}
	}
	if batchSize <= 0 {
		batchSize = len(items)
	}

	batches := make([][]T, 0, (len(items)+batchSize-1)/batchSize)
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// BlockWindow is an inclusive block range.
type BlockWindow struct {
	From uint64
	To   uint64
}

// SplitBlockRange splits [from, to] into windows spanning at most maxSpan blocks each.
// maxSpan == 0 yields the whole range as one window.
func SplitBlockRange(from, to, maxSpan uint64) []BlockWindow {
	if from > to {
		return nil
	}
	if maxSpan == 0 {
		return []BlockWindow{{From: from, To: to}}
	}
	var windows []BlockWindow
	for start := from; ; {
		end := start + maxSpan - 1
		if end < start || end >= to { // overflow or last window
			windows = append(windows, BlockWindow{From: start, To: to})
			return windows
		}
		windows = append(windows, BlockWindow{From: start, To: end})
		start = end + 1
	}
}
