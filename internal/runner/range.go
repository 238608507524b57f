package runner

import "fmt"

// IndexRange represents an inclusive range of pool indices.
type IndexRange struct {
	From uint64
	To   uint64
}

// SplitRange splits an index range into batches of size batchSize.
func SplitRange(from, to, batchSize uint64) ([]IndexRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to index must be >= from index")
	}

	ranges := make([]IndexRange, 0, (to-from)/batchSize+1)
	start := from
	for start <= to {
		end := to
		if to-start+1 > batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, IndexRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}
