package playlist

// RepeatMode governs what next and previous do at the queue boundaries.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatOne
	RepeatAll
)

// String returns the persisted form of the mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "none"
	}
}

// Next returns the mode that follows m in the none → one → all cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatOne
	case RepeatOne:
		return RepeatAll
	default:
		return RepeatNone
	}
}

// ParseRepeatMode converts a persisted string to a RepeatMode.
// Unknown values map to RepeatNone.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "one":
		return RepeatOne
	case "all":
		return RepeatAll
	default:
		return RepeatNone
	}
}

// Direction selects the neighbour Advance looks for.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Advance returns the index that follows index in a queue of length n.
// The second result is false when there is nowhere to go.
//
//	mode | forward at end | backward at start | elsewhere
//	none | none           | none              | ±1
//	one  | index          | index             | index
//	all  | 0              | n-1               | ±1
func Advance(index, n int, dir Direction, mode RepeatMode) (int, bool) {
	if n <= 0 || index < 0 || index >= n {
		return 0, false
	}
	if mode == RepeatOne {
		return index, true
	}
	switch dir {
	case Forward:
		if index+1 < n {
			return index + 1, true
		}
		if mode == RepeatAll {
			return 0, true
		}
	case Backward:
		if index > 0 {
			return index - 1, true
		}
		if mode == RepeatAll {
			return n - 1, true
		}
	}
	return 0, false
}
