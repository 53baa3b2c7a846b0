package keyset

const (
	// NoLimit selects every remaining row. A page with NoLimit is always the
	// last one.
	NoLimit = -1

	MaxLimit     = 100
	DefaultLimit = 10
)

// ClampLimit fits a requested page size into [1, upper]. Non-positive sizes
// fall back to DefaultLimit. changed tells the caller the request was not
// honoured as is.
func ClampLimit(limit, upper int) (clamped int, changed bool) {
	switch {
	case limit <= 0:
		return DefaultLimit, true
	case limit > upper:
		return upper, true
	default:
		return limit, false
	}
}

// NormalizeLimit is ClampLimit with MaxLimit as the upper bound.
func NormalizeLimit(limit int) int {
	clamped, _ := ClampLimit(limit, MaxLimit)

	return clamped
}
