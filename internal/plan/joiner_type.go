package plan

// JoinerType is the comparison an elementary joiner performs between a left
// key and a right key.
type JoinerType int

const (
	Equal JoinerType = iota
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	RangeLessThan
	RangeGreaterThan
)

var joinerTypeNames = [...]string{
	Equal:              "EQUAL",
	LessThan:           "LESS_THAN",
	LessThanOrEqual:    "LESS_THAN_OR_EQUAL",
	GreaterThan:        "GREATER_THAN",
	GreaterThanOrEqual: "GREATER_THAN_OR_EQUAL",
	RangeLessThan:      "RANGE_LESS_THAN",
	RangeGreaterThan:   "RANGE_GREATER_THAN",
}

func (t JoinerType) String() string {
	if t < 0 || int(t) >= len(joinerTypeNames) {
		return "UNKNOWN"
	}
	return joinerTypeNames[t]
}

// Flip returns the type that holds for (b, a) whenever t holds for (a, b).
func (t JoinerType) Flip() JoinerType {
	switch t {
	case LessThan:
		return GreaterThan
	case LessThanOrEqual:
		return GreaterThanOrEqual
	case GreaterThan:
		return LessThan
	case GreaterThanOrEqual:
		return LessThanOrEqual
	case RangeLessThan:
		return RangeGreaterThan
	case RangeGreaterThan:
		return RangeLessThan
	default:
		return t
	}
}

// Matches reports whether t holds for a comparison result c, where c is
// negative, zero or positive as left is less than, equal to or greater than
// right.
func (t JoinerType) Matches(c int) bool {
	switch t {
	case Equal:
		return c == 0
	case LessThan, RangeLessThan:
		return c < 0
	case LessThanOrEqual:
		return c <= 0
	case GreaterThan, RangeGreaterThan:
		return c > 0
	case GreaterThanOrEqual:
		return c >= 0
	default:
		return false
	}
}

// IsRange reports whether t is one of the range types produced by
// overlapping joiners.
func (t JoinerType) IsRange() bool {
	return t == RangeLessThan || t == RangeGreaterThan
}

// Native reports whether runtimes can index t directly.
func (t JoinerType) Native() bool {
	return t == Equal || t == LessThan || t == LessThanOrEqual
}

// Ascending maps t onto a native type. When swapped is true the native type
// must be evaluated with the right key on the left: GreaterThan(l, r) holds
// exactly when LessThan(r, l) holds.
func (t JoinerType) Ascending() (native JoinerType, swapped bool) {
	switch t {
	case GreaterThan, GreaterThanOrEqual:
		return t.Flip(), true
	case RangeLessThan:
		return LessThan, false
	case RangeGreaterThan:
		return LessThan, true
	default:
		return t, false
	}
}
