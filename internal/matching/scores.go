package matching

// Specificity counts the segment kinds of a compiled pattern. It orders
// overlapping patterns so that the most literal one is tried first.
type Specificity struct {
	Statics   int
	Dynamics  int
	Wildcards int
}

// MoreSpecificThan reports whether s should be preferred over o when both
// match the same path. Equal specificities return false so that a stable
// sort keeps registration order.
func (s Specificity) MoreSpecificThan(o Specificity) bool {
	if s.Wildcards != o.Wildcards {
		return s.Wildcards < o.Wildcards
	}
	if s.Wildcards > 0 {
		// Both patterns end in a wildcard: the longer literal prefix wins.
		if s.Statics != o.Statics {
			return s.Statics > o.Statics
		}
		return s.Dynamics > o.Dynamics
	}
	if s.Dynamics != o.Dynamics {
		return s.Dynamics < o.Dynamics
	}
	return s.Statics > o.Statics
}
