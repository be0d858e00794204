package version

import "time"

// Filter selects which version of each entity a read should see. The zero
// value is the current-version predicate used by every default read path.
// AsOf (business time) and SystemAt (audit time) are independent axes and
// may be combined.
type Filter struct {
	// AsOf selects the version whose validity interval contains the given
	// business instant: ValidFrom <= AsOf < ValidTo.
	AsOf *time.Time

	// SystemAt selects the version the system considered authoritative at
	// the given instant: SystemFrom <= SystemAt < SystemTo.
	SystemAt *time.Time

	// IncludeDeleted keeps soft-deleted versions in the result. Ignored for
	// current-version reads, which never return deleted rows.
	IncludeDeleted bool
}

// Current reports whether the filter is the plain current-version predicate.
func (f Filter) Current() bool {
	return f.AsOf == nil && f.SystemAt == nil
}

// Matches applies the filter to a version's metadata. The SQL repositories
// compile the same predicate into WHERE clauses; this form serves in-memory
// fakes and invariant checks.
func (f Filter) Matches(m Meta) bool {
	if f.Current() {
		return m.IsCurrent()
	}
	if !f.IncludeDeleted && m.IsDeleted {
		return false
	}
	if f.AsOf != nil {
		t := f.AsOf.UTC()
		if t.Before(m.ValidFrom) || !t.Before(m.ValidTo) {
			return false
		}
	}
	if f.SystemAt != nil {
		t := f.SystemAt.UTC()
		if t.Before(m.SystemFrom) || !t.Before(m.SystemTo) {
			return false
		}
	}
	return true
}

// AtBusinessTime returns a filter for a point-in-time business query.
func AtBusinessTime(t time.Time) Filter {
	return Filter{AsOf: &t}
}

// AtSystemTime returns a filter for an audit query against what the system
// knew at t.
func AtSystemTime(t time.Time) Filter {
	return Filter{SystemAt: &t}
}
