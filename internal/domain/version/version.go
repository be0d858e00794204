// Package version implements the bitemporal versioning primitive shared by
// every mutable business record. Entities are never updated in place: each
// edit closes the current version and appends a successor linked through
// PreviousVersionID, so the full edit history stays queryable along both the
// business-time axis (ValidFrom/ValidTo) and the system-time axis
// (SystemFrom/SystemTo).
package version

import (
	"time"

	ulid "github.com/oklog/ulid/v2"
)

// MaxSentinel marks an open-ended ValidTo or SystemTo interval. Comparisons
// always use this exact value, never NULL.
var MaxSentinel = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Meta carries the bitemporal bookkeeping fields of one entity version.
// Versioned models embed it next to their business fields.
type Meta struct {
	VersionID         string     `json:"versionId"`
	PreviousVersionID string     `json:"previousVersionId,omitempty"`
	ValidFrom         time.Time  `json:"validFrom"`
	ValidTo           time.Time  `json:"validTo"`
	SystemFrom        time.Time  `json:"systemFrom"`
	SystemTo          time.Time  `json:"systemTo"`
	IsDeleted         bool       `json:"isDeleted"`
	DeletedAt         *time.Time `json:"deletedAt,omitempty"`
	DeletedBy         string     `json:"deletedBy,omitempty"`
	ChangedBy         string     `json:"changedBy"`
	ChangeReason      string     `json:"changeReason,omitempty"`
}

// NewMeta builds the metadata for the head of a fresh version chain.
func NewMeta(asOf time.Time, actorID, reason string) Meta {
	return Meta{
		VersionID:    ulid.Make().String(),
		ValidFrom:    asOf.UTC(),
		ValidTo:      MaxSentinel,
		SystemFrom:   asOf.UTC(),
		SystemTo:     MaxSentinel,
		ChangedBy:    actorID,
		ChangeReason: reason,
	}
}

// Successor builds the metadata for the next version in the chain. The
// caller is responsible for closing m at the same asOf instant, so that
// closed.ValidTo == successor.ValidFrom with no gap.
func (m Meta) Successor(asOf time.Time, actorID, reason string) Meta {
	next := NewMeta(asOf, actorID, reason)
	next.PreviousVersionID = m.VersionID
	return next
}

// Deletion builds a successor version marked deleted. All business fields
// are carried forward unchanged by the caller.
func (m Meta) Deletion(asOf time.Time, actorID string) Meta {
	next := m.Successor(asOf, actorID, "deleted")
	deletedAt := asOf.UTC()
	next.IsDeleted = true
	next.DeletedAt = &deletedAt
	next.DeletedBy = actorID
	return next
}

// Close returns a copy of m with both intervals ended at asOf. This mirrors
// the conditional UPDATE the store performs; it exists so in-memory
// implementations and tests follow the same transition.
func (m Meta) Close(asOf time.Time) Meta {
	m.ValidTo = asOf.UTC()
	m.SystemTo = asOf.UTC()
	return m
}

// IsCurrent reports whether this version is the live one: open-ended on both
// axes and not deleted. Exactly one version per entity id may satisfy this.
func (m Meta) IsCurrent() bool {
	return m.SystemTo.Equal(MaxSentinel) && m.ValidTo.Equal(MaxSentinel) && !m.IsDeleted
}
