package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetaIsCurrent(t *testing.T) {
	asOf := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	m := NewMeta(asOf, "user-1", "created")

	assert.True(t, m.IsCurrent())
	assert.NotEmpty(t, m.VersionID)
	assert.Empty(t, m.PreviousVersionID)
	assert.Equal(t, asOf, m.ValidFrom)
	assert.Equal(t, MaxSentinel, m.ValidTo)
	assert.Equal(t, asOf, m.SystemFrom)
	assert.Equal(t, MaxSentinel, m.SystemTo)
	assert.Equal(t, "user-1", m.ChangedBy)
}

func TestSuccessorChainsWithoutGap(t *testing.T) {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	edited := created.Add(48 * time.Hour)

	head := NewMeta(created, "user-1", "created")
	next := head.Successor(edited, "user-2", "renamed")
	closed := head.Close(edited)

	require.NotEqual(t, head.VersionID, next.VersionID)
	assert.Equal(t, head.VersionID, next.PreviousVersionID)
	assert.Equal(t, closed.ValidTo, next.ValidFrom, "no gap between versions")
	assert.Equal(t, closed.SystemTo, next.SystemFrom)
	assert.False(t, closed.IsCurrent())
	assert.True(t, next.IsCurrent())
	assert.Equal(t, "user-2", next.ChangedBy)
	assert.Equal(t, "renamed", next.ChangeReason)
}

func TestDeletionVersion(t *testing.T) {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	deleted := created.Add(time.Hour)

	head := NewMeta(created, "user-1", "created")
	tombstone := head.Deletion(deleted, "user-2")

	assert.True(t, tombstone.IsDeleted)
	require.NotNil(t, tombstone.DeletedAt)
	assert.Equal(t, deleted, *tombstone.DeletedAt)
	assert.Equal(t, "user-2", tombstone.DeletedBy)
	assert.Equal(t, head.VersionID, tombstone.PreviousVersionID)
	assert.False(t, tombstone.IsCurrent(), "deleted version is never current")
}

func TestFilterCurrent(t *testing.T) {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	head := NewMeta(created, "user-1", "")

	var f Filter
	assert.True(t, f.Current())
	assert.True(t, f.Matches(head))
	assert.False(t, f.Matches(head.Close(created.Add(time.Hour))))
	assert.False(t, f.Matches(head.Deletion(created.Add(time.Hour), "user-1")))
}

func TestFilterBusinessTime(t *testing.T) {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	edited := created.Add(24 * time.Hour)

	head := NewMeta(created, "user-1", "")
	closed := head.Close(edited)
	next := head.Successor(edited, "user-1", "edited")

	before := created.Add(time.Hour)
	after := edited.Add(time.Hour)

	assert.True(t, AtBusinessTime(before).Matches(closed))
	assert.False(t, AtBusinessTime(before).Matches(next))
	assert.False(t, AtBusinessTime(after).Matches(closed))
	assert.True(t, AtBusinessTime(after).Matches(next))

	// boundary: validFrom is inclusive, validTo exclusive
	assert.False(t, AtBusinessTime(edited).Matches(closed))
	assert.True(t, AtBusinessTime(edited).Matches(next))
}

func TestFilterSystemTime(t *testing.T) {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	superseded := created.Add(24 * time.Hour)

	head := NewMeta(created, "user-1", "")
	closed := head.Close(superseded)
	next := head.Successor(superseded, "user-1", "edited")

	audit := created.Add(time.Hour)
	assert.True(t, AtSystemTime(audit).Matches(closed), "what the system knew before the edit")
	assert.False(t, AtSystemTime(audit).Matches(next))
	assert.True(t, AtSystemTime(superseded.Add(time.Hour)).Matches(next))
}

func TestFilterIncludeDeleted(t *testing.T) {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	deleted := created.Add(time.Hour)

	head := NewMeta(created, "user-1", "")
	tombstone := head.Deletion(deleted, "user-1")

	at := deleted.Add(time.Minute)
	assert.False(t, AtBusinessTime(at).Matches(tombstone))

	f := AtBusinessTime(at)
	f.IncludeDeleted = true
	assert.True(t, f.Matches(tombstone))
}
