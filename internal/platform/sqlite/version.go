package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// metaColumns is the shared bitemporal column block of every versioned
// table, in the order metaRow scans and metaValues binds.
const metaColumns = `version_id, previous_version_id, valid_from, valid_to, system_from, system_to, is_deleted, deleted_at, deleted_by, changed_by, change_reason`

const metaPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

// metaValues binds a Meta for insertion, in metaColumns order
func metaValues(m version.Meta) []any {
	return []any{
		m.VersionID,
		nullString(m.PreviousVersionID),
		m.ValidFrom,
		m.ValidTo,
		m.SystemFrom,
		m.SystemTo,
		m.IsDeleted,
		m.DeletedAt,
		nullString(m.DeletedBy),
		m.ChangedBy,
		nullString(m.ChangeReason),
	}
}

// metaRow receives the bitemporal column block of one scanned row
type metaRow struct {
	versionID    string
	previousID   sql.NullString
	validFrom    time.Time
	validTo      time.Time
	systemFrom   time.Time
	systemTo     time.Time
	isDeleted    bool
	deletedAt    sql.NullTime
	deletedBy    sql.NullString
	changedBy    string
	changeReason sql.NullString
}

// dest returns scan destinations in metaColumns order
func (r *metaRow) dest() []any {
	return []any{
		&r.versionID,
		&r.previousID,
		&r.validFrom,
		&r.validTo,
		&r.systemFrom,
		&r.systemTo,
		&r.isDeleted,
		&r.deletedAt,
		&r.deletedBy,
		&r.changedBy,
		&r.changeReason,
	}
}

func (r *metaRow) toMeta() version.Meta {
	m := version.Meta{
		VersionID:         r.versionID,
		PreviousVersionID: r.previousID.String,
		ValidFrom:         r.validFrom.UTC(),
		ValidTo:           r.validTo.UTC(),
		SystemFrom:        r.systemFrom.UTC(),
		SystemTo:          r.systemTo.UTC(),
		IsDeleted:         r.isDeleted,
		DeletedBy:         r.deletedBy.String,
		ChangedBy:         r.changedBy,
		ChangeReason:      r.changeReason.String,
	}
	if r.deletedAt.Valid {
		t := r.deletedAt.Time.UTC()
		m.DeletedAt = &t
	}
	return m
}

// temporalClause compiles a version filter into a WHERE fragment. The zero
// filter is the current-version predicate applied by every default read.
func temporalClause(f version.Filter) (string, []any) {
	if f.Current() {
		return "system_to = ? AND valid_to = ? AND is_deleted = 0",
			[]any{version.MaxSentinel, version.MaxSentinel}
	}

	var clauses []string
	var args []any
	if f.AsOf != nil {
		clauses = append(clauses, "valid_from <= ? AND valid_to > ?")
		t := f.AsOf.UTC()
		args = append(args, t, t)
	}
	if f.SystemAt != nil {
		clauses = append(clauses, "system_from <= ? AND system_to > ?")
		t := f.SystemAt.UTC()
		args = append(args, t, t)
	}
	if !f.IncludeDeleted {
		clauses = append(clauses, "is_deleted = 0")
	}
	return strings.Join(clauses, " AND "), args
}

// closeVersion ends the targeted version's validity and system intervals at
// asOf. The conditional UPDATE is the optimistic concurrency token: zero
// affected rows means another writer closed the version first, and the
// whole enclosing unit must abort.
func closeVersion(ctx context.Context, q dbtx, table, versionID string, asOf time.Time, entityLabel string) error {
	res, err := q.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET valid_to = ?, system_to = ? WHERE version_id = ? AND system_to = ?", table),
		asOf.UTC(), asOf.UTC(), versionID, version.MaxSentinel)
	if err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to close %s version", entityLabel), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternalError("failed to read affected row count", err)
	}
	if n == 0 {
		return errors.NewConflictError(fmt.Sprintf("%s was modified concurrently", entityLabel))
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
