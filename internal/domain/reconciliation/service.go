package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	ulid "github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/brightfund/ledgercore/internal/domain/account"
	"github.com/brightfund/ledgercore/internal/domain/errors"
	"github.com/brightfund/ledgercore/internal/domain/transaction"
	"github.com/brightfund/ledgercore/internal/domain/version"
)

// defaultFuzzyWindowDays is how far apart a line and a transaction may be
// dated and still fuzzy-match on amount.
const defaultFuzzyWindowDays = 3

// Service matches imported bank statement lines against unreconciled
// ledger transactions.
type Service struct {
	repo            Repository
	transactions    transaction.Repository
	accounts        account.Repository
	logger          *zap.Logger
	now             func() time.Time
	fuzzyWindowDays int
}

// NewService creates a new reconciliation service
func NewService(repo Repository, transactions transaction.Repository, accounts account.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:            repo,
		transactions:    transactions,
		accounts:        accounts,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
		fuzzyWindowDays: defaultFuzzyWindowDays,
	}
}

// SetFuzzyWindow overrides the fuzzy match date tolerance in days
func (s *Service) SetFuzzyWindow(days int) {
	if days > 0 {
		s.fuzzyWindowDays = days
	}
}

// CreateBankAccount registers a bank account and the ledger asset account
// its statements reconcile against.
func (s *Service) CreateBankAccount(ctx context.Context, orgID uuid.UUID, name string, ledgerAccountID uuid.UUID) (*BankAccount, error) {
	if name == "" {
		return nil, errors.NewValidationError("bank account name is required")
	}
	ledger, err := s.accounts.Get(ctx, orgID, ledgerAccountID, version.Filter{})
	if err != nil {
		return nil, err
	}
	if ledger.Type != account.Asset {
		return nil, errors.NewValidationError(
			fmt.Sprintf("linked ledger account must be an asset account, %s is %s", ledger.Code, ledger.Type))
	}

	ba := &BankAccount{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		Name:            name,
		LedgerAccountID: ledgerAccountID,
		CreatedAt:       s.now(),
	}
	if err := s.repo.CreateBankAccount(ctx, ba); err != nil {
		return nil, err
	}
	return ba, nil
}

// ImportStatement stores a statement and its pre-parsed lines, all
// UNMATCHED. Parsing bank export formats is the caller's job.
func (s *Service) ImportStatement(ctx context.Context, orgID, bankAccountID uuid.UUID, periodStart, periodEnd time.Time, lines []ImportLine) (*BankStatement, error) {
	if len(lines) == 0 {
		return nil, errors.NewValidationError("statement has no lines")
	}
	if periodEnd.Before(periodStart) {
		return nil, errors.NewValidationError("statement period end must not precede start")
	}
	if _, err := s.repo.GetBankAccount(ctx, orgID, bankAccountID); err != nil {
		return nil, err
	}

	st := &BankStatement{
		ID:             uuid.New(),
		OrganizationID: orgID,
		BankAccountID:  bankAccountID,
		PeriodStart:    periodStart.UTC().Truncate(24 * time.Hour),
		PeriodEnd:      periodEnd.UTC().Truncate(24 * time.Hour),
		Status:         StatementInProgress,
		CreatedAt:      s.now(),
	}
	if err := s.repo.CreateStatement(ctx, st); err != nil {
		return nil, err
	}

	rows := make([]StatementLine, 0, len(lines))
	for _, in := range lines {
		rows = append(rows, StatementLine{
			ID:              ulid.Make().String(),
			BankStatementID: st.ID,
			TransactionDate: in.TransactionDate.UTC().Truncate(24 * time.Hour),
			Description:     in.Description,
			ReferenceNumber: in.ReferenceNumber,
			Amount:          in.Amount,
			Status:          LineUnmatched,
			Confidence:      ConfidenceUnmatched,
		})
	}
	if err := s.repo.InsertLines(ctx, rows); err != nil {
		return nil, err
	}

	s.logger.Info("statement imported",
		zap.String("statementId", st.ID.String()),
		zap.Int("lines", len(rows)))
	return st, nil
}

// GetStatement retrieves a statement
func (s *Service) GetStatement(ctx context.Context, orgID, statementID uuid.UUID) (*BankStatement, error) {
	return s.repo.GetStatement(ctx, orgID, statementID)
}

// ListLines returns a statement's lines
func (s *Service) ListLines(ctx context.Context, orgID, statementID uuid.UUID, statuses ...LineStatus) ([]StatementLine, error) {
	if _, err := s.repo.GetStatement(ctx, orgID, statementID); err != nil {
		return nil, err
	}
	return s.repo.ListLines(ctx, statementID, statuses...)
}

// AutoMatchStatement pairs the statement's UNMATCHED lines with
// unreconciled ledger transactions on the linked account. Matching is
// greedy and first-come in ascending line id order, without backtracking:
// once a transaction is claimed it leaves the candidate pool. The whole run
// is applied atomically; concurrent runs on the same statement serialize at
// the store.
func (s *Service) AutoMatchStatement(ctx context.Context, orgID, statementID uuid.UUID) (*AutoMatchSummary, error) {
	st, err := s.repo.GetStatement(ctx, orgID, statementID)
	if err != nil {
		return nil, err
	}
	if st.Status != StatementInProgress {
		return nil, errors.NewInvalidStateError("statement is already completed")
	}
	ba, err := s.repo.GetBankAccount(ctx, orgID, st.BankAccountID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.ListLines(ctx, statementID, LineUnmatched)
	if err != nil {
		return nil, err
	}
	candidates, err := s.transactions.ListUnreconciled(ctx, orgID, ba.LedgerAccountID, st.PeriodStart, st.PeriodEnd)
	if err != nil {
		return nil, err
	}

	claimed := make(map[uuid.UUID]bool)
	summary := &AutoMatchSummary{Total: len(lines)}
	var pairs []ClaimedPair

	for i := range lines {
		line := &lines[i]
		best, confidence := s.findCandidate(line, candidates, claimed)
		if best == nil {
			summary.Unmatched++
			continue
		}
		claimed[best.ID] = true
		pairs = append(pairs, ClaimedPair{
			Line:          line,
			TransactionID: best.ID,
			Amount:        line.Amount.Abs(),
			Confidence:    confidence,
		})
		if confidence == ConfidenceExact {
			summary.ExactMatches++
		} else {
			summary.FuzzyMatches++
		}
	}

	matches, err := s.repo.ApplyAutoMatches(ctx, pairs)
	if err != nil {
		return nil, err
	}
	summary.Matches = matches

	s.logger.Info("auto match completed",
		zap.String("statementId", statementID.String()),
		zap.Int("total", summary.Total),
		zap.Int("exact", summary.ExactMatches),
		zap.Int("fuzzy", summary.FuzzyMatches),
		zap.Int("unmatched", summary.Unmatched))
	return summary, nil
}

// findCandidate returns the single best unclaimed transaction for the
// line, preferring exact matches, then fuzzy; ties break on smallest
// absolute date delta, then on transaction id. That tie-break is a
// documented policy, not an artifact of storage order.
func (s *Service) findCandidate(line *StatementLine, candidates []transaction.Transaction, claimed map[uuid.UUID]bool) (*transaction.Transaction, MatchConfidence) {
	if best := s.pickBest(line, candidates, claimed, true); best != nil {
		return best, ConfidenceExact
	}
	if best := s.pickBest(line, candidates, claimed, false); best != nil {
		return best, ConfidenceFuzzy
	}
	return nil, ConfidenceUnmatched
}

func (s *Service) pickBest(line *StatementLine, candidates []transaction.Transaction, claimed map[uuid.UUID]bool, exact bool) *transaction.Transaction {
	var best *transaction.Transaction
	var bestDelta int
	for i := range candidates {
		txn := &candidates[i]
		if claimed[txn.ID] {
			continue
		}
		if !line.Amount.Abs().Equal(txn.Amount) {
			continue
		}
		delta := dateDeltaDays(line.TransactionDate, txn.TransactionDate)
		if exact {
			if delta != 0 {
				continue
			}
			if line.ReferenceNumber != "" && txn.ReferenceNumber != "" && line.ReferenceNumber != txn.ReferenceNumber {
				continue
			}
		} else if delta > s.fuzzyWindowDays {
			continue
		}
		if best == nil || delta < bestDelta || (delta == bestDelta && txn.ID.String() < best.ID.String()) {
			best = txn
			bestDelta = delta
		}
	}
	return best
}

func dateDeltaDays(a, b time.Time) int {
	d := a.UTC().Truncate(24 * time.Hour).Sub(b.UTC().Truncate(24 * time.Hour))
	days := int(d.Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}

// ManualMatch allocates one or more transactions against a line. The sum
// of all matches for the line must never exceed its absolute amount; the
// line flips to MATCHED only at exact full coverage.
func (s *Service) ManualMatch(ctx context.Context, orgID uuid.UUID, lineID string, allocations []Allocation) (*StatementLine, error) {
	if len(allocations) == 0 {
		return nil, errors.NewValidationError("at least one allocation is required")
	}
	line, err := s.lineInOrg(ctx, orgID, lineID)
	if err != nil {
		return nil, err
	}
	if line.Status == LineSkipped || line.Status == LineConfirmed {
		return nil, errors.NewInvalidStateError(fmt.Sprintf("line is %s", line.Status))
	}

	existing, err := s.repo.ListMatchesForLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	covered := matchedSum(existing)
	lineAmount := line.Amount.Abs()

	asOf := s.now()
	matches := make([]Match, 0, len(allocations))
	for _, alloc := range allocations {
		if !alloc.Amount.IsPositive() {
			return nil, errors.NewValidationError("allocation amount must be positive")
		}
		txn, err := s.transactions.Get(ctx, orgID, alloc.TransactionID, version.Filter{})
		if err != nil {
			return nil, err
		}
		if txn.IsVoided {
			return nil, errors.NewInvalidStateError("cannot match a voided transaction")
		}
		covered = covered.Add(alloc.Amount)
		matches = append(matches, Match{
			ID:            ulid.Make().String(),
			LineID:        lineID,
			TransactionID: alloc.TransactionID,
			Amount:        alloc.Amount,
			Confidence:    ConfidenceManual,
			CreatedAt:     asOf,
		})
	}

	if covered.GreaterThan(lineAmount) {
		return nil, errors.NewExceedsLineAmountError(
			fmt.Sprintf("matches total %s exceeds line amount %s", covered.String(), lineAmount.String()))
	}

	newStatus := LineUnmatched
	if covered.Equal(lineAmount) {
		newStatus = LineMatched
	}
	if err := s.repo.AddManualMatches(ctx, line, matches, newStatus); err != nil {
		return nil, err
	}

	line.Status = newStatus
	line.Confidence = ConfidenceManual
	return line, nil
}

// UnmatchLine removes all of a line's matches and resets it to UNMATCHED.
// Confirmed lines have their transactions un-reconciled as well.
func (s *Service) UnmatchLine(ctx context.Context, orgID uuid.UUID, lineID string) (*StatementLine, error) {
	line, err := s.lineInOrg(ctx, orgID, lineID)
	if err != nil {
		return nil, err
	}
	matches, err := s.repo.ListMatchesForLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	txnIDs := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		txnIDs = append(txnIDs, m.TransactionID)
	}

	if err := s.repo.DeleteMatchesForLine(ctx, line, txnIDs); err != nil {
		return nil, err
	}
	line.Status = LineUnmatched
	line.Confidence = ConfidenceUnmatched
	return line, nil
}

// SkipLine marks a line as having no ledger counterpart, with a note
// explaining why (bank fees, interest, duplicates).
func (s *Service) SkipLine(ctx context.Context, orgID uuid.UUID, lineID, notes string) (*StatementLine, error) {
	if notes == "" {
		return nil, errors.NewValidationError("a note is required when skipping a line")
	}
	line, err := s.lineInOrg(ctx, orgID, lineID)
	if err != nil {
		return nil, err
	}
	if line.Status != LineUnmatched {
		return nil, errors.NewInvalidStateError(fmt.Sprintf("only unmatched lines can be skipped, line is %s", line.Status))
	}
	matches, err := s.repo.ListMatchesForLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return nil, errors.NewInvalidStateError("line has partial matches; unmatch it before skipping")
	}

	if err := s.repo.UpdateLineStatus(ctx, lineID, LineSkipped, ConfidenceUnmatched, notes); err != nil {
		return nil, err
	}
	line.Status = LineSkipped
	line.Notes = notes
	return line, nil
}

// ConfirmLine locks in a matched line and marks its transactions
// reconciled.
func (s *Service) ConfirmLine(ctx context.Context, orgID uuid.UUID, lineID string) (*StatementLine, error) {
	line, err := s.lineInOrg(ctx, orgID, lineID)
	if err != nil {
		return nil, err
	}
	if line.Status != LineMatched {
		return nil, errors.NewInvalidStateError(fmt.Sprintf("only matched lines can be confirmed, line is %s", line.Status))
	}
	matches, err := s.repo.ListMatchesForLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	txnIDs := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		txnIDs = append(txnIDs, m.TransactionID)
	}

	if err := s.repo.ConfirmLine(ctx, line, txnIDs); err != nil {
		return nil, err
	}
	line.Status = LineConfirmed
	return line, nil
}

// CompleteStatement finalizes a statement. Every line must be matched,
// confirmed or explicitly skipped first.
func (s *Service) CompleteStatement(ctx context.Context, orgID, statementID uuid.UUID) (*BankStatement, error) {
	st, err := s.repo.GetStatement(ctx, orgID, statementID)
	if err != nil {
		return nil, err
	}
	if st.Status != StatementInProgress {
		return nil, errors.NewInvalidStateError("statement is already completed")
	}
	unresolved, err := s.repo.CountUnresolvedLines(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if unresolved > 0 {
		return nil, errors.NewInvalidStateError(
			fmt.Sprintf("%d lines are still unmatched; match or skip them first", unresolved)).
			WithDetail("unresolvedLines", unresolved)
	}

	if err := s.repo.CompleteStatement(ctx, st); err != nil {
		return nil, err
	}
	completedAt := s.now()
	st.Status = StatementCompleted
	st.CompletedAt = &completedAt
	s.logger.Info("statement completed", zap.String("statementId", statementID.String()))
	return st, nil
}

func (s *Service) lineInOrg(ctx context.Context, orgID uuid.UUID, lineID string) (*StatementLine, error) {
	line, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetStatement(ctx, orgID, line.BankStatementID); err != nil {
		return nil, err
	}
	return line, nil
}

func matchedSum(matches []Match) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range matches {
		sum = sum.Add(m.Amount)
	}
	return sum
}
