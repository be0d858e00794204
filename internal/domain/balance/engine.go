// Package balance encodes the double-entry sign convention in one place.
// Every balance change in the system, whether from transaction posting,
// voiding, closing entries, or period reopening, flows through Post and
// Reverse; no other code writes an account balance.
package balance

import (
	"github.com/shopspring/decimal"

	"github.com/brightfund/ledgercore/internal/domain/account"
)

// DebitDelta returns the change a debit of amount causes to the balance of
// an account of type t. Debits increase assets and expenses and decrease
// liabilities, revenue and equity.
func DebitDelta(t account.Type, amount decimal.Decimal) decimal.Decimal {
	switch t {
	case account.Asset, account.Expense:
		return amount
	default:
		return amount.Neg()
	}
}

// CreditDelta returns the change a credit of amount causes to the balance of
// an account of type t. It is the mirror of DebitDelta.
func CreditDelta(t account.Type, amount decimal.Decimal) decimal.Decimal {
	return DebitDelta(t, amount).Neg()
}

// Post applies a posting of amount debiting an account with balance
// debitBal of type debitType and crediting an account with balance creditBal
// of type creditType. It returns the two new balances for caller-side
// auditing; it performs no I/O.
func Post(debitType, creditType account.Type, debitBal, creditBal, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return debitBal.Add(DebitDelta(debitType, amount)),
		creditBal.Add(CreditDelta(creditType, amount))
}

// Reverse applies the exact algebraic inverse of Post for the same
// arguments, so Reverse after Post is a net zero effect on both balances.
func Reverse(debitType, creditType account.Type, debitBal, creditBal, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return debitBal.Sub(DebitDelta(debitType, amount)),
		creditBal.Sub(CreditDelta(creditType, amount))
}
