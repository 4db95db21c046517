package model

import "time"

// Balance is the cached per-user rollup of the ledger. It is maintained
// transactionally with every ledger insert and must always reconcile:
// Current == TotalEarned - TotalSpent == SUM(transactions.amount).
type Balance struct {
	UserID      string
	Current     int64 // never negative
	TotalEarned int64 // sum of positive entries, monotonically non-decreasing
	TotalSpent  int64 // abs sum of negative entries, monotonically non-decreasing
	UpdatedAt   time.Time
}

func (b *Balance) Reconciles() bool {
	return b != nil && b.Current == b.TotalEarned-b.TotalSpent && b.Current >= 0
}
