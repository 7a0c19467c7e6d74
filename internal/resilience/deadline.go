package resilience

import (
	"context"
	"time"
)

// Deadline budget floors. Below TightBudget the request proceeds but
// cache writes and optional enrichment are disabled; below SafeModeBudget
// the request short-circuits to the uniform safe-mode result.
const (
	SafeModeBudget = 30 * time.Millisecond
	TightBudget    = 150 * time.Millisecond

	// DefaultBudget is the per-request deadline when the caller did not
	// set one on the context
	DefaultBudget = 900 * time.Millisecond
)

// WithBudget attaches the request deadline to the context unless the
// caller already supplied an earlier one
func WithBudget(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget <= 0 {
		budget = DefaultBudget
	}
	if existing, ok := ctx.Deadline(); ok && time.Until(existing) < budget {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}

// Remaining returns the time left on the context deadline. Contexts
// without a deadline report an effectively unlimited budget.
func Remaining(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return time.Hour
	}
	return time.Until(deadline)
}

// BudgetState classifies the remaining budget for degradation decisions
type BudgetState int

const (
	// BudgetOK means all stages may run
	BudgetOK BudgetState = iota
	// BudgetTight means cache writes and enrichment are skipped
	BudgetTight
	// BudgetExhausted means the request must short-circuit to safe mode
	BudgetExhausted
)

// CheckBudget classifies the remaining budget
func CheckBudget(ctx context.Context) BudgetState {
	remaining := Remaining(ctx)
	switch {
	case remaining <= SafeModeBudget:
		return BudgetExhausted
	case remaining <= TightBudget:
		return BudgetTight
	default:
		return BudgetOK
	}
}
