package framecache

// BudgetProvider supplies the byte budget. The manager reads it at the start of
// every eviction pass and after every Add, so implementations must be cheap and
// safe for concurrent use.
type BudgetProvider interface {
	MaxBytes() int64
}

// StaticBudget is a fixed byte budget.
type StaticBudget int64

// MaxBytes implements BudgetProvider.
func (b StaticBudget) MaxBytes() int64 { return int64(b) }

// BudgetFunc adapts a function to BudgetProvider.
type BudgetFunc func() int64

// MaxBytes implements BudgetProvider.
func (f BudgetFunc) MaxBytes() int64 { return f() }
