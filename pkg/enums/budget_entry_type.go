package enums

import "fmt"

// BudgetEntryType maps to the budget_entry_type enum in Postgres.
type BudgetEntryType string

const (
	BudgetEntryTypeIncome  BudgetEntryType = "income"
	BudgetEntryTypeExpense BudgetEntryType = "expense"
)

var validBudgetEntryTypes = []BudgetEntryType{
	BudgetEntryTypeIncome,
	BudgetEntryTypeExpense,
}

// String implements fmt.Stringer.
func (t BudgetEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value matches the canonical budget entry enum.
func (t BudgetEntryType) IsValid() bool {
	for _, candidate := range validBudgetEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseBudgetEntryType converts raw input into BudgetEntryType.
func ParseBudgetEntryType(value string) (BudgetEntryType, error) {
	for _, candidate := range validBudgetEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid budget entry type %q", value)
}
