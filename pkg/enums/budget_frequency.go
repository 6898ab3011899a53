package enums

import "fmt"

// BudgetFrequency maps to the budget_frequency enum in Postgres.
type BudgetFrequency string

const (
	BudgetFrequencyOnce     BudgetFrequency = "once"
	BudgetFrequencyWeekly   BudgetFrequency = "weekly"
	BudgetFrequencyBiweekly BudgetFrequency = "biweekly"
	BudgetFrequencyMonthly  BudgetFrequency = "monthly"
	BudgetFrequencyYearly   BudgetFrequency = "yearly"
	BudgetFrequencyVariable BudgetFrequency = "variable"
)

var validBudgetFrequencies = []BudgetFrequency{
	BudgetFrequencyOnce,
	BudgetFrequencyWeekly,
	BudgetFrequencyBiweekly,
	BudgetFrequencyMonthly,
	BudgetFrequencyYearly,
	BudgetFrequencyVariable,
}

// IsValid reports whether the value matches the canonical frequency enum.
func (f BudgetFrequency) IsValid() bool {
	for _, candidate := range validBudgetFrequencies {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseBudgetFrequency converts raw input into BudgetFrequency.
func ParseBudgetFrequency(value string) (BudgetFrequency, error) {
	for _, candidate := range validBudgetFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid budget frequency %q", value)
}
