package enums

import "testing"

func TestParseBudgetEntryType(t *testing.T) {
	got, err := ParseBudgetEntryType("expense")
	if err != nil || got != BudgetEntryTypeExpense {
		t.Fatalf("expected expense, got %q err=%v", got, err)
	}
	if _, err := ParseBudgetEntryType("refund"); err == nil {
		t.Fatal("expected error for unknown entry type")
	}
	if BudgetEntryType("").IsValid() {
		t.Fatal("empty entry type must be invalid")
	}
}

func TestParseCorrectionMatchType(t *testing.T) {
	got, err := ParseCorrectionMatchType("exact")
	if err != nil || got != CorrectionMatchTypeExact {
		t.Fatalf("expected exact, got %q err=%v", got, err)
	}
	if _, err := ParseCorrectionMatchType("EXACT"); err == nil {
		t.Fatal("match types are case sensitive")
	}
}

func TestParseBudgetFrequency(t *testing.T) {
	for _, raw := range []string{"once", "weekly", "biweekly", "monthly", "yearly", "variable"} {
		if _, err := ParseBudgetFrequency(raw); err != nil {
			t.Fatalf("expected %q to parse: %v", raw, err)
		}
	}
	if BudgetFrequency("daily").IsValid() {
		t.Fatal("daily is not a supported frequency")
	}
}
