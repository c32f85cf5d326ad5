package chat

import "testing"

func TestDeriveTaskTypeSingleRoute(t *testing.T) {
	cases := []string{
		"generate daily warehouse report",
		"check INVENTORY levels",
		"  Analyze last week's data  ",
		"run an analysis",
		"completely unrelated request",
		"",
	}
	for _, input := range cases {
		if got := DeriveTaskType(input); got != TaskTypeDailyWarehouseReport {
			t.Fatalf("DeriveTaskType(%q) = %q, want %q", input, got, TaskTypeDailyWarehouseReport)
		}
	}
}
