package chat

import "strings"

// TaskTypeDailyWarehouseReport is the only task type the dispatcher routes to
// today. The keyword matching below is a placeholder, not a real intent
// classifier: every recognized branch (and unrecognized input) maps here.
const TaskTypeDailyWarehouseReport = "DAILY_WAREHOUSE_REPORT"

var reportKeywords = []string{"warehouse", "inventory", "report", "daily"}

var analysisKeywords = []string{"analyze", "analysis", "data"}

// DeriveTaskType maps user input to a task type by keyword membership.
func DeriveTaskType(input string) string {
	text := strings.ToLower(strings.TrimSpace(input))

	taskType := TaskTypeDailyWarehouseReport
	if containsAny(text, reportKeywords) {
		taskType = TaskTypeDailyWarehouseReport
	} else if containsAny(text, analysisKeywords) {
		// Analysis requests also default to the warehouse report.
		taskType = TaskTypeDailyWarehouseReport
	}
	return taskType
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
