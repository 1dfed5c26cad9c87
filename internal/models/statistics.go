package models

// ClassStat accumulates totals for one class type.
type ClassStat struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Statistics is the completion summary for a date range.
type Statistics struct {
	TotalWeekdays     int                 `json:"total_weekdays"`
	CompletedWeekdays int                 `json:"completed_weekdays"`
	RemainingWeekdays int                 `json:"remaining_weekdays"`
	TotalClasses      int                 `json:"total_classes"`
	CompletedClasses  int                 `json:"completed_classes"`
	ClassStats        map[int64]ClassStat `json:"class_stats"`
}
