package models

// BucketPoint — агрегат по одному дню, неделе или месяцу.
type BucketPoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// StatsReport — отчёт по заработку. Не хранится, пересчитывается на каждый запрос.
type StatsReport struct {
	EarnedThisMonth        float64 `json:"earned_this_month"`
	EarnedLastMonth        float64 `json:"earned_last_month"`
	EarnedThisWeek         float64 `json:"earned_this_week"`
	PendingAmount          float64 `json:"pending_amount"`
	TotalEarned            float64 `json:"total_earned"`
	ProjectedEndOfMonth    float64 `json:"projected_end_of_month"`
	PotentialEarnings      float64 `json:"potential_earnings"`
	TotalProjected         float64 `json:"total_projected"`
	CompletedThisMonth     int     `json:"completed_this_month"`
	CompletedLastMonth     int     `json:"completed_last_month"`
	CompletedThisWeek      int     `json:"completed_this_week"`
	PendingTasks           int     `json:"pending_tasks"`
	TotalTasks             int     `json:"total_tasks"`
	TotalCompleted         int     `json:"total_completed"`
	AverageTaskAmount      float64 `json:"average_task_amount"`
	AverageCompletedAmount float64 `json:"average_completed_amount"`
	MonthProgress          float64 `json:"month_progress"`

	DailyStats   []BucketPoint `json:"daily_stats"`
	WeeklyStats  []BucketPoint `json:"weekly_stats"`
	MonthlyStats []BucketPoint `json:"monthly_stats"`
}
