package model

import "time"

// AnalyticsOverview is the body of GET /api/users/analytics/overview.
type AnalyticsOverview struct {
	TotalUsers  int `json:"totalUsers"`
	NewUsers    int `json:"newUsers"`
	WeeklyUsers int `json:"weeklyUsers"`
	TodayUsers  int `json:"todayUsers"`
}

// RecentUser is one entry of GET /api/users/analytics/recent.
type RecentUser struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	Provider  string     `json:"provider,omitempty"`
}

// Dashboard bundles both analytics calls rendered on the dashboard page.
type Dashboard struct {
	Overview AnalyticsOverview
	Recent   []RecentUser
}
