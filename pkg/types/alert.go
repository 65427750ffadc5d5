package types

import "time"

// AlertType categorizes what an alert is about.
type AlertType string

const (
	AlertTypeProduction   AlertType = "production"
	AlertTypeWeather      AlertType = "weather"
	AlertTypePerformance  AlertType = "performance"
	AlertTypeMaintenance  AlertType = "maintenance"
	AlertTypeOptimization AlertType = "optimization"
)

// AlertSeverity is how urgent an alert is.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// AlertRetention is how long generated alerts are kept before being purged.
const AlertRetention = 7 * 24 * time.Hour

// Alert is a single categorized notification produced by the rule evaluator.
// Same-day alerts are replaced wholesale on each generation run, so repeated
// runs within a day never duplicate.
type Alert struct {
	ID        string        `json:"id,omitempty"`
	Type      AlertType     `json:"type"`
	Severity  AlertSeverity `json:"severity"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"createdAt"`
}
