package domain

import "time"

const (
	// TimestampLayout is how target dates are rendered for the countdown script.
	TimestampLayout = "2006-01-02 15:04:05"
	// FormTimeLayout is the value format of an <input type="datetime-local">.
	FormTimeLayout = "2006-01-02T15:04"
)

// TrendingTimer is a named countdown not owned by any visitor. Dynamic entries
// (next Monday, month end, ...) are rebuilt on every lookup.
type TrendingTimer struct {
	ID         string
	Name       string
	TargetDate time.Time
	Theme      string
}

// Target returns the target date in TimestampLayout.
func (t TrendingTimer) Target() string {
	return t.TargetDate.Format(TimestampLayout)
}

// CustomTimer is a visitor-created countdown that lives in their session.
type CustomTimer struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	TargetDate    time.Time `json:"target_date"`
	BackgroundKey string    `json:"background_key"`
}

// Target returns the target date in TimestampLayout.
func (t CustomTimer) Target() string {
	return t.TargetDate.Format(TimestampLayout)
}
