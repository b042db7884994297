// Package catalog serves the trending timers: a fixed table of holidays merged
// with targets derived from the current date.
package catalog

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/countdown/internal/dates"
	"github.com/pscheid92/countdown/internal/domain"
)

type entry struct {
	id     string
	name   string
	target [6]int // year, month, day, hour, minute, second
	theme  string
}

// Order here is the order of the landing page menu.
var staticTimers = []entry{
	{"christmas", "Christmas 2025", [6]int{2025, 12, 25, 0, 0, 0}, "theme-christmas"},
	{"new-year", "New Year 2026", [6]int{2026, 1, 1, 0, 0, 0}, "theme-newyear"},
	{"diwali", "Diwali 2025", [6]int{2025, 10, 21, 0, 0, 0}, "theme-diwali"},
	{"halloween", "Halloween 2025", [6]int{2025, 10, 31, 0, 0, 0}, "theme-halloween"},
	{"black-friday", "Black Friday 2025", [6]int{2025, 11, 28, 0, 0, 0}, "theme-blackfriday"},
	{"valentines", "Valentine's Day 2026", [6]int{2026, 2, 14, 0, 0, 0}, "theme-valentines"},
	{"easter", "Easter 2026", [6]int{2026, 4, 5, 0, 0, 0}, "theme-easter"},
	{"mothers-day", "Mother's Day 2026 (US)", [6]int{2026, 5, 10, 0, 0, 0}, "theme-mothersday"},
	{"fathers-day", "Father's Day 2026 (US)", [6]int{2026, 6, 21, 0, 0, 0}, "theme-fathersday"},
}

const (
	NextMondayID  = "next-monday"
	NextWeekendID = "next-weekend"
	MonthEndID    = "month-end"
)

// Catalog serves the trending timers. Dynamic targets are recomputed from
// the clock on every lookup.
type Catalog struct {
	clock clockwork.Clock
}

// New creates a catalog reading "now" from clock.
func New(clock clockwork.Clock) *Catalog {
	return &Catalog{clock: clock}
}

// All returns the static timers in table order followed by the dynamic ones.
// The slice is built fresh on every call.
func (c *Catalog) All() []domain.TrendingTimer {
	now := c.clock.Now()
	loc := now.Location()

	timers := make([]domain.TrendingTimer, 0, len(staticTimers)+3)
	for _, e := range staticTimers {
		t := e.target
		timers = append(timers, domain.TrendingTimer{
			ID:         e.id,
			Name:       e.name,
			TargetDate: time.Date(t[0], time.Month(t[1]), t[2], t[3], t[4], t[5], 0, loc),
			Theme:      e.theme,
		})
	}
	return append(timers, dynamicTimers(now)...)
}

// Resolve looks up a single trending timer by its slug.
func (c *Catalog) Resolve(id string) (domain.TrendingTimer, error) {
	for _, t := range c.All() {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.TrendingTimer{}, domain.ErrTimerNotFound
}

func dynamicTimers(now time.Time) []domain.TrendingTimer {
	return []domain.TrendingTimer{
		{ID: NextMondayID, Name: "Next Monday 😭", TargetDate: dates.NextMonday(now), Theme: "theme-monday"},
		{ID: NextWeekendID, Name: "Next Weekend", TargetDate: dates.NextWeekend(now), Theme: "theme-weekend"},
		{ID: MonthEndID, Name: "End of Month", TargetDate: dates.EndOfMonth(now), Theme: "theme-monthend"},
	}
}
