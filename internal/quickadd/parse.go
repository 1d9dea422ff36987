// Package quickadd parses one-line task descriptions such as
// "Write report !high due:friday #Marketing".
package quickadd

import (
	"strings"
	"time"

	"github.com/dori/tasktrackr/internal/model"
)

// Result is a parsed quick-add line
type Result struct {
	Draft model.TaskDraft
	// Board is the board name given with #name, without the hash
	Board string
}

// Parse splits text into title, priority, due date and board
func Parse(text string, now time.Time) Result {
	res := Result{
		Draft: model.TaskDraft{
			Status:   model.StatusTodo,
			Priority: model.PriorityMedium,
		},
	}

	var titleParts []string
	for _, word := range strings.Fields(text) {
		switch {
		// Board (#Marketing)
		case strings.HasPrefix(word, "#") && len(word) > 1:
			res.Board = strings.TrimPrefix(word, "#")

		// Priority (!low, !high, etc.)
		case strings.HasPrefix(word, "!"):
			if p, ok := model.ParsePriority(strings.TrimPrefix(word, "!")); ok {
				res.Draft.Priority = p
			} else {
				titleParts = append(titleParts, word)
			}

		// Due date (due:tomorrow, due:friday, due:2024-01-15)
		case strings.HasPrefix(strings.ToLower(word), "due:"):
			dateStr := word[len("due:"):]
			if parsed := ParseDate(dateStr, now); parsed != nil {
				res.Draft.DueDate = parsed
			} else {
				titleParts = append(titleParts, word)
			}

		default:
			titleParts = append(titleParts, word)
		}
	}

	res.Draft.Title = strings.Join(titleParts, " ")
	return res
}

// ParseDate understands today, tomorrow, weekday names, nextweek and a few
// numeric formats. Dates resolve to the end of the day. It returns nil when
// nothing matches.
func ParseDate(s string, now time.Time) *time.Time {
	s = strings.TrimSpace(s)
	today := endOfDay(now)

	switch strings.ToLower(s) {
	case "today":
		return &today
	case "tomorrow", "tom":
		t := today.AddDate(0, 0, 1)
		return &t
	case "monday", "mon":
		return nextWeekday(now, time.Monday)
	case "tuesday", "tue":
		return nextWeekday(now, time.Tuesday)
	case "wednesday", "wed":
		return nextWeekday(now, time.Wednesday)
	case "thursday", "thu":
		return nextWeekday(now, time.Thursday)
	case "friday", "fri":
		return nextWeekday(now, time.Friday)
	case "saturday", "sat":
		return nextWeekday(now, time.Saturday)
	case "sunday", "sun":
		return nextWeekday(now, time.Sunday)
	case "nextweek", "next week":
		t := today.AddDate(0, 0, 7)
		return &t
	}

	// Try parsing as date
	formats := []string{
		"2006-01-02",
		"01/02/2006",
		"01-02-2006",
		"Jan 2, 2006",
		"Jan 2",
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, s, now.Location()); err == nil {
			// If no year, use current year
			year := t.Year()
			if year == 0 {
				year = now.Year()
			}
			t = time.Date(year, t.Month(), t.Day(), 23, 59, 59, 0, now.Location())
			return &t
		}
	}

	return nil
}

// FormatDate renders a due date relative to now
func FormatDate(t, now time.Time) string {
	t = t.In(now.Location())

	if sameDay(t, now) {
		return "today"
	}

	if sameDay(t, now.AddDate(0, 0, 1)) {
		return "tomorrow"
	}

	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "yesterday"
	}

	if t.Year() == now.Year() {
		return t.Format("Mon, Jan 2")
	}

	return t.Format("Jan 2, 2006")
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func nextWeekday(now time.Time, day time.Weekday) *time.Time {
	today := endOfDay(now)

	daysUntil := int(day - now.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}

	t := today.AddDate(0, 0, daysUntil)
	return &t
}
