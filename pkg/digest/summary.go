package digest

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// previewSize is the number of titles listed in a digest body.
const previewSize = 3

// Group is a set of pending records sharing a grouping key, in retrieval order.
type Group struct {
	By      GroupBy
	Key     string
	Records []notifications.Record
}

// Count returns the number of records in the group.
func (g Group) Count() int { return len(g.Records) }

// IDs returns the record ids in group order.
func (g Group) IDs() []string {
	ids := make([]string, len(g.Records))
	for i, r := range g.Records {
		ids[i] = r.ID
	}
	return ids
}

// GroupRecords partitions recs by the given key. Groups are ordered by first
// appearance; records keep their input order inside a group.
func GroupRecords(recs []notifications.Record, by GroupBy) []Group {
	var groups []Group
	index := make(map[string]int)

	for _, rec := range recs {
		key := groupKey(rec, by)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{By: by, Key: key})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

func groupKey(rec notifications.Record, by GroupBy) string {
	if by == GroupByPriority {
		return string(rec.Priority.OrDefault())
	}
	return string(rec.Type)
}

// Summary is the first line of a digest body.
func Summary(g Group) string {
	n := g.Count()
	if g.By == GroupByPriority {
		return fmt.Sprintf("You have %d %s priority notifications", n, g.Key)
	}

	switch notifications.Type(g.Key) {
	case notifications.TypeBillDue:
		return fmt.Sprintf("You have %d bills due soon", n)
	case notifications.TypeBudgetAlert:
		return fmt.Sprintf("You have %d budget alerts", n)
	case notifications.TypeDebtReminder:
		return fmt.Sprintf("You have %d debt reminders", n)
	case notifications.TypeAchievement:
		return fmt.Sprintf("You have unlocked %d achievements!", n)
	case notifications.TypeScoreImprovement:
		return fmt.Sprintf("Your score has improved %d times", n)
	case notifications.TypeChallenge:
		return fmt.Sprintf("You have %d new challenges", n)
	case notifications.TypeReminder:
		return fmt.Sprintf("You have %d reminders", n)
	default:
		return fmt.Sprintf("You have %d new notifications", n)
	}
}

// Emoji returns the icon used in the digest title.
func Emoji(g Group) string {
	if g.By == GroupByPriority {
		switch notifications.Priority(g.Key) {
		case notifications.PriorityUrgent:
			return "🚨"
		case notifications.PriorityHigh:
			return "❗"
		default:
			return "🔔"
		}
	}

	switch notifications.Type(g.Key) {
	case notifications.TypeBillDue:
		return "📄"
	case notifications.TypeBudgetAlert:
		return "💰"
	case notifications.TypeDebtReminder:
		return "⚠️"
	case notifications.TypeAchievement:
		return "🏆"
	case notifications.TypeScoreImprovement:
		return "📈"
	case notifications.TypeChallenge:
		return "🎯"
	case notifications.TypeReminder:
		return "⏰"
	default:
		return "🔔"
	}
}

// Title renders "<emoji> <count> new notifications".
func Title(g Group) string {
	return fmt.Sprintf("%s %d new notifications", Emoji(g), g.Count())
}

// Body renders the summary, a blank line, up to three titles and an overflow line.
func Body(g Group) string {
	lines := []string{Summary(g), ""}
	for _, rec := range g.Records[:min(previewSize, len(g.Records))] {
		lines = append(lines, "• "+rec.Title)
	}
	if n := g.Count(); n > previewSize {
		lines = append(lines, fmt.Sprintf("... and %d more", n-previewSize))
	}
	return strings.Join(lines, "\n")
}
