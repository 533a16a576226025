package postgres

import (
	"strconv"
	"strings"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

const recordColumns = "id, recipient_id, organization_id, project_id, type, title, message, priority, data, read, scheduled_at, sent_at, expires_at, created_at"

// query accumulates positional arguments for a single statement.
type query struct {
	args []any
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

// where renders filter as a WHERE clause, or "" when it matches everything.
func (q *query) where(f notifications.Filter) string {
	var conds []string
	if len(f.IDs) > 0 {
		conds = append(conds, "id = ANY("+q.arg(f.IDs)+")")
	}
	if f.RecipientID != "" {
		conds = append(conds, "recipient_id = "+q.arg(f.RecipientID))
	}
	if f.Unread {
		conds = append(conds, "read = FALSE")
	}
	if f.Unsent {
		conds = append(conds, "sent_at IS NULL")
	}
	if f.ScheduledBefore != nil {
		conds = append(conds, "scheduled_at <= "+q.arg(*f.ScheduledBefore))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// set renders changes as SET assignments. An empty result means no-op.
func (q *query) set(c notifications.Changes) string {
	var parts []string
	switch {
	case c.SentAt != nil:
		parts = append(parts, "sent_at = "+q.arg(*c.SentAt))
	case c.ClearSentAt:
		parts = append(parts, "sent_at = NULL")
	}
	if c.Read != nil {
		parts = append(parts, "read = "+q.arg(*c.Read))
	}
	return strings.Join(parts, ", ")
}

func orderBy(o notifications.Order) string {
	if o == notifications.OrderCreatedDesc {
		return " ORDER BY created_at DESC, seq DESC"
	}
	return " ORDER BY created_at ASC, seq ASC"
}

func selectRecords(f notifications.Filter, opts notifications.FindOptions) (string, []any) {
	var q query
	sql := "SELECT " + recordColumns + " FROM notifications" + q.where(f) + orderBy(opts.OrderBy)
	if opts.Limit > 0 {
		sql += " LIMIT " + q.arg(opts.Limit)
	}
	return sql, q.args
}

func countRecords(f notifications.Filter) (string, []any) {
	var q query
	return "SELECT count(*) FROM notifications" + q.where(f), q.args
}

// updateFirst targets the oldest matching row only.
func updateFirst(f notifications.Filter, c notifications.Changes) (string, []any) {
	var q query
	set := q.set(c)
	if set == "" {
		return "", nil
	}
	sql := "UPDATE notifications SET " + set +
		" WHERE id = (SELECT id FROM notifications" + q.where(f) + orderBy(notifications.OrderCreatedAsc) + " LIMIT 1)"
	return sql, q.args
}

func updateAll(f notifications.Filter, c notifications.Changes) (string, []any) {
	var q query
	set := q.set(c)
	if set == "" {
		return "", nil
	}
	return "UPDATE notifications SET " + set + q.where(f), q.args
}
