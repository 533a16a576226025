package postgres

import (
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

func TestSelectRecords(t *testing.T) {
	t.Parallel()

	cutoff := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		filter   notifications.Filter
		opts     notifications.FindOptions
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "empty filter",
			wantSQL: "SELECT " + recordColumns + " FROM notifications ORDER BY created_at ASC, seq ASC",
		},
		{
			name:     "recipient unread newest first",
			filter:   notifications.Filter{RecipientID: "u1", Unread: true},
			opts:     notifications.FindOptions{OrderBy: notifications.OrderCreatedDesc, Limit: 20},
			wantSQL:  "SELECT " + recordColumns + " FROM notifications WHERE recipient_id = $1 AND read = FALSE ORDER BY created_at DESC, seq DESC LIMIT $2",
			wantArgs: []any{"u1", 20},
		},
		{
			name:     "due and unsent",
			filter:   notifications.Filter{IDs: []string{"a", "b"}, Unsent: true, ScheduledBefore: &cutoff},
			wantSQL:  "SELECT " + recordColumns + " FROM notifications WHERE id = ANY($1) AND sent_at IS NULL AND scheduled_at <= $2 ORDER BY created_at ASC, seq ASC",
			wantArgs: []any{[]string{"a", "b"}, cutoff},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, args := selectRecords(tt.filter, tt.opts)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCountRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filter   notifications.Filter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "empty filter",
			wantSQL: "SELECT count(*) FROM notifications",
		},
		{
			name:     "recipient unread",
			filter:   notifications.Filter{RecipientID: "u1", Unread: true},
			wantSQL:  "SELECT count(*) FROM notifications WHERE recipient_id = $1 AND read = FALSE",
			wantArgs: []any{"u1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, args := countRecords(tt.filter)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestUpdateStatements(t *testing.T) {
	t.Parallel()

	sent := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	read := true

	t.Run("update first numbers set args before where args", func(t *testing.T) {
		t.Parallel()
		sql, args := updateFirst(
			notifications.Filter{RecipientID: "u1"},
			notifications.Changes{SentAt: &sent, Read: &read},
		)
		assert.Equal(t,
			"UPDATE notifications SET sent_at = $1, read = $2 WHERE id = (SELECT id FROM notifications WHERE recipient_id = $3 ORDER BY created_at ASC, seq ASC LIMIT 1)",
			sql)
		assert.Equal(t, []any{sent, true, "u1"}, args)
	})

	t.Run("clear sent", func(t *testing.T) {
		t.Parallel()
		sql, args := updateAll(notifications.Filter{IDs: []string{"n1"}}, notifications.Changes{ClearSentAt: true})
		assert.Equal(t, "UPDATE notifications SET sent_at = NULL WHERE id = ANY($1)", sql)
		assert.Equal(t, []any{[]string{"n1"}}, args)
	})

	t.Run("sent at wins over clear", func(t *testing.T) {
		t.Parallel()
		sql, _ := updateAll(notifications.Filter{}, notifications.Changes{ClearSentAt: true, SentAt: &sent})
		assert.Equal(t, "UPDATE notifications SET sent_at = $1", sql)
	})

	t.Run("no changes", func(t *testing.T) {
		t.Parallel()
		sql, args := updateAll(notifications.Filter{RecipientID: "u1"}, notifications.Changes{})
		assert.Empty(t, sql)
		assert.Nil(t, args)
		sql, _ = updateFirst(notifications.Filter{}, notifications.Changes{})
		assert.Empty(t, sql)
	})
}

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		body, err := fs.ReadFile(migrations, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}

	first, err := fs.ReadFile(migrations, files[0])
	require.NoError(t, err)
	for _, col := range strings.Split(recordColumns, ", ") {
		assert.Contains(t, string(first), "    "+col+" ", col)
	}
}
