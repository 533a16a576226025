package notifications

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/notifyplan/pkg/logger"
)

// PreferenceResolver derives channel preferences from directory contact data.
type PreferenceResolver struct {
	directory UserDirectory
	logger    *slog.Logger
}

// NewPreferenceResolver creates a resolver backed by directory.
func NewPreferenceResolver(directory UserDirectory, log *slog.Logger) *PreferenceResolver {
	if log == nil {
		log = slog.Default()
	}
	return &PreferenceResolver{directory: directory, logger: log}
}

// Resolve never fails: unknown recipients and lookup errors yield DefaultPreferences.
func (r *PreferenceResolver) Resolve(ctx context.Context, recipientID string) Preferences {
	if r.directory == nil {
		return DefaultPreferences()
	}

	contact, err := r.directory.FindUser(ctx, recipientID)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to resolve notification preferences, using defaults",
			logger.UserID(recipientID),
			logger.Error(err),
		)
		return DefaultPreferences()
	}
	if contact == nil {
		return DefaultPreferences()
	}

	return Preferences{
		Email: contact.Email != "",
		SMS:   contact.Phone != "",
		Push:  contact.PushSubscription != nil,
		InApp: true,
	}
}
