package notifications

import "errors"

var (
	// ErrRecipientUnreachable is returned when the recipient has no contact method for a channel.
	ErrRecipientUnreachable = errors.New("notifications: recipient unreachable on channel")

	// ErrChannelDeliveryFailed is returned when a transport reports a failed send.
	ErrChannelDeliveryFailed = errors.New("notifications: channel delivery failed")

	// ErrConfiguration is returned when the shared orchestrator is used before Init.
	ErrConfiguration = errors.New("notifications: orchestrator requires adapters, call Init or New first")

	// ErrNotificationNotFound is returned when no record matches a filter.
	ErrNotificationNotFound = errors.New("notifications: notification not found")

	// ErrUnsupportedChannel is returned for channels outside the known set.
	ErrUnsupportedChannel = errors.New("notifications: unsupported channel")

	// ErrInvalidRecord is returned by storages for records missing required fields.
	ErrInvalidRecord = errors.New("notifications: invalid record")
)
