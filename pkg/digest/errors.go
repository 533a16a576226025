package digest

import "errors"

var (
	ErrLoadBacklog = errors.New("digest: failed to load pending notifications")
	ErrMarkSent    = errors.New("digest: failed to mark notifications as sent")
)
