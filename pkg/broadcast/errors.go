package broadcast

import "errors"

var (
	ErrHubClosed       = errors.New("broadcast: hub is closed")
	ErrEncodeRecord    = errors.New("broadcast: failed to encode record")
	ErrPublishFailed   = errors.New("broadcast: publish failed")
	ErrSubscribeFailed = errors.New("broadcast: subscribe failed")
)
