package push

import "errors"

var (
	ErrInvalidConfig       = errors.New("push: invalid config")
	ErrInvalidSubscription = errors.New("push: invalid subscription")
	ErrDeliveryFailed      = errors.New("push: delivery failed")
	ErrPermanentFailure    = errors.New("push: permanent delivery failure")
	ErrSubscriptionGone    = errors.New("push: subscription expired")
	ErrCircuitOpen         = errors.New("push: gateway circuit is open")
	ErrInvalidSignature    = errors.New("push: invalid signature")
)
