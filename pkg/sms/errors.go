package sms

import "errors"

var (
	ErrInvalidConfig  = errors.New("sms: invalid config")
	ErrInvalidMessage = errors.New("sms: invalid message")
	ErrGateway        = errors.New("sms: gateway request failed")
	ErrRejected       = errors.New("sms: message rejected by gateway")
)
