package redis

import "errors"

var (
	ErrEmptyConnectionURL           = errors.New("redis: empty connection url")
	ErrFailedToParseRedisConnString = errors.New("redis: failed to parse connection url")
	ErrRedisNotReady                = errors.New("redis: server did not answer ping in time")
	ErrHealthcheckFailed            = errors.New("redis: healthcheck failed")
)
