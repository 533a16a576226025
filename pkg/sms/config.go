package sms

import "time"

// Config holds SMS gateway settings.
type Config struct {
	GatewayURL string        `env:"SMS_GATEWAY_URL,required"`
	APIKey     string        `env:"SMS_API_KEY,required"`
	From       string        `env:"SMS_FROM"`
	RatePerSec int           `env:"SMS_RATE_PER_SECOND" envDefault:"10"`
	Timeout    time.Duration `env:"SMS_TIMEOUT" envDefault:"10s"`
}
