package push

import "time"

// Config holds push gateway settings.
type Config struct {
	GatewayURL string `env:"PUSH_GATEWAY_URL,required"`
	// SigningSecret signs every request body. Empty disables signing.
	SigningSecret string        `env:"PUSH_SIGNING_SECRET"`
	MaxRetries    int           `env:"PUSH_MAX_RETRIES" envDefault:"3"`
	Timeout       time.Duration `env:"PUSH_TIMEOUT" envDefault:"10s"`
	// Circuit breaker: open after FailureThreshold consecutive failed sends,
	// try again after RecoveryTimeout.
	FailureThreshold int           `env:"PUSH_CIRCUIT_FAILURES" envDefault:"5"`
	RecoveryTimeout  time.Duration `env:"PUSH_CIRCUIT_RECOVERY" envDefault:"30s"`
}
