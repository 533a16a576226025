// Package config loads component configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11. Every
// configurable notifyplan component (digest, workflow, email, sms, push and
// the storage backends) exposes a Config struct with `env` tags, so a hosting
// service can do:
//
//	var cfg digest.Config
//	config.MustLoad(&cfg)
//	engine := digest.New(store, orchestrator, digest.WithConfig(cfg))
//
// Load caches one copy per type for the process lifetime. Parse skips the
// cache, and ResetCache clears it, which is mostly useful in tests.
package config
