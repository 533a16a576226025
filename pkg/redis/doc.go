// Package redis connects to Redis for the durable workflow store and the
// in-app broadcast hub.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := workflow.NewRedisStore(client, workflow.WithRedisKeyPrefix(cfg.KeyPrefix))
//
// Connect retries the initial ping; Healthcheck wraps a ping for readiness checks.
// Errors wrap the go-redis error with errors.Join.
package redis
