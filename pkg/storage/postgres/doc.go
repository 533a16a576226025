// Package postgres stores notification records and recipient contacts in
// PostgreSQL through pgx/v5.
//
// Connect opens a pool with retries, Migrate applies the embedded goose
// migrations and NewStore returns a Store that implements both
// notifications.Storage and notifications.UserDirectory:
//
//	var cfg postgres.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	pool, err := postgres.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := postgres.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//	store := postgres.NewStore(pool)
//	orch := notifications.New(store, store, emailTransport, smsTransport)
//
// Find orders by creation time and breaks ties by insertion sequence.
// Update changes only the oldest matching record.
package postgres
