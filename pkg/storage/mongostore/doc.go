// Package mongostore keeps notification records and recipient contacts in
// MongoDB using the v2 driver.
//
//	client, err := mongostore.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := mongostore.NewStore(client.Database(cfg.Database), cfg)
//	if err := store.EnsureIndexes(ctx); err != nil {
//		return err
//	}
//
// Records are ordered by created_at with _id as the tie breaker. Update
// looks up the oldest match and then updates it by id.
package mongostore
