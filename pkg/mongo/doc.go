// Package mongo manages the connection to the document store holding
// subscription records.
//
// Configuration is read from the environment (MONGODB_*). New retries the
// initial connection a few times to ride out slow container start-up; once
// connected, the driver's own pooling and retryable reads/writes apply.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Client().Disconnect(context.Background())
package mongo
