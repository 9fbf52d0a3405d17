// Package redishost implements gallery.Store on Redis so that published
// frogs survive restarts and are shared between server replicas.
//
// Layout, relative to Config.KeyPrefix:
//
//	entry:<id>  JSON-encoded gallery.Entry
//	entries     sorted set of ids scored by insertion sequence
//	seq         INCR counter feeding the scores
//
// Add writes all three in a single script, so an id is either fully
// published or absent.
//
// Example:
//
//	store, err := redishost.NewFromEnv(ctx)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package redishost
