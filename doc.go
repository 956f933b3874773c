// Package collcache keeps a typed, cache-aside collection of records in an
// external key-value store (Redis or the in-process local store).
//
// A collection is lazily populated from a fallback producer the first time
// any operation finds its index empty, and afterwards supports Read, Add,
// Update, Delete and Replace.
//
// Components:
//   - Store: get / multi-get / set / delete plus set primitives (see store/).
//   - Codec[T]: (de)serializes T <-> []byte. JSON by default.
//   - Compressor: optional block compression of serialized records. LZ4 by default.
//
// Keys:
//
//	<collection>       - index: a set of record identifiers
//	<collection>:<id>  - one serialized (optionally compressed) record
//
// Only the index key carries Options.Expiration. When it expires the next
// operation re-initializes from the fallback and overwrites the item keys.
//
// Nothing is transactional. A mutation that fails halfway is not rolled
// back; it is reported through Hooks.PartialFailure and the error returned.
// Two callers seeing an empty index may both run the fallback.
//
// Usage:
//
//	st, _ := redisstore.New(redisstore.Config{Client: rdb})
//	col, _ := collcache.New(collcache.Options[Widget]{
//		Store:    st,
//		Fallback: loadWidgets,
//		IDFunc:   func(w Widget) string { return w.ID },
//	})
//	all, err := col.Read().Execute(ctx)
//	_, err = col.Update().ID("w1").Changes(func(w *Widget) error { w.Qty++; return nil }).Execute(ctx)
package collcache
