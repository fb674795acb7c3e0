// Package pipeline persists work graphs.
//
// It wraps the [workgraph.Codec] output in a [Frame] (magic, format version,
// build id, length and xxhash64 checksum) and stores frames in a
// [cache.Cache]. The frame is owned by this layer; the codec itself never
// sees it.
//
// Anything wrong with a stored entry (foreign bytes, another format version,
// a checksum mismatch, or a payload the codec rejects as corrupt) is
// reported as [ErrCacheInvalid]. The [Runner] deletes such entries and
// treats them as misses, so the caller replans.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.LoadOrPlan(ctx, runner.Keyer.GraphKey("release"), func(ctx context.Context) ([]*plan.Node, error) {
//	    return io.ImportPlan("plan.toml")
//	})
package pipeline
