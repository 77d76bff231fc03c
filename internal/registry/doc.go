// Package registry turns a configs root of per-organization folders into a
// queryable catalog of model cards:
//
//	<root>/<organization>/<filename-id>.json
//
// Files are grouped by their effective organization: the card's own
// "organization" field when it is a non-empty string, otherwise the folder
// the file lives in. The logical "model_id" resolves the same way against the
// filename stem. The filename stem is always kept as FilenameID because
// lookups address cards physically (folder + file name).
//
// Files by concern:
//
//   - loader.go: one pass over the tree, card decoding, identity resolution.
//   - catalog.go: the immutable result of a pass and its grouping rules.
//   - registry.go: Registry, its options and the public list/lookup calls.
//   - cache.go: opt-in fingerprint-keyed cache of scan results.
//   - watch.go: fsnotify watcher that invalidates the cache.
//   - errors.go: typed errors (IsModelNotFound).
//   - metrics.go: Prometheus collectors for scans.
//
// Unreadable or malformed card files never fail an operation: they are
// logged, listed in the ScanReport, and left out of results. A missing root
// behaves as an empty catalog. Only an existing but unreadable root is an
// error, reported once by New.
package registry
