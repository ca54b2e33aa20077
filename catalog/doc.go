// Package catalog implements the dataset catalogue repositories.
//
// Entities form a four-level hierarchy, Dataset -> Version -> Edition ->
// Distribution, addressed by slash-delimited compound Ids:
//
//	my-dataset
//	my-dataset/1
//	my-dataset/1/20190528T133700
//	my-dataset/1/20190528T133700/<distribution-id>
//
// A shared generic engine provides get/list/create/update/patch/delete
// semantics; each repository adds its own id construction, validation, and
// latest-alias maintenance. Every parent scope carries a sentinel row at
// "<scope>/latest" mirroring its most recent child, giving O(1) access to
// "the latest version" and "the latest edition" without a range scan. The
// alias is overwritten, never merged, on every write that affects latest
// status, and callers never observe the literal ".../latest" Id.
//
// Repositories are constructed with [New] over an injected store; there is
// no package-level client state.
package catalog
