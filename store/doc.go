// Package store provides the DynamoDB access layer for the metadata table.
//
// All catalogue entities live in a single wide table with a compound primary
// key (Id, Type) and a secondary index keyed (Type, Id). The store exposes
// the handful of primitives the repository layer is built on:
//
//   - [Store.GetByKey] - point read, optionally strongly consistent
//   - [Store.QueryByTypePrefix] - list all rows of a type under an Id prefix
//   - [Store.PutConditional] - write with an existence condition
//   - [Store.DeleteConditional] - delete with an existence condition
//   - [Store.TransactPutMultiple] - atomic multi-row write
//
// Conditional-check failures surface as [ErrConditionFailed] so callers can
// tell a lost uniqueness race from a throttle or outage. The store performs
// no retries; transient errors propagate unclassified.
package store
