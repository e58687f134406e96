// Package subscription tracks which endpoints subscribe to which message
// types.
//
// Changes arrive as messages, so the same change may be delivered more
// than once. Each change carries a request id; the registry keeps the ids
// of recently applied changes in a bounded lruset.LeastRecentlyUsedSet and
// ignores replays. A replay arriving after its id was evicted is applied
// again, which is harmless because subscribe and unsubscribe are
// idempotent on the subscription table itself.
package subscription
