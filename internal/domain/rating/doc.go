// Package rating holds the pure decision and aggregation rules: when to surface
// the app rating prompt, and how a bucket of reviews is summarised and ordered.
// Nothing here touches storage or the clock; callers pass "now" explicitly.
package rating
