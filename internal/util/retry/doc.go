// Package retry provides exponential backoff for cloud API calls and network
// probes that fail transiently.
//
// [WithExponentialBackoff] runs an operation until it succeeds, returns an
// error wrapped with [Fatal], the retry budget is spent, or the context ends.
package retry
