// Package readiness waits for asynchronous cloud state to converge.
//
// [Until] re-fetches state at a fixed interval until a condition holds, the
// context ends, the poller's timeout elapses or its attempt budget is spent.
// [Probe] reads the worker count from the coordinator's status page and
// [WaitForService] combines both to block until a cluster is serving.
package readiness
