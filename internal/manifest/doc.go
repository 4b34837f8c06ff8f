// Package manifest persists the mapping from cluster roles to the storage
// volumes created for them.
//
// A [Manifest] maps each role to an ordered list of volume groups, one group
// per instance, in creation order. It is the only record correlating
// "instance N of a role" with provider volume IDs, so it is validated on load
// and rewritten in full on every change.
//
// Stores assume a single writer. Two processes mutating the same manifest
// concurrently can lose updates.
package manifest
