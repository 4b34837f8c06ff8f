// Package naming provides the deterministic names used for cluster resources.
//
// A cluster owns one cluster-wide group named after the cluster and one group
// per role named {cluster}-{role}. Servers, the storage manifest and the
// client configuration directory derive their names from the same cluster
// name so that a cluster can always be rediscovered from the provider alone.
package naming
