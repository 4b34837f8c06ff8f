// Package hcloud implements cloud.Provider on the Hetzner Cloud API.
//
// Hetzner has no security groups, so a group is a firewall of the same name
// applied through a label selector to every server carrying the group's
// membership label (see internal/util/labels). Firewalls cannot admit
// traffic by source group, so group-sourced rules report
// cloud.ErrUnsupported, as do volume snapshots.
//
// # Generic Operations
//
// DeleteOperation and EnsureOperation give firewalls and volumes consistent
// get-or-create and idempotent delete semantics. Deletes of locked or
// still-referenced resources are retried with exponential backoff.
//
// # Retry and Timeout Configuration
//
// Retry attempts, the initial retry delay and the delete timeout come from
// config.Timeouts (HDCLUSTER_RETRY_MAX_ATTEMPTS, HDCLUSTER_RETRY_INITIAL_DELAY,
// HDCLUSTER_TIMEOUT_DELETE).
package hcloud
