// Package labels provides the label set attached to Hetzner Cloud resources.
//
// Hetzner has no security groups, so group membership is expressed as one
// label per group under the group.hdcluster.io prefix. Firewalls select their
// members with a label selector built by [GroupSelector].
package labels
