// Package storage creates, attaches and deletes the block storage volumes of
// a cluster.
//
// Volume specs declare, per role, which volumes every instance gets. Creating
// storage provisions one volume group per instance and records it in the
// manifest. Attaching reconciles the manifest against live instances: groups
// whose volumes are all available are paired with instances that hold none
// of the role's volumes, and every volume of a pair is attached.
package storage
