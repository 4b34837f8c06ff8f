// Package cluster manages the instances and security groups of a named
// cluster.
//
// Every instance belongs to the cluster group, named after the cluster, and
// to one role group, named {cluster}-{role}. The role of an instance is
// derived from its role group membership. The cluster group admits all
// traffic between its members and SSH from anywhere; role groups carry the
// role specific ingress rules added with [Controller.AuthorizeRole].
//
// Launching is fire and forget: LaunchInstances returns a pending
// reservation, WaitForInstances blocks until all of it is running, and
// nothing is rolled back on failure.
package cluster
