// Package provisioning implements the high-level cluster commands as
// sequences of phases.
//
// # Core Types
//
// Context carries the configuration, the cluster controller, the storage
// orchestrator and an Observer. Phase is one step with Name() and
// Provision(). State accumulates results between phases (the running
// coordinator, authorized client CIDRs, the client configuration path,
// attach results and the observed worker count).
//
// # Commands
//
//   - LaunchCoordinator: start the coordinator, open its client ports and
//     write the client configuration.
//   - LaunchWorkers: start workers that inherit the coordinator's image, key,
//     type and placement.
//   - LaunchCluster: both of the above, then attach storage and wait for the
//     service to report every worker.
//   - AttachStorage, WaitForService, CoordinatorURL, DeleteCluster.
package provisioning
