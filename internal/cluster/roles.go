package cluster

// Cluster roles.
const (
	RoleCoordinator = "coordinator"
	RoleWorker      = "worker"
)

// Roles lists every role in launch order.
var Roles = []string{RoleCoordinator, RoleWorker}
