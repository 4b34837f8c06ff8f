package naming

import (
	"fmt"
	"strings"
)

// ClusterGroup is the group every instance of the cluster belongs to.
func ClusterGroup(cluster string) string {
	return cluster
}

// RoleGroup is the group holding the instances of a single role.
func RoleGroup(cluster, role string) string {
	return fmt.Sprintf("%s-%s", cluster, role)
}

// ClusterFromRoleGroup reverses RoleGroup. It reports false when group is not
// a group of the given role.
func ClusterFromRoleGroup(group, role string) (string, bool) {
	suffix := "-" + role
	if role == "" || !strings.HasSuffix(group, suffix) {
		return "", false
	}
	cluster := strings.TrimSuffix(group, suffix)
	if cluster == "" {
		return "", false
	}
	return cluster, true
}

// Server names a server launched into group on providers that require
// unique instance names.
func Server(group, suffix string) string {
	return fmt.Sprintf("%s-%s", group, suffix)
}

func Volume(suffix string) string {
	return fmt.Sprintf("hdcluster-%s", suffix)
}

// ManifestFile is the file (or object key suffix) holding the storage
// manifest of a cluster.
func ManifestFile(cluster string) string {
	return fmt.Sprintf("storage-%s.json", cluster)
}

// ClientConfigDir is the directory, relative to the state directory, that
// holds the generated client configuration of a cluster.
func ClientConfigDir(cluster string) string {
	return cluster
}
