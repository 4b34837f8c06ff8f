// Package cloud defines the provider-neutral capability surface the cluster
// tooling is written against.
//
// A [Provider] groups three capabilities: security groups ([GroupManager]),
// compute instances ([InstanceManager]) and block storage volumes
// ([VolumeManager]). Adapters for concrete clouds live under
// internal/platform. Operations a provider cannot express return an error
// wrapping [ErrUnsupported]; lookups of unknown resources wrap [ErrNotFound].
package cloud
