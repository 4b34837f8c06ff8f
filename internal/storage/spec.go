package storage

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// ErrNoSpec is returned when a spec document has no entry for a role.
var ErrNoSpec = errors.New("no volume spec for role")

// VolumeSpec declares one volume every instance of a role receives.
type VolumeSpec struct {
	SizeGB     int    `json:"size_gb"`
	MountPoint string `json:"mount_point"`
	Device     string `json:"device"`
	SnapshotID string `json:"snapshot_id,omitempty"`
}

// Specs maps roles to the volumes each of their instances receives.
type Specs map[string][]VolumeSpec

// ParseSpecs parses a JSON or YAML spec document.
func ParseSpecs(data []byte) (Specs, error) {
	var specs Specs
	if err := yaml.UnmarshalStrict(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse volume spec: %w", err)
	}
	if err := specs.Validate(); err != nil {
		return nil, err
	}
	return specs, nil
}

// LoadSpecs reads and parses the spec document at path.
func LoadSpecs(path string) (Specs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read volume spec: %w", err)
	}
	specs, err := ParseSpecs(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// Validate reports the first incomplete entry.
func (s Specs) Validate() error {
	for role, vols := range s {
		mounts := map[string]bool{}
		for i, v := range vols {
			switch {
			case v.SizeGB <= 0:
				return fmt.Errorf("role %s volume %d: size_gb must be positive", role, i)
			case v.MountPoint == "":
				return fmt.Errorf("role %s volume %d: mount_point is required", role, i)
			case v.Device == "":
				return fmt.Errorf("role %s volume %d: device is required", role, i)
			case mounts[v.MountPoint]:
				return fmt.Errorf("role %s volume %d: duplicate mount_point %s", role, i, v.MountPoint)
			}
			mounts[v.MountPoint] = true
		}
	}
	return nil
}

// ForRole returns the specs of role.
func (s Specs) ForRole(role string) ([]VolumeSpec, error) {
	vols, ok := s[role]
	if !ok || len(vols) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoSpec, role)
	}
	return vols, nil
}
