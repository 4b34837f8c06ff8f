package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("invalid storage manifest")

// MountableVolume is one volume of an instance's storage group.
type MountableVolume struct {
	VolumeID   string `json:"volume_id"`
	MountPoint string `json:"mount_point"`
	Device     string `json:"device"`
}

// Group is the storage of a single instance.
type Group []MountableVolume

// Manifest maps role names to volume groups in creation order.
type Manifest map[string][]Group

// ValidationError locates a malformed manifest entry.
type ValidationError struct {
	Role   string
	Group  int
	Volume int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Volume < 0 {
		return fmt.Sprintf("%v: role %q group %d: %s", ErrInvalid, e.Role, e.Group, e.Reason)
	}
	return fmt.Sprintf("%v: role %q group %d volume %d: %s", ErrInvalid, e.Role, e.Group, e.Volume, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validate checks that every volume carries an ID, a mount point and a device.
func (m Manifest) Validate() error {
	for _, role := range m.Roles() {
		for gi, g := range m[role] {
			if len(g) == 0 {
				return &ValidationError{Role: role, Group: gi, Volume: -1, Reason: "empty group"}
			}
			for vi, v := range g {
				var reason string
				switch {
				case v.VolumeID == "":
					reason = "missing volume_id"
				case v.MountPoint == "":
					reason = "missing mount_point"
				case v.Device == "":
					reason = "missing device"
				}
				if reason != "" {
					return &ValidationError{Role: role, Group: gi, Volume: vi, Reason: reason}
				}
			}
		}
	}
	return nil
}

// Roles returns the roles present in the manifest, sorted.
func (m Manifest) Roles() []string {
	roles := make([]string, 0, len(m))
	for r := range m {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// VolumeIDs returns the volume IDs of groups, in order.
func VolumeIDs(groups []Group) []string {
	var ids []string
	for _, g := range groups {
		for _, v := range g {
			ids = append(ids, v.VolumeID)
		}
	}
	return ids
}

// Clone returns a deep copy.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	for role, groups := range m {
		cp := make([]Group, len(groups))
		for i, g := range groups {
			cp[i] = append(Group(nil), g...)
		}
		out[role] = cp
	}
	return out
}

// Decode parses and validates a serialized manifest. Empty input is an empty
// manifest.
func Decode(data []byte) (Manifest, error) {
	m := Manifest{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if m == nil {
		m = Manifest{}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode serializes m with two-space indentation. Map keys are emitted in
// sorted order.
func Encode(m Manifest) ([]byte, error) {
	if m == nil {
		m = Manifest{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode storage manifest: %w", err)
	}
	return append(data, '\n'), nil
}
