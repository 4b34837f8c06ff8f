package userdata

import (
	"sort"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// EnvVar is a named value forwarded to instances when set.
type EnvVar struct {
	Name  string
	Value string
}

// EnvString builds the space separated shell assignments substituted for
// %ENV%. Forwarded variables come first (skipped when empty), then the
// operator supplied NAME=value strings, then pairs in key order. All values
// are shell quoted.
func EnvString(forwarded []EnvVar, envStrings []string, pairs map[string]string) string {
	var parts []string
	for _, v := range forwarded {
		if v.Value == "" {
			continue
		}
		parts = append(parts, v.Name+"="+shellescape.Quote(v.Value))
	}
	for _, s := range envStrings {
		parts = append(parts, quoteAssignment(s))
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+shellescape.Quote(pairs[k]))
	}
	return strings.Join(parts, " ")
}

func quoteAssignment(s string) string {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return s
	}
	return name + "=" + shellescape.Quote(value)
}
