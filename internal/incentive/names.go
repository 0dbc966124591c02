package incentive

import (
	"sort"
	"strings"
)

// legacyDelimiter joined several people into one free-text technician name.
const legacyDelimiter = "&"

const displaySeparator = " + "

// SplitNames flattens technician names into individual people. Each value is
// split on the legacy "&" delimiter and trimmed; blanks are dropped. Names
// compare case-insensitively and the first spelling wins.
func SplitNames(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		for _, part := range strings.Split(r, legacyDelimiter) {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			key := nameKey(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// JoinNames renders a technician list for reports and exports.
func JoinNames(names []string) string {
	return strings.Join(names, displaySeparator)
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
