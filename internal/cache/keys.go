package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Key builds a deterministic cache key from an operation name and its
// parameters. Parameter names are sorted lexicographically so equivalent
// requests with different argument orders map to the same key:
//
//	Key("events:range", map[string]string{"start": s, "end": e})
//	=> "events:range:end:<e>|start:<s>"
//
// Empty parameter values are skipped.
func Key(op string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name, value := range params {
		if value == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%s", name, params[name]))
	}
	if len(parts) == 0 {
		return op
	}
	return op + ":" + strings.Join(parts, "|")
}

// OptionsKey canonicalizes an arbitrary options map into a stable string.
// encoding/json writes map keys in sorted order, which gives the
// canonical form for free.
func OptionsKey(opts map[string]interface{}) string {
	data, err := json.Marshal(opts)
	if err != nil {
		// Maps of plain option values never fail to marshal; fall back
		// to a non-canonical representation rather than panicking.
		return fmt.Sprintf("%v", opts)
	}
	return string(data)
}
