package core

import (
	"fmt"
	"sort"
	"strconv"
)

// Flatten turns a nested payload into dotted keys. Objects contribute
// "parent.child", lists contribute "parent.0", nil becomes "".
func Flatten(payload Payload) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		flattenInto(out, k, v)
	}
	return out
}

func flattenInto(out map[string]string, prefix string, v any) {
	switch t := v.(type) {
	case nil:
		out[prefix] = ""
	case Payload:
		flattenMap(out, prefix, t)
	case map[string]any:
		flattenMap(out, prefix, t)
	case []any:
		if len(t) == 0 {
			out[prefix] = ""
			return
		}
		for i, item := range t {
			flattenInto(out, prefix+"."+strconv.Itoa(i), item)
		}
	case []string:
		if len(t) == 0 {
			out[prefix] = ""
			return
		}
		for i, item := range t {
			out[prefix+"."+strconv.Itoa(i)] = item
		}
	case string:
		out[prefix] = t
	default:
		out[prefix] = fmt.Sprint(t)
	}
}

func flattenMap(out map[string]string, prefix string, m map[string]any) {
	if len(m) == 0 {
		out[prefix] = ""
		return
	}
	for k, v := range m {
		flattenInto(out, prefix+"."+k, v)
	}
}

// SortedKeys returns the keys of a flattened payload in lexical order
func SortedKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
