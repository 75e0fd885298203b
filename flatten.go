package vaultconfig

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Flatten converts a tree of nested maps, arrays and scalars into a flat
// mapping from colon-delimited key path to string value. Array elements get
// their integer index as a path segment. Booleans are rendered lowercase and
// nulls keep their key with an empty value.
//
// String values directly under the secret root that look like serialized
// JSON objects or arrays are parsed and flattened as structure; the same
// heuristic is deliberately not applied at deeper levels, where the store
// already delivers typed values.
func Flatten(tree map[string]interface{}) map[string]string {
	out := make(map[string]string, len(tree))
	flattenMap(out, "", tree, true)
	return out
}

func flattenMap(out map[string]string, prefix string, tree map[string]interface{}, root bool) {
	for key, value := range tree {
		childKey := key
		if prefix != "" {
			childKey = prefix + ":" + key
		}
		flattenValue(out, childKey, value, root)
	}
}

func flattenValue(out map[string]string, key string, value interface{}, root bool) {
	switch v := value.(type) {
	case map[string]interface{}:
		flattenMap(out, key, v, false)
	case []interface{}:
		for i, elem := range v {
			flattenValue(out, key+":"+strconv.Itoa(i), elem, false)
		}
	case string:
		if root {
			if parsed, ok := parseEmbeddedJSON(v); ok {
				flattenValue(out, key, parsed, false)
				return
			}
		}
		out[key] = v
	case bool:
		out[key] = strconv.FormatBool(v)
	case json.Number:
		out[key] = v.String()
	case float64:
		out[key] = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		out[key] = strconv.Itoa(v)
	case int64:
		out[key] = strconv.FormatInt(v, 10)
	case nil:
		out[key] = ""
	default:
		out[key] = fmt.Sprintf("%v", v)
	}
}

// parseEmbeddedJSON reports whether s is a complete JSON object or array,
// and returns the decoded structure if so. Scalar JSON ("42", `"x"`) is
// intentionally not treated as structure.
func parseEmbeddedJSON(s string) (interface{}, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var parsed interface{}
	if err := dec.Decode(&parsed); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return parsed, true
}
