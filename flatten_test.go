package vaultconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenNestedMaps(t *testing.T) {
	flat := Flatten(map[string]interface{}{
		"a": map[string]interface{}{
			"b": map[string]interface{}{
				"c": "v",
			},
		},
	})
	require.Equal(t, map[string]string{"a:b:c": "v"}, flat)
}

func TestFlattenArrays(t *testing.T) {
	flat := Flatten(map[string]interface{}{
		"a": []interface{}{
			json.Number("1"),
			json.Number("2"),
			map[string]interface{}{"x": "y"},
		},
	})
	require.Equal(t, map[string]string{
		"a:0":   "1",
		"a:1":   "2",
		"a:2:x": "y",
	}, flat)
}

func TestFlattenEmpty(t *testing.T) {
	require.Equal(t, map[string]string{}, Flatten(map[string]interface{}{}))
}

func TestFlattenScalars(t *testing.T) {
	flat := Flatten(map[string]interface{}{
		"enabled":  true,
		"disabled": false,
		"count":    json.Number("42"),
		"ratio":    0.5,
		"missing":  nil,
		"name":     "prod",
	})
	require.Equal(t, map[string]string{
		"enabled":  "true",
		"disabled": "false",
		"count":    "42",
		"ratio":    "0.5",
		"missing":  "",
		"name":     "prod",
	}, flat)
}

func TestFlattenDeterministic(t *testing.T) {
	tree := map[string]interface{}{
		"z": map[string]interface{}{"b": "1", "a": "2"},
		"a": []interface{}{"x", "y"},
		"m": "v",
	}
	require.Equal(t, Flatten(tree), Flatten(tree))
}

func TestFlattenEmbeddedJSONAtRoot(t *testing.T) {
	flat := Flatten(map[string]interface{}{
		"database": `{"user":"app","password":"p@ss"}`,
		"ports":    `[8080, 8443]`,
	})
	require.Equal(t, map[string]string{
		"database:user":     "app",
		"database:password": "p@ss",
		"ports:0":           "8080",
		"ports:1":           "8443",
	}, flat)
}

func TestFlattenEmbeddedJSONOnlyAppliesAtRoot(t *testing.T) {
	flat := Flatten(map[string]interface{}{
		"outer": map[string]interface{}{
			"inner": `{"user":"app"}`,
		},
	})
	require.Equal(t, map[string]string{"outer:inner": `{"user":"app"}`}, flat)
}

func TestFlattenMalformedJSONStaysRaw(t *testing.T) {
	flat := Flatten(map[string]interface{}{
		"broken":  `{"user":`,
		"braceish": "{not json at all",
		"trailing": `{"a":1} extra`,
	})
	require.Equal(t, map[string]string{
		"broken":   `{"user":`,
		"braceish": "{not json at all",
		"trailing": `{"a":1} extra`,
	}, flat)
}
