// Package patch funnels every mutation of a session's collected data
// through RFC6902 operations, so first writes, enhancement edits and
// initial-data seeding share one audited path.
package patch

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

const (
	OperationAdd     = "add"
	OperationReplace = "replace"
	OperationRemove  = "remove"
)

type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// SetOp builds the operation that writes value to a field. Apply rewrites
// it to an add when the field is not present yet.
func SetOp(field string, value any) Operation {
	return Operation{Op: OperationReplace, Path: "/" + escapeJSONPointer(field), Value: value}
}

// RemoveOp builds the operation that clears a field.
func RemoveOp(field string) Operation {
	return Operation{Op: OperationRemove, Path: "/" + escapeJSONPointer(field)}
}

// Apply applies ops to the collected data and returns the new map. The
// input map is not mutated. Replace ops on absent fields are rewritten to
// add, and remove ops on absent fields are dropped.
func Apply(data map[string]any, ops []Operation) (map[string]any, error) {
	if len(ops) == 0 {
		return data, nil
	}
	if data == nil {
		data = map[string]any{}
	}

	currentJSON, err := sonic.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collected data: %w", err)
	}

	ops = fixOperations(data, ops)

	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}
	decoded, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	modifiedJSON, err := decoded.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}

	var result map[string]any
	if err := sonic.Unmarshal(modifiedJSON, &result); err != nil {
		return nil, fmt.Errorf("patch produced invalid collected data: %w", err)
	}
	return result, nil
}

func fixOperations(data map[string]any, ops []Operation) []Operation {
	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		field := unescapeJSONPointer(strings.TrimPrefix(op.Path, "/"))
		_, exists := data[field]
		switch op.Op {
		case OperationReplace:
			if !exists {
				op.Op = OperationAdd
			}
			fixed = append(fixed, op)
		case OperationRemove:
			if exists {
				fixed = append(fixed, op)
			}
		default:
			fixed = append(fixed, op)
		}
	}
	return fixed
}

func escapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

func unescapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}
