package patch

import (
	"github.com/tbxark/collectagent/types"
)

// SeedOps builds the operations that pre-seed a new session from a
// config's initial data. Unknown fields and empty values are skipped.
func SeedOps(cfg *types.CollectionConfig, initial map[string]any) []Operation {
	if len(initial) == 0 {
		return nil
	}
	ops := make([]Operation, 0, len(initial))
	for i := range cfg.Fields {
		name := cfg.Fields[i].Name
		v, ok := initial[name]
		if !ok || !types.HasValue(v) {
			continue
		}
		ops = append(ops, SetOp(name, v))
	}
	return ops
}
