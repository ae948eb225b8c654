package agent

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tbxark/collectagent/types"
	"github.com/tbxark/collectagent/validate"
)

// ConfigResolver is the discovery collaborator contract: resolve a config
// name to a definition, nil when unknown.
type ConfigResolver interface {
	GetConfig(ctx context.Context, name string) (*types.CollectionConfig, error)
}

// configRegistry is the in-memory config cache owned by one Collector. Its
// lifetime is the collector's; it is not a process-wide singleton.
type configRegistry struct {
	mu      sync.RWMutex
	configs map[string]*types.CollectionConfig
}

func newConfigRegistry() *configRegistry {
	return &configRegistry{configs: map[string]*types.CollectionConfig{}}
}

func (r *configRegistry) get(name string) *types.CollectionConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configs[name]
}

func (r *configRegistry) put(cfg *types.CollectionConfig) {
	r.mu.Lock()
	r.configs[cfg.Name] = cfg
	r.mu.Unlock()
}

// RegisterConfig validates a collection config and makes it available to
// new sessions, both in the registry and in the durable config store.
func (c *Collector) RegisterConfig(ctx context.Context, cfg *types.CollectionConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid collection config: %w", err)
	}
	if err := validate.CheckConfigRules(cfg); err != nil {
		return fmt.Errorf("invalid collection config %q: %w", cfg.Name, err)
	}
	c.registry.put(cfg)
	if err := c.configs.Set(ctx, cfg.Name, cfg); err != nil {
		return fmt.Errorf("persist collection config %q: %w", cfg.Name, err)
	}
	return nil
}

// resolveConfig resolves in order: registry, discovery resolver, durable
// config store, and finally the session's embedded copy.
func (c *Collector) resolveConfig(ctx context.Context, name string, state *SessionState) (*types.CollectionConfig, error) {
	if cfg := c.registry.get(name); cfg != nil {
		return cfg, nil
	}
	if c.resolver != nil {
		cfg, err := c.resolver.GetConfig(ctx, name)
		if err == nil && cfg != nil {
			c.registry.put(cfg)
			return cfg, nil
		}
	}
	cfg, ok, err := c.configs.Get(ctx, name)
	if err == nil && ok {
		c.registry.put(cfg)
		return cfg, nil
	}
	if state != nil && state.EmbeddedConfig != nil {
		return state.EmbeddedConfig, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
}

// LoadConfigFile reads a CollectionConfig from a YAML schema file and
// validates it.
func LoadConfigFile(path string) (*types.CollectionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg types.CollectionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validate.CheckConfigRules(&cfg); err != nil {
		return nil, fmt.Errorf("config %q: %w", cfg.Name, err)
	}
	return &cfg, nil
}
