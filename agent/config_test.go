package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/collectagent/types"
)

func TestRegisterConfigValidates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, err := New()
	require.NoError(t, err)

	err = c.RegisterConfig(ctx, &types.CollectionConfig{Name: "broken"})
	assert.Error(t, err, "a config needs at least one field")

	err = c.RegisterConfig(ctx, &types.CollectionConfig{
		Name:   "bad_select",
		Fields: []types.Field{{Name: "level", Type: types.FieldSelect, Validation: "required"}},
	})
	assert.Error(t, err, "select fields need options")

	err = c.RegisterConfig(ctx, &types.CollectionConfig{
		Name:   "bad_rule",
		Fields: []types.Field{{Name: "title", Type: types.FieldText, Validation: "required|frobnicate"}},
	})
	assert.Error(t, err)

	err = c.RegisterConfig(ctx, stateConfig(false))
	assert.NoError(t, err)
}

func TestResolveConfigFallsBackToEmbedded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, err := New()
	require.NoError(t, err)

	_, err = c.resolveConfig(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrConfigNotFound)

	// A session created before the config disappeared still works off its
	// embedded copy.
	embedded := stateConfig(false)
	cfg, err := c.resolveConfig(ctx, embedded.Name, &SessionState{EmbeddedConfig: embedded})
	require.NoError(t, err)
	assert.Equal(t, embedded.Name, cfg.Name)
}

type staticResolver struct {
	cfg *types.CollectionConfig
}

func (r staticResolver) GetConfig(ctx context.Context, name string) (*types.CollectionConfig, error) {
	if r.cfg != nil && r.cfg.Name == name {
		return r.cfg, nil
	}
	return nil, nil
}

func TestResolveConfigUsesResolver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := stateConfig(false)
	c, err := New(WithConfigResolver(staticResolver{cfg: cfg}))
	require.NoError(t, err)

	got, err := c.resolveConfig(ctx, cfg.Name, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, got.Name)
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "course.yaml")
	content := `name: course_creation
confirm_before_complete: true
allow_enhancement: true
fields:
  - name: title
    description: The name of the course
    type: text
    validation: required|min:3
  - name: level
    type: select
    validation: required
    options: [beginner, advanced]
output_schema:
  type: object
  properties:
    title:
      type: string
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "course_creation", cfg.Name)
	assert.True(t, cfg.ConfirmBeforeComplete)
	require.Len(t, cfg.Fields, 2)
	assert.Equal(t, types.FieldSelect, cfg.Fields[1].Type)
	assert.Equal(t, []string{"beginner", "advanced"}, cfg.Fields[1].Options)
	require.NotNil(t, cfg.OutputSchema)
	assert.Equal(t, "string", cfg.OutputSchema.Properties["title"].Type)

	_, err = LoadConfigFile(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}
