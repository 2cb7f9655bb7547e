package pilot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
pilots:
  - name: lane-keeper
    kind: http
    url: http://localhost:8000/predict
    timeout_ms: 250
  - name: straight
    kind: constant
    angle: 0
    throttle: 0.3
`

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pilots.yml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"lane-keeper", "straight"}, c.Names())

	p, err := c.Load("straight")
	require.NoError(t, err)
	assert.Equal(t, "straight", p.Name())

	angle, throttle, err := p.Decide(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, angle)
	assert.Equal(t, 0.3, throttle)

	hp, err := c.Load("lane-keeper")
	require.NoError(t, err)
	require.IsType(t, &HTTPPilot{}, hp)
	assert.Equal(t, "http://localhost:8000/predict", hp.(*HTTPPilot).URL)
}

func TestLoadCatalogMissingFileIsEmpty(t *testing.T) {
	c, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Empty(t, c.Names())

	_, err = c.Load("anything")
	assert.ErrorIs(t, err, ErrUnknownPilot)
}

func TestNewCatalogValidation(t *testing.T) {
	tests := []struct {
		name  string
		specs []Spec
	}{
		{name: "missing name", specs: []Spec{{Kind: KindConstant}}},
		{name: "duplicate", specs: []Spec{{Name: "a", Kind: KindConstant}, {Name: "a", Kind: KindConstant}}},
		{name: "http without url", specs: []Spec{{Name: "a", Kind: KindHTTP}}},
		{name: "unknown kind", specs: []Spec{{Name: "a", Kind: "keras"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.specs...)
			assert.Error(t, err)
		})
	}
}

func TestLoadReturnsFreshInstance(t *testing.T) {
	c, err := NewCatalog(Spec{Name: "straight", Kind: "Constant", Throttle: 0.2})
	require.NoError(t, err)

	a, err := c.Load("straight")
	require.NoError(t, err)
	b, err := c.Load("straight")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}
