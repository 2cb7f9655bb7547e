package pilot

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"donkey-remote-be/pkg/drive"

	"gopkg.in/yaml.v3"
)

const (
	KindHTTP     = "http"
	KindConstant = "constant"
)

var ErrUnknownPilot = errors.New("unknown pilot")

// Spec describes one selectable pilot.
type Spec struct {
	Name      string  `yaml:"name"`
	Kind      string  `yaml:"kind"`
	URL       string  `yaml:"url,omitempty"`
	TimeoutMs int     `yaml:"timeout_ms,omitempty"`
	Angle     float64 `yaml:"angle,omitempty"`
	Throttle  float64 `yaml:"throttle,omitempty"`
}

type catalogFile struct {
	Pilots []Spec `yaml:"pilots"`
}

// Catalog is the set of pilots an operator may load onto a vehicle.
type Catalog struct {
	specs map[string]Spec
	names []string
}

func NewCatalog(specs ...Spec) (*Catalog, error) {
	c := &Catalog{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		s.Name = strings.TrimSpace(s.Name)
		s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
		if s.Name == "" {
			return nil, fmt.Errorf("pilot spec missing name")
		}
		if _, dup := c.specs[s.Name]; dup {
			return nil, fmt.Errorf("duplicate pilot %q", s.Name)
		}
		switch s.Kind {
		case KindHTTP:
			if s.URL == "" {
				return nil, fmt.Errorf("pilot %q: http pilot needs url", s.Name)
			}
		case KindConstant:
		default:
			return nil, fmt.Errorf("pilot %q: unsupported kind %q", s.Name, s.Kind)
		}
		c.specs[s.Name] = s
		c.names = append(c.names, s.Name)
	}
	return c, nil
}

// LoadCatalog reads a YAML pilot catalog. A missing file yields an empty
// catalog.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewCatalog()
		}
		return nil, fmt.Errorf("read pilot catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse pilot catalog %s: %w", path, err)
	}
	return NewCatalog(file.Pilots...)
}

// Names lists pilots in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Load builds a fresh pilot instance for name.
func (c *Catalog) Load(name string) (drive.Pilot, error) {
	spec, ok := c.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPilot, name)
	}
	return NewPilot(spec)
}
