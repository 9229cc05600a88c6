package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrTimeStep        = errors.New("time step must be positive")
	ErrIterations      = errors.New("solver iterations must be positive")
	ErrTolerance       = errors.New("solver tolerance must not be negative")
	ErrSolverType      = errors.New("unknown solver type")
	ErrCellSize        = errors.New("grid cell size must be positive")
	ErrSpook           = errors.New("stiffness and relaxation must be positive")
	ErrUnknownMaterial = errors.New("contact material references an unknown material")
	ErrDuplicate       = errors.New("material declared twice")
)

const (
	SolverGS    = "gs"
	SolverSplit = "split"
)

// Config describes a world. Every field has a usable default, see Default.
type Config struct {
	Gravity  [3]float64 `yaml:"gravity"`
	TimeStep float64    `yaml:"time_step"`
	Workers  int        `yaml:"workers"`

	Solver      Solver      `yaml:"solver"`
	Narrowphase Narrowphase `yaml:"narrowphase"`
	Sleep       Sleep       `yaml:"sleep"`
	Grid        Grid        `yaml:"grid"`

	Materials              []Material        `yaml:"materials"`
	ContactMaterials       []ContactMaterial `yaml:"contact_materials"`
	DefaultContactMaterial ContactMaterial   `yaml:"default_contact_material"`
}

type Solver struct {
	// Type is "gs" or "split"
	Type       string  `yaml:"type"`
	Iterations int     `yaml:"iterations"`
	Tolerance  float64 `yaml:"tolerance"`
}

type Narrowphase struct {
	EnableFrictionReduction bool `yaml:"enable_friction_reduction"`
}

type Sleep struct {
	Enabled bool `yaml:"enabled"`
	// TimeThreshold is how long a body stays slow before it falls asleep, in seconds
	TimeThreshold float64 `yaml:"time_threshold"`
	// VelocityThreshold is the speed under which a body counts as slow
	VelocityThreshold float64 `yaml:"velocity_threshold"`
}

type Grid struct {
	CellSize float64 `yaml:"cell_size"`
	NumCells int     `yaml:"num_cells"`
}

// Material mirrors actor.Material field by field. Negative friction or restitution
// defers to the contact material.
type Material struct {
	Name           string  `yaml:"name"`
	Friction       float64 `yaml:"friction"`
	Restitution    float64 `yaml:"restitution"`
	LinearDamping  float64 `yaml:"linear_damping"`
	AngularDamping float64 `yaml:"angular_damping"`
}

// ContactMaterial mirrors actor.ContactMaterial. NameA and NameB reference materials by name
// and have no counterpart there, so copies leave the material pointers alone.
type ContactMaterial struct {
	NameA string `yaml:"material_a"`
	NameB string `yaml:"material_b"`

	Friction                   float64 `yaml:"friction"`
	Restitution                float64 `yaml:"restitution"`
	ContactEquationStiffness   float64 `yaml:"contact_equation_stiffness"`
	ContactEquationRelaxation  float64 `yaml:"contact_equation_relaxation"`
	FrictionEquationStiffness  float64 `yaml:"friction_equation_stiffness"`
	FrictionEquationRelaxation float64 `yaml:"friction_equation_relaxation"`
}

// UnmarshalYAML starts from an unset material, so omitted fields keep their defaults
func (m *Material) UnmarshalYAML(value *yaml.Node) error {
	type plain Material
	p := plain{Friction: -1, Restitution: -1, LinearDamping: 0.01, AngularDamping: 0.01}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*m = Material(p)

	return nil
}

// UnmarshalYAML starts from DefaultContact, so omitted fields keep their defaults
func (cm *ContactMaterial) UnmarshalYAML(value *yaml.Node) error {
	type plain ContactMaterial
	p := plain(DefaultContact())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*cm = ContactMaterial(p)

	return nil
}

// DefaultContact returns the contact material used when nothing else matches
func DefaultContact() ContactMaterial {
	return ContactMaterial{
		Friction:                   0.3,
		Restitution:                0.3,
		ContactEquationStiffness:   1e7,
		ContactEquationRelaxation:  3,
		FrictionEquationStiffness:  1e7,
		FrictionEquationRelaxation: 3,
	}
}

// Default returns a world under earth gravity, stepped at 60Hz by a Gauss-Seidel solver
func Default() Config {
	return Config{
		Gravity:  [3]float64{0, -9.81, 0},
		TimeStep: 1.0 / 60.0,
		Workers:  1,
		Solver: Solver{
			Type:       SolverGS,
			Iterations: 10,
			Tolerance:  1e-7,
		},
		Sleep: Sleep{
			Enabled:           true,
			TimeThreshold:     1,
			VelocityThreshold: 0.1,
		},
		Grid: Grid{
			CellSize: 2,
			NumCells: 1024,
		},
		DefaultContactMaterial: DefaultContact(),
	}
}

// Parse decodes YAML on top of Default, so that a document only lists what it changes,
// then validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads and parses a YAML file
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports the first inconsistency found
func (c Config) Validate() error {
	if c.TimeStep <= 0 {
		return fmt.Errorf("time_step %g: %w", c.TimeStep, ErrTimeStep)
	}
	if c.Solver.Type != SolverGS && c.Solver.Type != SolverSplit {
		return fmt.Errorf("solver %q: %w", c.Solver.Type, ErrSolverType)
	}
	if c.Solver.Iterations <= 0 {
		return fmt.Errorf("%d iterations: %w", c.Solver.Iterations, ErrIterations)
	}
	if c.Solver.Tolerance < 0 {
		return fmt.Errorf("tolerance %g: %w", c.Solver.Tolerance, ErrTolerance)
	}
	if c.Grid.CellSize <= 0 {
		return fmt.Errorf("cell_size %g: %w", c.Grid.CellSize, ErrCellSize)
	}

	names := make(map[string]bool, len(c.Materials))
	for _, m := range c.Materials {
		if names[m.Name] {
			return fmt.Errorf("material %q: %w", m.Name, ErrDuplicate)
		}
		names[m.Name] = true
	}

	if err := c.DefaultContactMaterial.validateSpook(); err != nil {
		return fmt.Errorf("default contact material: %w", err)
	}
	for _, cm := range c.ContactMaterials {
		if !names[cm.NameA] || !names[cm.NameB] {
			return fmt.Errorf("contact material %q/%q: %w", cm.NameA, cm.NameB, ErrUnknownMaterial)
		}
		if err := cm.validateSpook(); err != nil {
			return fmt.Errorf("contact material %q/%q: %w", cm.NameA, cm.NameB, err)
		}
	}

	return nil
}

func (cm ContactMaterial) validateSpook() error {
	if cm.ContactEquationStiffness <= 0 || cm.ContactEquationRelaxation <= 0 ||
		cm.FrictionEquationStiffness <= 0 || cm.FrictionEquationRelaxation <= 0 {
		return ErrSpook
	}
	return nil
}
