package impulse

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/config"
	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/solver"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jinzhu/copier"
)

const DEFAULT_WORKERS = 1

type World struct {
	// List of all rigid bodies in the world
	Bodies      []*actor.RigidBody
	Constraints []constraint.Constraint
	// Gravity acceleration (m/s², or N/kg)
	Gravity     mgl64.Vec3
	SpatialGrid *SpatialGrid
	Workers     int

	Narrowphase *Narrowphase
	Solver      solver.Solver

	// Materials declared by the configuration, by name
	Materials        map[string]*actor.Material
	ContactMaterials *actor.ContactMaterialTable

	Sleep config.Sleep
	// Time is the simulated time, advanced by Step
	Time   float64
	Logger *slog.Logger

	Events Events
}

// NewWorld builds a world from a validated configuration
func NewWorld(cfg config.Config, logger *slog.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new world: %w", err)
	}
	logger = loggerOrDiscard(logger)

	w := &World{
		Gravity:          mgl64.Vec3(cfg.Gravity),
		SpatialGrid:      NewSpatialGrid(cfg.Grid.CellSize, cfg.Grid.NumCells),
		Workers:          max(DEFAULT_WORKERS, cfg.Workers),
		Materials:        make(map[string]*actor.Material, len(cfg.Materials)),
		ContactMaterials: actor.NewContactMaterialTable(),
		Sleep:            cfg.Sleep,
		Logger:           logger,
		Events:           NewEvents(),
	}

	// ========== MATÉRIAUX ==========
	for _, m := range cfg.Materials {
		material := &actor.Material{}
		if err := copier.Copy(material, &m); err != nil {
			return nil, fmt.Errorf("material %q: %w", m.Name, err)
		}
		w.Materials[m.Name] = material
	}

	if err := copier.Copy(w.ContactMaterials.Default, &cfg.DefaultContactMaterial); err != nil {
		return nil, fmt.Errorf("default contact material: %w", err)
	}
	for _, cm := range cfg.ContactMaterials {
		contactMaterial := actor.NewContactMaterial(w.Materials[cm.NameA], w.Materials[cm.NameB])
		if err := copier.Copy(contactMaterial, &cm); err != nil {
			return nil, fmt.Errorf("contact material %q/%q: %w", cm.NameA, cm.NameB, err)
		}
		w.ContactMaterials.Add(contactMaterial)
	}

	// ========== NARROWPHASE ==========
	w.Narrowphase = NewNarrowphase(w.ContactMaterials)
	w.Narrowphase.EnableFrictionReduction = cfg.Narrowphase.EnableFrictionReduction
	w.Narrowphase.Dt = cfg.TimeStep
	w.Narrowphase.Logger = logger

	// ========== SOLVEUR ==========
	gs := solver.NewGSSolver()
	gs.Iterations = cfg.Solver.Iterations
	gs.Tolerance = cfg.Solver.Tolerance
	gs.Logger = logger

	switch cfg.Solver.Type {
	case config.SolverSplit:
		split := solver.NewSplitSolver(gs)
		split.Iterations = cfg.Solver.Iterations
		split.Tolerance = cfg.Solver.Tolerance
		w.Solver = split
	default:
		w.Solver = gs
	}

	return w, nil
}

// Material returns the material declared under name, or nil
func (w *World) Material(name string) *actor.Material {
	return w.Materials[name]
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)
}

// RemoveBody removes a rigid body from the world, with the constraints attached to it
func (w *World) RemoveBody(body *actor.RigidBody) {
	if k := slices.Index(w.Bodies, body); k != -1 {
		w.Bodies = slices.Delete(w.Bodies, k, k+1)
	}

	w.Constraints = slices.DeleteFunc(w.Constraints, func(c constraint.Constraint) bool {
		bodyA, bodyB := c.Bodies()
		return bodyA == body || bodyB == body
	})

	w.Events.forget(body)
}

func (w *World) AddConstraint(c constraint.Constraint) {
	w.Constraints = append(w.Constraints, c)
}

func (w *World) RemoveConstraint(c constraint.Constraint) {
	if k := slices.Index(w.Constraints, c); k != -1 {
		w.Constraints = slices.Delete(w.Constraints, k, k+1)
	}
}

// Step advances the world by dt: gravity, collision detection, solving, then integration
func (w *World) Step(dt float64) {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)

	// Phase 1: external forces
	w.applyGravity()

	// Phase 2: broad phase, then narrow phase
	pairs := filterConnected(BroadPhase(w.SpatialGrid, w.Bodies), w.Constraints)

	w.Narrowphase.Gravity = w.Gravity
	w.Narrowphase.Dt = dt
	w.Narrowphase.GetContacts(pairs)

	w.Events.recordCollisions(w.Narrowphase.Contacts, w.Narrowphase.Overlaps)
	w.wakeTouchedBodies()

	// Phase 3: solver
	iterations := w.solve(dt)

	// Phase 4: integration
	w.integrate(dt)

	if w.Sleep.Enabled {
		w.trySleep(dt)
	}
	w.Time += dt

	loggerOrDiscard(w.Logger).Debug("step",
		slog.Float64("time", w.Time),
		slog.Int("pairs", len(pairs)),
		slog.Int("contacts", len(w.Narrowphase.Contacts)),
		slog.Int("frictions", len(w.Narrowphase.Frictions)),
		slog.Int("solver", iterations),
	)

	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

func (w *World) applyGravity() {
	for _, body := range w.Bodies {
		if body.BodyType == actor.BodyTypeDynamic && !body.IsSleeping {
			body.AddForce(w.Gravity.Mul(body.GetMass()))
		}
	}
}

// wakeTouchedBodies wakes a sleeping body hit by an awake body moving fast enough
func (w *World) wakeTouchedBodies() {
	if !w.Sleep.Enabled {
		return
	}
	limit := 2 * w.Sleep.VelocityThreshold * w.Sleep.VelocityThreshold

	wake := func(sleeper, other *actor.RigidBody) {
		if !sleeper.IsSleeping || sleeper.BodyType != actor.BodyTypeDynamic {
			return
		}
		if other.IsSleeping || other.BodyType == actor.BodyTypeStatic {
			return
		}
		speedSquared := other.Velocity.LenSqr() + other.AngularVelocity.LenSqr()
		if speedSquared >= limit {
			sleeper.Awake()
		}
	}

	for _, c := range w.Narrowphase.Contacts {
		if !c.Enabled {
			continue
		}
		wake(c.BodyA, c.BodyB)
		wake(c.BodyB, c.BodyA)
	}
}

// solve feeds frictions, contacts and constraint equations to the solver, in that order
func (w *World) solve(dt float64) int {
	for _, f := range w.Narrowphase.Frictions {
		w.Solver.AddEquation(f)
	}
	for _, c := range w.Narrowphase.Contacts {
		w.Solver.AddEquation(c)
	}
	for _, c := range w.Constraints {
		c.Update()
		for _, eq := range c.Equations() {
			w.Solver.AddEquation(eq)
		}
	}

	iterations := w.Solver.Solve(dt, w.Bodies)
	w.Solver.RemoveAllEquations()

	return iterations
}

func (w *World) integrate(h float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.Integrate(h)
	})
}

// trySleep sets the body to sleep if its velocity is lower than the threshold, for a given duration
// this method is too simple to use a task, it slows down in multiple goroutines
func (w *World) trySleep(h float64) {
	for _, body := range w.Bodies {
		body.TrySleep(h, w.Sleep.TimeThreshold, w.Sleep.VelocityThreshold)
	}
}
