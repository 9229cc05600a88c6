package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/config"
	"github.com/go-gl/mathgl/mgl64"
)

// sceneConfig is used when no file is given on the command line
const sceneConfig = `
time_step: 0.016666666666666666
gravity: [0, -9.81, 0]
solver:
  type: split
  iterations: 20
narrowphase:
  enable_friction_reduction: false
materials:
  - name: wood
    linear_damping: 0.05
    angular_damping: 0.05
  - name: ground
contact_materials:
  - material_a: wood
    material_b: ground
    friction: 0.5
    restitution: 0.1
  - material_a: wood
    material_b: wood
    friction: 0.4
    restitution: 0.0
`

// SetupScene empile des caisses sur un sol, avec une balle qui arrive de côté
func SetupScene(world *impulse.World, height int) []*actor.RigidBody {
	wood := world.Material("wood")

	ground := actor.NewRigidBody(actor.NewTransform(), actor.NewPlane(mgl64.Vec3{0, 1, 0}, 0), actor.BodyTypeStatic, 0)
	ground.Material = world.Material("ground")
	world.AddBody(ground)

	var crates []*actor.RigidBody
	for i := 0; i < height; i++ {
		transform := actor.NewTransformAt(mgl64.Vec3{0, 0.5 + float64(i)*1.01, 0}, mgl64.QuatIdent())
		crate := actor.NewRigidBody(transform, actor.NewBox(mgl64.Vec3{0.5, 0.5, 0.5}), actor.BodyTypeDynamic, 1.0)
		crate.Id = fmt.Sprintf("crate-%d", i)
		crate.Material = wood
		world.AddBody(crate)
		crates = append(crates, crate)
	}

	ball := actor.NewRigidBody(actor.NewTransformAt(mgl64.Vec3{-6, 0.4, 0}, mgl64.QuatIdent()), actor.NewSphere(0.4), actor.BodyTypeDynamic, 5.0)
	ball.Id = "ball"
	ball.Material = wood
	ball.Velocity = mgl64.Vec3{8, 0, 0}
	world.AddBody(ball)

	return crates
}

func main() {
	configPath := flag.String("config", "", "YAML world configuration")
	steps := flag.Int("steps", 300, "number of steps to simulate")
	height := flag.Int("height", 5, "number of stacked crates")
	verbose := flag.Bool("v", false, "log every step")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	world, err := impulse.NewWorld(cfg, logger)
	if err != nil {
		logger.Error("creating world", "error", err)
		os.Exit(1)
	}

	world.Events.Subscribe(impulse.ON_COLLIDE, func(event impulse.Event) {
		e := event.(impulse.CollideEvent)
		logger.Info("collide", "a", e.BodyA.Id, "b", e.BodyB.Id, "impact_velocity", e.ImpactVelocity)
	})
	world.Events.Subscribe(impulse.ON_SLEEP, func(event impulse.Event) {
		logger.Info("sleep", "body", event.(impulse.BodyEvent).Body.Id)
	})

	crates := SetupScene(world, *height)

	for step := 0; step < *steps; step++ {
		world.Step(cfg.TimeStep)
	}

	fmt.Printf("Après %.2f s:\n", world.Time)
	for _, crate := range crates {
		fmt.Printf("  %v: position %v, sleeping %v\n", crate.Id, crate.Transform.Position, crate.IsSleeping)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Parse([]byte(sceneConfig))
	}
	return config.Load(path)
}
