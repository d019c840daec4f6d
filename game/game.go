package game

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/mcl/camera"
	"github.com/pthm-cable/mcl/components"
	"github.com/pthm-cable/mcl/config"
	"github.com/pthm-cable/mcl/distfield"
	"github.com/pthm-cable/mcl/geom"
	"github.com/pthm-cable/mcl/mcl"
	"github.com/pthm-cable/mcl/raycast"
	"github.com/pthm-cable/mcl/systems"
	"github.com/pthm-cable/mcl/telemetry"
	"github.com/pthm-cable/mcl/world"
)

// startHeading points the robot up the screen.
const startHeading = -math.Pi / 2

// Options configures a Game.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	Map            string         // overrides config map.name when set
	Seed           uint64         // 0 = config filter.seed
	LogStats       bool
	OutputDir      string
	Plot           bool // write trajectory plots into OutputDir on Unload
	Headless       bool
	StepsPerUpdate int
	Store          distfield.Store // overrides the configured cache store

	// StatsCallback receives every closed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game wires the simulated robot, its sensors and the localization filter.
type Game struct {
	cfg *config.Config
	rng *rand.Rand // goals

	world *ecs.World
	agentMap *ecs.Map7[
		components.Position,
		components.Rotation,
		components.Body,
		components.Kinematics,
		components.Drive,
		components.Odometry,
		components.Route,
	]
	agentFilter *ecs.Filter7[
		components.Position,
		components.Rotation,
		components.Body,
		components.Kinematics,
		components.Drive,
		components.Odometry,
		components.Route,
	]
	agent ecs.Entity

	m        *world.Map
	field    *distfield.Field
	store    distfield.Store
	ownStore bool
	lidar    *raycast.Lidar
	filter   *mcl.Filter
	planner  systems.Planner
	steerer  *systems.Steerer
	odometer *systems.Odometer

	scan      raycast.Scan
	estimate  mcl.Pose
	particles []mcl.Particle

	// Autopilot
	autopilot    bool
	teleop       components.Drive
	pendingGoal  *geom.Point
	blockedSteps int

	// Telemetry
	runID         string
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	events        *telemetry.EventDetector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool
	plot          bool
	lastReset     bool

	// State
	step           int
	paused         bool
	quit           bool
	headless       bool
	stepsPerUpdate int

	// Graphics
	camera                      *camera.Camera
	screenWidth, screenHeight   float32
	showParticles, showRays     bool
	showPath, showField         bool
	fieldTexture                rl.Texture2D
	fieldTextureLoaded          bool
}

// NewGameWithOptions builds the map, distance field, filter and agent.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	seed := cfg.Filter.Seed
	if opts.Seed != 0 {
		seed = opts.Seed
	}
	mapName := cfg.Map.Name
	if opts.Map != "" {
		mapName = opts.Map
	}

	m, err := world.Resolve(mapName)
	if err != nil {
		return nil, fmt.Errorf("loading map %q: %w", mapName, err)
	}

	store, ownStore := opts.Store, false
	if store == nil {
		path := cfg.DistanceField.CacheDir
		if cfg.DistanceField.Store == "sqlite" {
			path = cfg.DistanceField.SQLitePath
		}
		if store, err = distfield.OpenStore(cfg.DistanceField.Store, path); err != nil {
			slog.Warn("distance field store unavailable, caching disabled", "error", err)
			store = nil
		}
		ownStore = store != nil
	}
	field, err := distfield.LoadOrBuild(store, m, cfg.DistanceField.ResamplingFactor)
	if err != nil {
		if ownStore {
			closeStore(store)
		}
		return nil, err
	}

	fan, err := raycast.FanFromResolution(cfg.Lidar.AngularResolution)
	if err != nil {
		if ownStore {
			closeStore(store)
		}
		return nil, err
	}
	filter, err := mcl.New(mcl.Config{
		Particles: cfg.Filter.Particles,
		Workers:   cfg.Filter.Workers,
		Streams:   cfg.Filter.Streams,
		Seed:      seed,
		Motion: mcl.MotionModel{
			A1: cfg.Motion.A1,
			A2: cfg.Motion.A2,
			A3: cfg.Motion.A3,
			A4: cfg.Motion.A4,
		},
		Sigma: cfg.Measurement.Sigma,
		Scale: cfg.Measurement.Scale,
	}, m, field, fan)
	if err != nil {
		if ownStore {
			closeStore(store)
		}
		return nil, err
	}

	w := ecs.NewWorld()
	g := &Game{
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(seed, 0x5eed)),
		world: w,
		agentMap: ecs.NewMap7[
			components.Position,
			components.Rotation,
			components.Body,
			components.Kinematics,
			components.Drive,
			components.Odometry,
			components.Route,
		](w),
		agentFilter: ecs.NewFilter7[
			components.Position,
			components.Rotation,
			components.Body,
			components.Kinematics,
			components.Drive,
			components.Odometry,
			components.Route,
		](w),
		m:        m,
		field:    field,
		store:    store,
		ownStore: ownStore,
		lidar:    raycast.NewLidar(fan, m.Walls(), cfg.Lidar.Noise, rand.New(rand.NewPCG(seed, 0x11da4))),
		filter:   filter,
		steerer:  systems.NewSteerer(field, systems.DefaultSteeringParams()),
		odometer: systems.NewOdometer(cfg.Odometry.NoiseFraction, rand.New(rand.NewPCG(seed, 0x0d0))),

		autopilot:      true,
		runID:          uuid.NewString(),
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		plot:           opts.Plot,
		headless:       opts.Headless,
		stepsPerUpdate: max(opts.StepsPerUpdate, 1),

		showParticles: cfg.Display.Particles,
		showRays:      cfg.Display.Rays,
		showPath:      cfg.Display.Path,
		showField:     cfg.Display.Field,
	}

	if cfg.Planner.Enabled {
		inflation := cfg.Agent.Radius + cfg.Planner.Clearance
		g.planner = systems.NewAStarPlanner(systems.NewNavGrid(m, field, cfg.Planner.CellSize, inflation))
	}

	g.collector = telemetry.NewCollector(g.runID, cfg.Telemetry.StatsWindow, cfg.Agent.DT)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	g.events = telemetry.NewEventDetector(cfg.Telemetry.ConvergedError, cfg.Telemetry.DivergedError, cfg.Telemetry.EventHistorySize)
	g.filter.SetPhaseRecorder(g.perfCollector)

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir, opts.Plot)
		if err != nil {
			g.Unload()
			return nil, err
		}
		g.outputManager = om
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
	}

	g.spawnAgent()
	g.estimate = g.filter.Estimate()

	if !opts.Headless {
		g.screenWidth = float32(cfg.Screen.Width)
		g.screenHeight = float32(cfg.Screen.Height)
		g.camera = camera.New(g.screenWidth, g.screenHeight, m.Outer)
	}

	slog.Info("game initialized",
		"run_id", g.runID,
		"map", m.Name,
		"particles", cfg.Filter.Particles,
		"rays", fan.Len(),
		"seed", seed,
		"planner", cfg.Planner.Enabled,
	)
	return g, nil
}

// spawnAgent creates the robot at the center of the start area.
func (g *Game) spawnAgent() {
	c := g.m.Start.Center()
	pos := components.Position{X: c.X, Y: c.Y}
	rot := components.Rotation{Heading: startHeading}
	body := components.Body{Radius: g.cfg.Agent.Radius}
	kin := components.KinematicsFromConfig(g.cfg.Agent)
	var drive components.Drive
	var odo components.Odometry
	odo.Reset(c.X, c.Y, startHeading)
	var route components.Route

	g.agent = g.agentMap.NewEntity(&pos, &rot, &body, &kin, &drive, &odo, &route)
}

// Unload releases resources and writes any plots.
func (g *Game) Unload() {
	if g.fieldTextureLoaded {
		rl.UnloadTexture(g.fieldTexture)
		g.fieldTextureLoaded = false
	}
	if g.filter != nil {
		g.filter.Close()
	}
	if g.plot && g.outputManager != nil {
		if err := telemetry.PlotRun(g.outputManager.Dir(), g.m, g.outputManager.Records()); err != nil {
			slog.Error("failed to write plots", "error", err)
		}
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.outputManager = nil
	if g.ownStore {
		closeStore(g.store)
		g.ownStore = false
	}
}

// closeStore closes a store the game opened, logging any failure.
func closeStore(s distfield.Store) {
	if err := distfield.CloseStore(s); err != nil {
		slog.Warn("failed to close distance field store", "error", err)
	}
}

// Tick returns the number of completed steps.
func (g *Game) Tick() int { return g.step }

// RunID returns the id stamped on this run's telemetry.
func (g *Game) RunID() string { return g.runID }

// ShouldQuit reports whether the user asked to quit.
func (g *Game) ShouldQuit() bool { return g.quit }

// Map returns the map being localized in.
func (g *Game) Map() *world.Map { return g.m }

// Estimate returns the filter's latest pose estimate.
func (g *Game) Estimate() mcl.Pose { return g.estimate }

// TruePose returns the robot's actual pose.
func (g *Game) TruePose() mcl.Pose {
	pos, rot, _, _, _, _, _ := g.agentMap.Get(g.agent)
	return mcl.Pose{X: pos.X, Y: pos.Y, Theta: rot.Heading}
}

// SetGoal asks the autopilot to drive to p.
func (g *Game) SetGoal(p geom.Point) {
	g.pendingGoal = &p
	g.autopilot = true
}

// SetTeleop overrides the autopilot with a manual drive command. A zero
// command hands control back.
func (g *Game) SetTeleop(d components.Drive) { g.teleop = d }

// SeedAtTruePose collapses the particles around the robot's actual pose,
// switching the filter from global localization to tracking.
func (g *Game) SeedAtTruePose() {
	g.filter.ResetAround(g.TruePose(), g.cfg.Agent.Radius, 0.1)
	g.estimate = g.filter.Estimate()
}
