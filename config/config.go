// Package config loads engine-wide tunables from YAML, the way gazed-vu and
// the teacher repo's own indirect yaml.v3 dependency suggest this corpus
// configures long-lived services.
package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// World describes the fixed world rectangle the spatial and collision grids
// are built over.
type World struct {
	MinX float32 `yaml:"min_x"`
	MinZ float32 `yaml:"min_z"`
	MaxX float32 `yaml:"max_x"`
	MaxZ float32 `yaml:"max_z"`
}

func (w World) Min() mgl32.Vec2 { return mgl32.Vec2{w.MinX, w.MinZ} }
func (w World) Max() mgl32.Vec2 { return mgl32.Vec2{w.MaxX, w.MaxZ} }

// Config is the set of values that a real deployment would tune per map or
// per platform rather than bake into the binary.
type Config struct {
	World World `yaml:"world"`

	// SpatialGridSize is the fixed W, H of the spatial (culling) grid.
	SpatialGridSize int `yaml:"spatial_grid_size"`
	// CollisionGridSize records the W, H of both collision grids. It is not
	// read: collision.System.Initialise always builds them at 50x50.
	CollisionGridSize int `yaml:"collision_grid_size"`

	// StepHeight is the default maximum ledge the collision system allows
	// an entity to walk up without being treated as a wall.
	StepHeight float32 `yaml:"step_height"`

	// MaxFramesInFlight is the modulus of the render loop's frame counter;
	// the loop records and submits one frame at a time.
	MaxFramesInFlight int `yaml:"max_frames_in_flight"`
	// MaxLights bounds stageLight calls per frame.
	MaxLights int `yaml:"max_lights"`

	// WindowWidth/WindowHeight size the backing surface when the engine
	// owns window creation (cmd/enginedemo); embedders that inject their
	// own window handle can ignore these.
	WindowWidth  int `yaml:"window_width"`
	WindowHeight int `yaml:"window_height"`
}

// Default matches the original_source defaults recovered from
// spatial_system.cpp (world rect {-400,-400}..{1200,1200}, 100x100 grid)
// and collision_system.cpp (50x50 grids).
func Default() Config {
	return Config{
		World: World{
			MinX: -400, MinZ: -400,
			MaxX: 1200, MaxZ: 1200,
		},
		SpatialGridSize:   100,
		CollisionGridSize: 50,
		StepHeight:        0.3,
		MaxFramesInFlight: 2,
		MaxLights:         4,
		WindowWidth:       1280,
		WindowHeight:      720,
	}
}

// Load reads a YAML config file, starting from Default() and overlaying
// any fields present in the file.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
