// Command enginedemo exercises the full frame lifecycle end to end: it
// opens a window, stands up a GPU device, compiles one pipeline, stages a
// single triangle mesh every tick, and runs the render loop until the
// window is closed.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kestrelcore/engine"
	"github.com/kestrelcore/engine/config"
	"github.com/kestrelcore/engine/enginelog"
	"github.com/kestrelcore/engine/internal/wgpubackend"
	"github.com/kestrelcore/engine/mathutil"
	"github.com/kestrelcore/engine/pipeline"
	"github.com/kestrelcore/engine/resources"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "enginedemo:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file; defaults baked in when omitted")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	logger, err := enginelog.NewDevelopment("enginedemo")
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	win, err := wgpubackend.NewWindow(cfg.WindowWidth, cfg.WindowHeight, "enginedemo")
	if err != nil {
		return fmt.Errorf("opening window: %w", err)
	}
	dev, err := wgpubackend.NewDevice(win)
	if err != nil {
		return fmt.Errorf("opening device: %w", err)
	}

	compiler := wgpubackend.NewCompiler(dev, triangleShaderWGSL)

	recorder := newDemoRecorder(dev)

	eng := engine.NewEngine(cfg, logger, compiler, recorder, dev)
	recorder.setStore(eng.Resources())

	var meshID, materialID resources.ID
	if err := eng.Submit(func() error {
		mesh, material, err := buildTriangle(eng.Resources())
		if err != nil {
			return err
		}
		meshID, materialID = mesh, material

		texMesh, err := eng.Resources().Mesh(meshID)
		if err != nil {
			return err
		}
		mat, err := eng.Resources().Material(materialID)
		if err != nil {
			return err
		}
		key := pipeline.Key{Mesh: texMesh.Features, Material: mat.Features}
		return eng.Pipelines().Compile(key)
	}); err != nil {
		return fmt.Errorf("staging demo resources: %w", err)
	}

	eng.Start()
	defer eng.Stop()

	view := mathutil.LookAt(mgl32.Vec3{0, 2, 5}, mgl32.Vec3{0, 0, 0})
	aspect := float32(cfg.WindowWidth) / float32(cfg.WindowHeight)
	vFov := mgl32.DegToRad(60)
	hFov := float32(2 * math.Atan(math.Tan(float64(vFov)/2)*float64(aspect)))
	proj := mathutil.Perspective(hFov, vFov, 0.1, 100)

	for !win.ShouldClose() {
		wgpubackend.PollEvents()

		frame := eng.BeginFrame(mgl32.Vec3{0, 2, 5}, view, proj)
		if err := frame.StageModel(meshID, materialID, mgl32.Ident4()); err != nil {
			return fmt.Errorf("staging model: %w", err)
		}
		if err := frame.StageLight(demoLight()); err != nil {
			logger.Warnf("enginedemo: %v", err)
		}
		frame.End()

		if err := eng.CheckError(); err != nil {
			return fmt.Errorf("render loop: %w", err)
		}
		time.Sleep(time.Second / 60)
	}
	return nil
}
