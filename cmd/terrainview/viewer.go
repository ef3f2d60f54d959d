package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/glbackend"
	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/picking"
	"github.com/Faultbox/midgard-terrain/internal/engine/window"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/project"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

type viewer struct {
	log     *zap.Logger
	window  *window.Window
	input   *input.Input
	backend *glbackend.Backend
	project *project.Project
	camera  *camera.OrbitCamera
	grid    *grid
	shots   *debug.ScreenshotCapture

	wireframe bool
	lastErr   string
}

func newViewer(cfg *config.Config) (*viewer, error) {
	v := &viewer{
		log:   logger.Named("viewer"),
		input: input.New(),
		shots: debug.NewScreenshotCapture(filepath.Join(cfg.Data.ProjectDir, "screenshots"), "terrain"),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      "Midgard Terrain",
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, err
	}

	v.backend = glbackend.New()
	if v.project, err = openProject(cfg, v.backend); err != nil {
		v.window.Close()
		return nil, err
	}

	st := v.project.Storage
	v.grid = newGrid(st.RegionSize())
	v.camera = camera.NewOrbitCamera(cfg.Camera.FOV)
	v.camera.MoveSpeed = cfg.Camera.MoveSpeed
	v.camera.FitRegion(math.Vec3{}, float32(st.RegionSize()))

	sun := lighting.SunDirection(cfg.Light.Longitude, cfg.Light.Latitude)
	v.backend.MaterialSetParam(st.Material(), terrain.ParamLightDirection, sun)

	gl.Enable(gl.DEPTH_TEST)
	v.updateTitle()
	return v, nil
}

// openProject opens the configured project directory, creating it from the
// terrain settings when it holds no manifest yet.
func openProject(cfg *config.Config, backend *glbackend.Backend) (*project.Project, error) {
	dir := cfg.Data.ProjectDir
	var opts []project.Option
	for _, d := range cfg.Data.TextureDirs {
		opts = append(opts, project.WithTextureDir(d))
	}
	for _, path := range cfg.Data.GRFPaths {
		opts = append(opts, project.WithArchive(path))
	}

	if _, err := os.Stat(filepath.Join(dir, project.ManifestFile)); err == nil {
		return project.Open(dir, backend, opts...)
	}

	settings, err := cfg.Terrain.Settings()
	if err != nil {
		return nil, err
	}
	p, err := project.Create(dir, backend, settings, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Terrain.Noise.Texture != "" {
		if err := p.SetNoiseTexture(cfg.Terrain.Noise.Texture); err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}

// Run drives the frame loop until the window is closed.
func (v *viewer) Run() {
	last := time.Now()
	for !v.input.Update() {
		now := time.Now()
		v.handleInput(float32(now.Sub(last).Seconds()))
		last = now

		// Coalesces every edit of this frame into one rebuild per resource.
		if err := v.project.Storage.Update(); err != nil {
			v.reportError(err)
		} else {
			v.lastErr = ""
		}

		v.render()
		if v.input.Pressed(sdl.SCANCODE_F12) {
			v.screenshot()
		}
		v.window.SwapBuffers()
	}
}

func (v *viewer) reportError(err error) {
	if msg := err.Error(); msg != v.lastErr {
		v.log.Warn("terrain update failed", zap.Error(err))
		v.lastErr = msg
	}
}

func (v *viewer) handleInput(dt float32) {
	in := v.input
	st := v.project.Storage

	ctrl := in.Held(sdl.SCANCODE_LCTRL) || in.Held(sdl.SCANCODE_RCTRL)
	if ctrl && in.Pressed(sdl.SCANCODE_S) {
		if err := v.project.Save(); err != nil {
			v.log.Error("save failed", zap.Error(err))
		}
	}
	if in.Pressed(sdl.SCANCODE_F1) {
		v.wireframe = !v.wireframe
	}

	if !ctrl {
		var forward, right float32
		if in.Held(sdl.SCANCODE_W) {
			forward++
		}
		if in.Held(sdl.SCANCODE_S) {
			forward--
		}
		if in.Held(sdl.SCANCODE_D) {
			right++
		}
		if in.Held(sdl.SCANCODE_A) {
			right--
		}
		v.camera.HandleMovement(forward, right, dt)
	}
	v.camera.HandleDrag(in.Drag())
	v.camera.HandleZoom(in.Wheel())

	for _, c := range in.Clicks() {
		pos, ok := v.pick(c.X, c.Y)
		if !ok {
			continue
		}
		var err error
		switch c.Button {
		case sdl.BUTTON_LEFT:
			err = st.AddRegion(pos)
		case sdl.BUTTON_RIGHT:
			err = st.RemoveRegion(pos)
		default:
			continue
		}
		if err != nil {
			v.log.Info("region edit rejected", zap.Error(err),
				zap.Int32("x", terrain.OffsetOf(pos, st.RegionSize()).X),
				zap.Int32("y", terrain.OffsetOf(pos, st.RegionSize()).Y))
		}
		v.updateTitle()
	}
}

// pick returns the ground point under a window position.
func (v *viewer) pick(x, y int) (math.Vec3, bool) {
	w, h := v.window.PointSize()
	ray := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h),
		v.camera.Position(), v.camera.Forward(), v.camera.FOV)
	return ray.IntersectPlaneY(0)
}

func (v *viewer) render() {
	w, h := v.window.Size()
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.ClearColor(0.45, 0.6, 0.8, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if v.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	material := v.project.Storage.Material()
	v.backend.MaterialSetParam(material, terrain.ParamViewProjection, v.camera.ViewProjection(v.window.Aspect()))
	v.backend.MaterialSetParam(material, terrain.ParamModel, math.Identity())
	if err := v.backend.Bind(material); err != nil {
		v.reportError(err)
		return
	}
	v.grid.draw()
}

// screenshot reads the back buffer and saves it as PNG.
func (v *viewer) screenshot() {
	w, h := v.window.Size()
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	path, err := v.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

func (v *viewer) updateTitle() {
	st := v.project.Storage
	v.window.SetTitle(fmt.Sprintf("Midgard Terrain - %s - %d regions, %d layers",
		v.project.Dir, st.RegionCount(), st.LayerCount()))
}

// Close releases the project, GPU mesh and window.
func (v *viewer) Close() {
	v.grid.delete()
	v.project.Close()
	v.window.Close()
}
