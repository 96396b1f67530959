package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/Carmen-Shannon/oxy-gltf/engine/gltf"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// ErrRenderPanic is returned by Run when a frame panics.
var ErrRenderPanic = errors.New("render loop recovered from panic")

// engine implements the Engine interface.
// Owns the active document and runs frames on the goroutine that owns the device.
type engine struct {
	dev    device.Device
	logger *slog.Logger

	loader     loader.Loader
	renderer   renderer.Renderer
	rc         *renderer.RenderContext
	docOptions []gltf.DocumentBuilderOption
	doc        gltf.Document

	width, height int

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	frames           int
}

// Engine is the main entry point for the engine.
// It replaces documents, runs the load and setup phases, and drives the frame loop.
// Every method except Quit must be called from the goroutine that owns the device.
type Engine interface {
	// Device returns the device the engine draws through.
	//
	// Returns:
	//   - device.Device: the device
	Device() device.Device

	// Renderer returns the renderer used by Frame.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// RenderContext returns the lighting, fog and camera inputs of every frame.
	// Change it from the tick callback so a frame never sees a half applied update.
	//
	// Returns:
	//   - *renderer.RenderContext: the context
	RenderContext() *renderer.RenderContext

	// Document returns the active document, or nil before the first UseDocument.
	//
	// Returns:
	//   - gltf.Document: the active document
	Document() gltf.Document

	// Open loads a description through the engine's loader and makes it the active document.
	//
	// Parameters:
	//   - ctx: cancels the fetches
	//   - uri: the description location
	//
	// Returns:
	//   - gltf.Document: the new active document
	//   - error: error if parsing, loading or device setup fails
	Open(ctx context.Context, uri string) (gltf.Document, error)

	// UseDocument loads doc, releases the previous document's device resources and sets doc up on
	// the device. When loading fails the previous document stays active. When setup fails no
	// document is active.
	//
	// Parameters:
	//   - ctx: cancels the fetches
	//   - doc: the document to show
	//
	// Returns:
	//   - error: error if loading or device setup fails
	UseDocument(ctx context.Context, doc gltf.Document) error

	// Frame runs one frame: the tick callback, the draw of the active document, then the render callback.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - error: error if the draw fails
	Frame(dt float32) error

	// Run loops frames until Quit is called, ctx is cancelled or a frame fails.
	//
	// Parameters:
	//   - ctx: stops the loop when cancelled
	//
	// Returns:
	//   - error: nil after Quit, ctx.Err() on cancellation, or the frame error
	Run(ctx context.Context) error

	// Quit stops Run after the current frame. Safe to call multiple times and from any goroutine.
	Quit()

	// Resize forwards a new viewport size to the renderer.
	//
	// Parameters:
	//   - width: the viewport width in pixels
	//   - height: the viewport height in pixels
	Resize(width, height int)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickCallback registers the function called at the start of each frame.
	// Use this for node transform changes, camera moves and light updates.
	//
	// Parameters:
	//   - callback: receives the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each frame is drawn.
	//
	// Parameters:
	//   - callback: receives the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Frames returns the number of frames drawn since construction.
	Frames() int
}

var _ Engine = &engine{}

// NewEngine creates a new Engine drawing through dev.
//
// Parameters:
//   - dev: the device, owned by the goroutine that calls Run or Frame
//   - options: functional options for engine configuration (logger, loader, settings, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(dev device.Device, options ...EngineBuilderOption) Engine {
	settings := renderer.DefaultSettings()
	e := &engine{
		dev:         dev,
		logger:      slog.Default(),
		rc:          renderer.NewRenderContext(),
		width:       settings.Viewport.Width,
		height:      settings.Viewport.Height,
		quitChannel: make(chan struct{}),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.loader == nil {
		e.loader = loader.NewLoader(loader.WithLogger(e.logger))
	}
	e.renderer = renderer.NewRenderer(dev,
		renderer.WithLogger(e.logger),
		renderer.WithViewport(e.width, e.height),
	)
	e.profiler = profiler.NewProfiler(e.logger)
	return e
}

func (e *engine) Device() device.Device {
	return e.dev
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) RenderContext() *renderer.RenderContext {
	return e.rc
}

func (e *engine) Document() gltf.Document {
	return e.doc
}

func (e *engine) Frames() int {
	return e.frames
}

func (e *engine) Open(ctx context.Context, uri string) (gltf.Document, error) {
	options := append([]gltf.DocumentBuilderOption{gltf.WithLogger(e.logger)}, e.docOptions...)
	doc, err := gltf.Open(ctx, e.loader, uri, options...)
	if err != nil {
		return nil, err
	}
	if err := e.UseDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (e *engine) UseDocument(ctx context.Context, doc gltf.Document) error {
	if doc == nil {
		return errors.New("engine: nil document")
	}
	if err := doc.Load(ctx); err != nil {
		return fmt.Errorf("engine: failed to load document: %w", err)
	}

	if e.doc != nil && e.doc != doc {
		e.doc.Release(e.dev)
		e.logger.Debug("released previous document")
	}
	e.doc = nil

	if err := doc.SetupGL(e.dev); err != nil {
		doc.Release(e.dev)
		return fmt.Errorf("engine: failed to set up document: %w", err)
	}
	e.doc = doc
	e.logger.Info("document ready",
		slog.Int("nodes", len(doc.Nodes())),
		slog.Int("meshes", len(doc.Meshes())),
		slog.Int("materials", len(doc.Materials())),
	)
	return nil
}

func (e *engine) Frame(dt float32) error {
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}

	if e.doc != nil {
		if err := e.renderer.Draw(e.doc, e.rc); err != nil {
			return fmt.Errorf("engine: frame %d: %w", e.frames, err)
		}
	}
	e.frames++

	if e.renderCallback != nil {
		e.renderCallback(dt)
	}

	if e.profilingEnabled {
		e.profiler.Tick(e.renderer.Stats().DrawCalls)
	}
	return nil
}

// Run drives frames on the calling goroutine.
// Recovers from panics inside a frame and reports them as ErrRenderPanic.
func (e *engine) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render loop recovered from panic", slog.Any("panic", r))
			err = fmt.Errorf("%w: %v", ErrRenderPanic, r)
		}
		e.signalQuit()
	}()

	lastRender := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frameStart := time.Now()
		dt := float32(frameStart.Sub(lastRender).Seconds())
		lastRender = frameStart

		if err := e.Frame(dt); err != nil {
			return err
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(frameStart); remaining > 0 {
				select {
				case <-time.After(remaining):
				case <-e.quitChannel:
				case <-ctx.Done():
				}
			}
		}
	}
}

// Quit signals Run to stop.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Resize(width, height int) {
	e.width, e.height = width, height
	e.renderer.Resize(width, height)
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickCallback registers the function called at the start of each frame.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called after each frame is drawn.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional frame rate cap.
// Pass 0 to uncap the loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
