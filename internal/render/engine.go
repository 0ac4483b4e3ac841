package render

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// Scene builds its pipelines and buffers in Prepare, records draw commands in
// MakeCommand and releases everything in Cleanup.
type Scene interface {
	// Prepare runs once after the swapchain, render pass and frame slots exist.
	Prepare(ctx *Context) error
	// Cleanup runs once at teardown after the device is idle. It also runs
	// when Prepare fails, so it must tolerate partially created state.
	Cleanup(ctx *Context)
	// MakeCommand runs every frame inside the render pass.
	MakeCommand(cmd CommandBuffer, imageIndex uint32) error
}

// BaseScene gives a Scene no-op hooks to embed.
type BaseScene struct{}

func (BaseScene) Prepare(*Context) error { return nil }

func (BaseScene) Cleanup(*Context) {}

func (BaseScene) MakeCommand(CommandBuffer, uint32) error { return nil }

// Context is what a Scene sees of the engine.
type Context struct {
	Driver     Driver
	Device     *DeviceContext
	Resources  *Resources
	Swapchain  *SwapchainState
	RenderPass RenderPass
	Extent     Extent2D
	ImageCount int
	Logger     *slog.Logger
	// Stats reports the frame timings measured so far.
	Stats func() FrameStats
}

// Engine owns the whole frame lifecycle for one window and one scene.
type Engine struct {
	drv   Driver
	scene Scene
	cfg   Config
	log   *slog.Logger

	rel    releaseStack
	dev    *DeviceContext
	res    *Resources
	sc     *SwapchainState
	rt     *RenderTargets
	frames *FrameSynchronizer
	ctx    *Context
}

func NewEngine(drv Driver, scene Scene, cfg Config) *Engine {
	if scene == nil {
		scene = BaseScene{}
	}
	return &Engine{
		drv:   drv,
		scene: scene,
		cfg:   cfg,
		log:   loggerOrDiscard(cfg.Logger),
	}
}

// Initialize creates every GPU object in dependency order and prepares the
// scene. On failure everything created so far is destroyed again.
func (e *Engine) Initialize(win Window, title string) (err error) {
	if e.rel.len() > 0 {
		return errors.New("engine already initialized")
	}
	if win == nil {
		return errors.Mark(errors.New("nil window"), ErrFatalInit)
	}
	cfg := e.cfg
	if title != "" {
		cfg.AppName = title
	}
	defer func() {
		if err != nil {
			e.log.Error("initialize failed", slog.String("err", err.Error()))
			_ = e.teardown()
			e.dev, e.res, e.sc, e.rt, e.frames, e.ctx = nil, nil, nil, nil, nil, nil
		}
	}()

	if e.dev, err = openDevice(e.drv, cfg, win, &e.rel, e.log); err != nil {
		return err
	}
	e.res = newResources(e.drv, e.dev, e.log)
	if e.sc, err = createSwapchain(e.drv, e.dev, e.res, cfg, win, &e.rel, e.log); err != nil {
		return err
	}
	if e.rt, err = createRenderTargets(e.drv, e.dev.Device, e.sc, &e.rel); err != nil {
		return err
	}
	if e.frames, err = createFrameSynchronizer(e.drv, e.dev, e.sc, e.rt, cfg, &e.rel, e.log); err != nil {
		return err
	}

	e.ctx = &Context{
		Driver:     e.drv,
		Device:     e.dev,
		Resources:  e.res,
		Swapchain:  e.sc,
		RenderPass: e.rt.RenderPass,
		Extent:     e.sc.Extent,
		ImageCount: e.sc.ImageCount(),
		Logger:     e.log,
		Stats:      e.frames.Stats,
	}
	ctx := e.ctx
	e.rel.push("scene", func() { e.scene.Cleanup(ctx) })
	if err := e.scene.Prepare(ctx); err != nil {
		return errors.Wrap(err, "prepare scene")
	}
	e.log.Info("initialized",
		slog.String("app", cfg.AppName),
		slog.Int("images", e.sc.ImageCount()),
		slog.String("semaphores", cfg.Semaphores.String()))
	return nil
}

// Render draws one frame. Any failure is final; the caller should stop its
// loop and call Terminate.
func (e *Engine) Render() error {
	if e.frames == nil {
		return errors.New("engine not initialized")
	}
	return e.frames.RenderFrame(e.scene.MakeCommand)
}

// Terminate waits for the device to go idle and destroys everything in the
// reverse order of creation. It is safe to call more than once.
func (e *Engine) Terminate() error {
	if e.rel.len() == 0 {
		return nil
	}
	err := e.teardown()
	stats := e.statsOrZero()
	e.log.Info("terminated",
		slog.Uint64("frames", stats.Frames),
		slog.Duration("avg_frame", stats.Average),
		slog.Duration("worst_frame", stats.Worst))
	e.dev, e.res, e.sc, e.rt, e.ctx = nil, nil, nil, nil, nil
	return err
}

func (e *Engine) teardown() error {
	var err error
	if e.dev != nil {
		err = e.dev.WaitIdle()
	}
	e.rel.unwind(e.log)
	return err
}

func (e *Engine) statsOrZero() FrameStats {
	if e.frames == nil {
		return FrameStats{}
	}
	stats := e.frames.Stats()
	e.frames = nil
	return stats
}

func (e *Engine) Context() *Context { return e.ctx }

func (e *Engine) Frames() *FrameSynchronizer { return e.frames }

func (e *Engine) RenderTargets() *RenderTargets { return e.rt }
