// Command vkdemo opens a window and draws one of the demo scenes until the
// window is closed.
//
// VKDEMO_SCENE picks the scene (triangle or cube). The VK_* variables read by
// render.ConfigFromEnv tune validation, logging, frame timeouts and the
// pipeline cache directory, which defaults to vkdemo under the user cache dir.
package main

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	"github.com/vulkan-go/vulkan"
	"github.com/xlab/closer"
	"golang.org/x/exp/slog"

	"github.com/RewHiro/vulkan/internal/render"
	"github.com/RewHiro/vulkan/internal/scene"
	"github.com/RewHiro/vulkan/internal/vkdriver"
)

const (
	windowWidth  = 640
	windowHeight = 480
	windowTitle  = "Test"
)

func init() {
	// GLFW/Vulkan require the main thread.
	runtime.LockOSThread()
}

func main() {
	var quit atomic.Bool
	done := make(chan struct{})
	closer.Bind(func() {
		quit.Store(true)
		<-done
	})

	err := run(&quit)
	close(done)
	if err != nil {
		if hint := errors.FlattenHints(err); hint != "" {
			log.Printf("hint: %s", hint)
		}
		closer.Fatalln(err)
	}
	closer.Close()
}

func run(quit *atomic.Bool) (err error) {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "init glfw")
	}
	defer glfw.Terminate()

	vulkan.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vulkan.Init(); err != nil {
		return errors.Wrap(err, "init vulkan loader")
	}

	cfg := render.DefaultConfig()
	cfg.AppName = windowTitle
	cfg.Logger = render.NewLogger(os.Stderr, slog.LevelInfo)
	if dir, err := os.UserCacheDir(); err == nil {
		cfg.PipelineCacheDir = filepath.Join(dir, "vkdemo")
	}
	if cfg, err = render.ConfigFromEnv(cfg); err != nil {
		return err
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	window, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	defer window.Destroy()
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	drv := vkdriver.New()
	sc, err := scene.New(os.Getenv("VKDEMO_SCENE"), drv, scene.DefaultOptions())
	if err != nil {
		return err
	}
	engine := render.NewEngine(drv, sc, cfg)
	if err := engine.Initialize(window, windowTitle); err != nil {
		return errors.Wrap(err, "initialize")
	}
	defer func() {
		if terr := engine.Terminate(); terr != nil && err == nil {
			err = errors.Wrap(terr, "terminate")
		}
	}()

	cfg.Logger.Info("entering main loop")
	for !window.ShouldClose() && !quit.Load() {
		glfw.PollEvents()
		if err := engine.Render(); err != nil {
			return errors.Wrap(err, "render frame")
		}
	}
	return nil
}
