package render

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

type SemaphoreMode int

const (
	// SharedSemaphores uses one present-complete and one render-complete
	// semaphore for every frame.
	SharedSemaphores SemaphoreMode = iota
	// PerFrameSemaphores keeps one pair per swapchain image. The
	// render-complete semaphore is picked by the acquired image index, after
	// that image's fence wait. The present-complete semaphore has to be
	// handed to acquire before the index is known, so it is picked by frame
	// counter and no fence guards it: when the swapchain returns images out
	// of order it can be signaled again while an earlier submit still waits
	// on it. Keep SharedSemaphores unless the presentation engine returns
	// images in order.
	PerFrameSemaphores
)

func (m SemaphoreMode) String() string {
	if m == PerFrameSemaphores {
		return "per-frame"
	}
	return "shared"
}

type Config struct {
	AppName          string
	EnableValidation bool
	// SurfaceFormat is the swapchain format asked of the surface.
	SurfaceFormat Format
	ClearColor    [4]float32
	// Zero waits forever.
	AcquireTimeout time.Duration
	FenceTimeout   time.Duration
	Semaphores     SemaphoreMode
	// PipelineCacheDir holds pipeline cache files. Empty disables the cache.
	PipelineCacheDir string
	Logger           *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		AppName:          "vulkan",
		EnableValidation: true,
		SurfaceFormat:    FormatB8G8R8A8Unorm,
		ClearColor:       [4]float32{0.5, 0.25, 0.25, 0},
		Semaphores:       SharedSemaphores,
	}
}

// ConfigFromEnv applies VK_VALIDATION, VK_LOG_LEVEL, VK_FRAME_TIMEOUT,
// VK_PER_FRAME_SEMAPHORES and VK_PIPELINE_CACHE_DIR on top of base.
func ConfigFromEnv(base Config) (Config, error) {
	return configFromLookup(base, os.LookupEnv)
}

func configFromLookup(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	if val, ok := lookup("VK_VALIDATION"); ok && val != "" {
		cfg.EnableValidation = parseBool(val)
	}
	if val, ok := lookup("VK_LOG_LEVEL"); ok && val != "" {
		level, err := ParseLevel(val)
		if err != nil {
			return cfg, err
		}
		cfg.Logger = NewLogger(os.Stderr, level)
	}
	if val, ok := lookup("VK_FRAME_TIMEOUT"); ok && val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return cfg, errors.Wrap(err, "VK_FRAME_TIMEOUT")
		}
		if d < 0 {
			return cfg, errors.Newf("VK_FRAME_TIMEOUT: negative duration %s", d)
		}
		cfg.AcquireTimeout = d
		cfg.FenceTimeout = d
	}
	if val, ok := lookup("VK_PER_FRAME_SEMAPHORES"); ok && val != "" {
		if parseBool(val) {
			cfg.Semaphores = PerFrameSemaphores
		} else {
			cfg.Semaphores = SharedSemaphores
		}
	}
	if val, ok := lookup("VK_PIPELINE_CACHE_DIR"); ok {
		cfg.PipelineCacheDir = val
	}
	return cfg, nil
}

func parseBool(val string) bool {
	switch strings.ToLower(val) {
	case "0", "false", "off", "no":
		return false
	default:
		return true
	}
}

// timeoutNanos converts a configured timeout to the driver's unit.
func timeoutNanos(d time.Duration) uint64 {
	if d <= 0 {
		return WaitForever
	}
	return uint64(d.Nanoseconds())
}
