package render

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const (
	validationLayer      = "VK_LAYER_KHRONOS_validation"
	debugReportExtension = "VK_EXT_debug_report"
	swapchainExtension   = "VK_KHR_swapchain"
	portabilityExtension = "VK_KHR_portability_subset"
)

// DeviceContext owns the instance, the picked physical device, the logical
// device with its graphics queue and the command pool every other component
// allocates from. It also owns the window surface, since the surface belongs
// to the instance.
type DeviceContext struct {
	drv      Driver
	log      *slog.Logger
	cacheDir string

	Instance       Instance
	PhysicalDevice PhysicalDevice
	Properties     DeviceProperties
	CacheUUID      uuid.UUID
	Memory         MemoryTypes
	Device         Device
	QueueFamily    uint32
	Queue          Queue
	Surface        Surface
	CommandPool    CommandPool

	debug DebugCallback
}

func openDevice(drv Driver, cfg Config, win Window, rel *releaseStack, log *slog.Logger) (*DeviceContext, error) {
	c := &DeviceContext{drv: drv, log: log, cacheDir: cfg.PipelineCacheDir}

	extensions := append([]string(nil), win.GetRequiredInstanceExtensions()...)
	var layers []string
	if cfg.EnableValidation {
		extensions = append(extensions, debugReportExtension)
		layers = []string{validationLayer}
	}
	inst, err := drv.CreateInstance(InstanceInfo{
		AppName:    cfg.AppName,
		Layers:     layers,
		Extensions: extensions,
	})
	if err != nil {
		err = fatal(err, "create instance")
		if cfg.EnableValidation {
			err = errors.WithHint(err, "install the Vulkan SDK validation layers or set VK_VALIDATION=0")
		}
		return nil, err
	}
	c.Instance = inst
	rel.push("instance", func() { drv.DestroyInstance(inst) })

	if err := c.selectPhysicalDevice(); err != nil {
		return nil, err
	}
	family, err := c.searchGraphicsQueueIndex()
	if err != nil {
		return nil, err
	}
	c.QueueFamily = family

	if cfg.EnableValidation {
		cb, err := drv.CreateDebugCallback(inst, log)
		if err != nil {
			return nil, fatal(err, "create debug callback")
		}
		c.debug = cb
		rel.push("debug callback", func() { drv.DestroyDebugCallback(inst, cb) })
	}

	if err := c.createDevice(layers, rel); err != nil {
		return nil, err
	}
	c.Queue = drv.GetDeviceQueue(c.Device, c.QueueFamily)

	surface, err := drv.CreateSurface(inst, win)
	if err != nil {
		return nil, fatal(err, "create window surface")
	}
	c.Surface = surface
	rel.push("surface", func() { drv.DestroySurface(inst, surface) })

	pool, err := drv.CreateCommandPool(c.Device, c.QueueFamily)
	if err != nil {
		return nil, fatal(err, "create command pool")
	}
	c.CommandPool = pool
	dev := c.Device
	rel.push("command pool", func() { drv.DestroyCommandPool(dev, pool) })
	return c, nil
}

// selectPhysicalDevice always takes the first enumerated device.
func (c *DeviceContext) selectPhysicalDevice() error {
	devices, err := c.drv.EnumeratePhysicalDevices(c.Instance)
	if err != nil {
		return fatal(err, "enumerate physical devices")
	}
	if len(devices) == 0 {
		return fatal(ErrNoPhysicalDevice, "enumerate physical devices")
	}
	c.PhysicalDevice = devices[0]
	c.Properties = c.drv.PhysicalDeviceProperties(c.PhysicalDevice)
	c.CacheUUID = uuid.UUID(c.Properties.PipelineCacheUUID)
	c.Memory = MemoryTypes(c.drv.MemoryTypes(c.PhysicalDevice))
	c.log.Info("physical device",
		slog.String("name", c.Properties.Name),
		slog.String("api", apiVersionString(c.Properties.APIVersion)),
		slog.String("pipeline_cache", c.CacheUUID.String()),
		slog.Int("memory_types", len(c.Memory)))
	return nil
}

// searchGraphicsQueueIndex returns the first queue family with graphics support.
func (c *DeviceContext) searchGraphicsQueueIndex() (uint32, error) {
	for i, f := range c.drv.QueueFamilies(c.PhysicalDevice) {
		if f.Flags&QueueGraphics != 0 {
			return uint32(i), nil
		}
	}
	return 0, fatal(ErrNoGraphicsQueue, "search queue families")
}

func (c *DeviceContext) createDevice(layers []string, rel *releaseStack) error {
	available, err := c.drv.DeviceExtensions(c.PhysicalDevice)
	if err != nil {
		return fatal(err, "enumerate device extensions")
	}
	extensions, err := deviceExtensions(available)
	if err != nil {
		return fatal(err, "device extensions")
	}
	dev, err := c.drv.CreateDevice(c.PhysicalDevice, DeviceInfo{
		QueueFamily: c.QueueFamily,
		Extensions:  extensions,
		Layers:      layers,
	})
	if err != nil {
		return fatal(err, "create logical device")
	}
	c.Device = dev
	drv := c.drv
	rel.push("device", func() { drv.DestroyDevice(dev) })
	c.log.Info("logical device",
		slog.Int("queue_family", int(c.QueueFamily)),
		slog.Any("extensions", extensions))
	return nil
}

// deviceExtensions picks the device extensions to enable from those available.
func deviceExtensions(available []string) ([]string, error) {
	has := make(map[string]bool, len(available))
	for _, name := range available {
		has[name] = true
	}
	if !has[swapchainExtension] {
		return nil, errors.Newf("%s not supported by device", swapchainExtension)
	}
	out := []string{swapchainExtension}
	if has[portabilityExtension] {
		out = append(out, portabilityExtension)
	}
	return out, nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (c *DeviceContext) WaitIdle() error {
	if c.Device == 0 {
		return nil
	}
	return errors.Wrap(c.drv.DeviceWaitIdle(c.Device), "device wait idle")
}

func apiVersionString(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>22, (v>>12)&0x3ff, v&0xfff)
}
