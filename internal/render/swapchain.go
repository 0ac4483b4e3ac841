package render

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// DepthFormat is the format of the shared depth buffer.
const DepthFormat = FormatD32Sfloat

type DepthResource struct {
	Image  Image
	Memory DeviceMemory
	View   ImageView
	Format Format
}

// SwapchainState is the negotiated swapchain and every per-image view. Images
// belong to the swapchain and are never destroyed individually.
type SwapchainState struct {
	Surface      Surface
	Format       SurfaceFormat
	Capabilities SurfaceCapabilities
	PresentMode  PresentMode
	Handle       Swapchain
	Extent       Extent2D
	Images       []Image
	Views        []ImageView
	Depth        DepthResource
}

// ImageCount is the number of images the swapchain actually created.
func (s *SwapchainState) ImageCount() int {
	return len(s.Images)
}

// SelectSurfaceFormat returns the last entry of formats whose format is
// desired. A single FormatUndefined entry means the surface takes any format.
func SelectSurfaceFormat(formats []SurfaceFormat, desired Format) (SurfaceFormat, error) {
	if len(formats) == 1 && formats[0].Format == FormatUndefined {
		return SurfaceFormat{Format: desired, ColorSpace: formats[0].ColorSpace}, nil
	}
	var (
		chosen SurfaceFormat
		found  bool
	)
	for _, f := range formats {
		if f.Format == desired {
			chosen = f
			found = true
		}
	}
	if !found {
		return SurfaceFormat{}, errors.Wrapf(ErrNoSurfaceFormat, "format %d among %d offered", desired, len(formats))
	}
	return chosen, nil
}

// NegotiateImageCount asks for at least two images and never more than the
// surface allows.
func NegotiateImageCount(caps SurfaceCapabilities) uint32 {
	count := caps.MinImageCount
	if count < 2 {
		count = 2
	}
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// NegotiateExtent uses the surface's current extent, or the window's pixel size
// clamped to the surface limits when the surface leaves it open.
func NegotiateExtent(caps SurfaceCapabilities, win Window) Extent2D {
	if caps.CurrentExtent.Width != AnyExtent {
		return caps.CurrentExtent
	}
	w, h := win.GetFramebufferSize()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Extent2D{
		Width:  clamp(uint32(w), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(h), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(val, min, max uint32) uint32 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func createSwapchain(drv Driver, dev *DeviceContext, res *Resources, cfg Config, win Window, rel *releaseStack, log *slog.Logger) (*SwapchainState, error) {
	s := &SwapchainState{Surface: dev.Surface, PresentMode: PresentModeFifo}

	formats, err := drv.SurfaceFormats(dev.PhysicalDevice, dev.Surface)
	if err != nil {
		return nil, fatal(err, "query surface formats")
	}
	if s.Format, err = SelectSurfaceFormat(formats, cfg.SurfaceFormat); err != nil {
		return nil, fatal(err, "select surface format")
	}
	if s.Capabilities, err = drv.SurfaceCapabilities(dev.PhysicalDevice, dev.Surface); err != nil {
		return nil, fatal(err, "query surface capabilities")
	}
	s.Extent = NegotiateExtent(s.Capabilities, win)
	minImages := NegotiateImageCount(s.Capabilities)

	device := dev.Device
	sc, err := drv.CreateSwapchain(device, SwapchainInfo{
		Surface:      dev.Surface,
		MinImages:    minImages,
		Format:       s.Format,
		Extent:       s.Extent,
		PresentMode:  s.PresentMode,
		PreTransform: s.Capabilities.CurrentTransform,
	})
	if err != nil {
		return nil, fatal(err, "create swapchain")
	}
	s.Handle = sc
	rel.push("swapchain", func() { drv.DestroySwapchain(device, sc) })

	if s.Images, err = drv.SwapchainImages(device, sc); err != nil {
		return nil, fatal(err, "get swapchain images")
	}
	if len(s.Images) == 0 {
		return nil, fatal(errors.New("swapchain has no images"), "get swapchain images")
	}
	log.Info("swapchain",
		slog.Int("images", len(s.Images)),
		slog.Int("requested", int(minImages)),
		slog.Int("width", int(s.Extent.Width)),
		slog.Int("height", int(s.Extent.Height)),
		slog.Int("format", int(s.Format.Format)))

	if err := s.createSwapchainViews(res, rel); err != nil {
		return nil, err
	}
	if err := s.createDepthBuffer(drv, res, rel); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SwapchainState) createSwapchainViews(res *Resources, rel *releaseStack) error {
	s.Views = make([]ImageView, 0, len(s.Images))
	for i, img := range s.Images {
		view, err := res.CreateImageView(img, s.Format.Format, ImageAspectColor)
		if err != nil {
			return fatalf(err, "create swapchain image view %d", i)
		}
		s.Views = append(s.Views, view)
		rel.push("swapchain image view", func() { res.drv.DestroyImageView(res.dev.Device, view) })
	}
	return nil
}

func (s *SwapchainState) createDepthBuffer(drv Driver, res *Resources, rel *releaseStack) error {
	device := res.dev.Device
	img, mem, err := res.CreateImage(ImageInfo{
		Format: DepthFormat,
		Extent: Extent3D{Width: s.Extent.Width, Height: s.Extent.Height, Depth: 1},
		Usage:  ImageUsageDepthStencilAttachment,
	}, MemoryPropertyDeviceLocal)
	if err != nil {
		return fatal(err, "create depth buffer")
	}
	rel.push("depth image", func() { drv.DestroyImage(device, img) })
	rel.push("depth memory", func() { drv.FreeMemory(device, mem) })

	view, err := res.CreateImageView(img, DepthFormat, AspectFor(DepthFormat))
	if err != nil {
		return fatal(err, "create depth buffer view")
	}
	rel.push("depth view", func() { drv.DestroyImageView(device, view) })
	s.Depth = DepthResource{Image: img, Memory: mem, View: view, Format: DepthFormat}
	return nil
}
