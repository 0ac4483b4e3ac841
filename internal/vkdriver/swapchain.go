package vkdriver

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"

	"github.com/RewHiro/vulkan/internal/render"
)

// surfaceCreator is the part of *glfw.Window that makes a VkSurfaceKHR.
type surfaceCreator interface {
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}

func (d *Driver) CreateSurface(inst render.Instance, win render.Window) (render.Surface, error) {
	sc, ok := win.(surfaceCreator)
	if !ok {
		return 0, errors.Newf("window %T cannot create a Vulkan surface", win)
	}
	ptr, err := sc.CreateWindowSurface(d.instances.get(uint64(inst)), nil)
	if err != nil {
		return 0, errors.Wrap(err, "create window surface")
	}
	return render.Surface(d.surfaces.put(vulkan.SurfaceFromPointer(ptr))), nil
}

func (d *Driver) DestroySurface(inst render.Instance, s render.Surface) {
	if v, ok := d.surfaces.take(uint64(s)); ok {
		vulkan.DestroySurface(d.instances.get(uint64(inst)), v, nil)
	}
}

func (d *Driver) SurfaceFormats(pd render.PhysicalDevice, s render.Surface) ([]render.SurfaceFormat, error) {
	device, surface := d.physical.get(uint64(pd)), d.surfaces.get(uint64(s))
	var count uint32
	if res := vulkan.GetPhysicalDeviceSurfaceFormats(device, surface, &count, nil); res != vulkan.Success {
		return nil, check(res, "vkGetPhysicalDeviceSurfaceFormatsKHR")
	}
	formats := make([]vulkan.SurfaceFormat, count)
	if count > 0 {
		if res := vulkan.GetPhysicalDeviceSurfaceFormats(device, surface, &count, formats); res != vulkan.Success {
			return nil, check(res, "vkGetPhysicalDeviceSurfaceFormatsKHR")
		}
	}
	out := make([]render.SurfaceFormat, 0, count)
	for i := range formats[:count] {
		formats[i].Deref()
		out = append(out, render.SurfaceFormat{
			Format:     render.Format(formats[i].Format),
			ColorSpace: render.ColorSpace(formats[i].ColorSpace),
		})
	}
	return out, nil
}

func (d *Driver) SurfaceCapabilities(pd render.PhysicalDevice, s render.Surface) (render.SurfaceCapabilities, error) {
	var caps vulkan.SurfaceCapabilities
	res := vulkan.GetPhysicalDeviceSurfaceCapabilities(d.physical.get(uint64(pd)), d.surfaces.get(uint64(s)), &caps)
	if res != vulkan.Success {
		return render.SurfaceCapabilities{}, check(res, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return render.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    extent2D(caps.CurrentExtent),
		MinImageExtent:   extent2D(caps.MinImageExtent),
		MaxImageExtent:   extent2D(caps.MaxImageExtent),
		CurrentTransform: uint32(caps.CurrentTransform),
	}, nil
}

func (d *Driver) CreateSwapchain(dev render.Device, info render.SwapchainInfo) (render.Swapchain, error) {
	createInfo := vulkan.SwapchainCreateInfo{
		SType:            vulkan.StructureTypeSwapchainCreateInfo,
		Surface:          d.surfaces.get(uint64(info.Surface)),
		MinImageCount:    info.MinImages,
		ImageFormat:      vulkan.Format(info.Format.Format),
		ImageColorSpace:  vulkan.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      vkExtent2D(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vulkan.ImageUsageFlags(vulkan.ImageUsageColorAttachmentBit),
		ImageSharingMode: vulkan.SharingModeExclusive,
		PreTransform:     vulkan.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:   vulkan.CompositeAlphaOpaqueBit,
		PresentMode:      vulkan.PresentMode(info.PresentMode),
		Clipped:          vulkan.True,
		OldSwapchain:     vulkan.Swapchain(vulkan.NullHandle),
	}
	var sc vulkan.Swapchain
	if res := vulkan.CreateSwapchain(d.devices.get(uint64(dev)), &createInfo, nil, &sc); res != vulkan.Success {
		return 0, check(res, "vkCreateSwapchainKHR")
	}
	return render.Swapchain(d.swapchains.put(sc)), nil
}

func (d *Driver) DestroySwapchain(dev render.Device, sc render.Swapchain) {
	if v, ok := d.swapchains.take(uint64(sc)); ok {
		vulkan.DestroySwapchain(d.devices.get(uint64(dev)), v, nil)
	}
}

// SwapchainImages registers the swapchain's images. They belong to the
// swapchain and are never passed to DestroyImage.
func (d *Driver) SwapchainImages(dev render.Device, sc render.Swapchain) ([]render.Image, error) {
	device, swapchain := d.devices.get(uint64(dev)), d.swapchains.get(uint64(sc))
	var count uint32
	if res := vulkan.GetSwapchainImages(device, swapchain, &count, nil); res != vulkan.Success {
		return nil, check(res, "vkGetSwapchainImagesKHR")
	}
	images := make([]vulkan.Image, count)
	if res := vulkan.GetSwapchainImages(device, swapchain, &count, images); res != vulkan.Success {
		return nil, check(res, "vkGetSwapchainImagesKHR")
	}
	out := make([]render.Image, 0, count)
	for _, img := range images[:count] {
		out = append(out, render.Image(d.images.put(img)))
	}
	return out, nil
}

func (d *Driver) AcquireNextImage(dev render.Device, sc render.Swapchain, timeout uint64, signal render.Semaphore) (uint32, error) {
	var index uint32
	res := vulkan.AcquireNextImage(d.devices.get(uint64(dev)), d.swapchains.get(uint64(sc)), timeout,
		d.semaphores.get(uint64(signal)), vulkan.Fence(vulkan.NullHandle), &index)
	if res != vulkan.Success && res != vulkan.Suboptimal {
		return 0, check(res, "vkAcquireNextImageKHR")
	}
	return index, nil
}

func (d *Driver) QueuePresent(q render.Queue, info render.PresentInfo) error {
	waits := d.semaphoreList(info.WaitSemaphores)
	presentInfo := vulkan.PresentInfo{
		SType:              vulkan.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(waits)),
		PWaitSemaphores:    waits,
		SwapchainCount:     1,
		PSwapchains:        []vulkan.Swapchain{d.swapchains.get(uint64(info.Swapchain))},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	res := vulkan.QueuePresent(d.queues.get(uint64(q)), &presentInfo)
	if res != vulkan.Success && res != vulkan.Suboptimal {
		return check(res, "vkQueuePresentKHR")
	}
	return nil
}

func extent2D(e vulkan.Extent2D) render.Extent2D {
	return render.Extent2D{Width: e.Width, Height: e.Height}
}

func vkExtent2D(e render.Extent2D) vulkan.Extent2D {
	return vulkan.Extent2D{Width: e.Width, Height: e.Height}
}
