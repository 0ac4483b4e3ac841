package vkdriver

import (
	"unsafe"

	"github.com/vulkan-go/vulkan"

	"github.com/RewHiro/vulkan/internal/render"
)

func (d *Driver) CreateImage(dev render.Device, info render.ImageInfo) (render.Image, error) {
	createInfo := vulkan.ImageCreateInfo{
		SType:     vulkan.StructureTypeImageCreateInfo,
		ImageType: vulkan.ImageType2d,
		Extent: vulkan.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  info.Extent.Depth,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        vulkan.Format(info.Format),
		Tiling:        vulkan.ImageTilingOptimal,
		InitialLayout: vulkan.ImageLayoutUndefined,
		Usage:         vulkan.ImageUsageFlags(info.Usage),
		Samples:       vulkan.SampleCount1Bit,
		SharingMode:   vulkan.SharingModeExclusive,
	}
	var image vulkan.Image
	if res := vulkan.CreateImage(d.devices.get(uint64(dev)), &createInfo, nil, &image); res != vulkan.Success {
		return 0, check(res, "vkCreateImage")
	}
	return render.Image(d.images.put(image)), nil
}

func (d *Driver) DestroyImage(dev render.Device, img render.Image) {
	if v, ok := d.images.take(uint64(img)); ok {
		vulkan.DestroyImage(d.devices.get(uint64(dev)), v, nil)
	}
}

func (d *Driver) ImageMemoryRequirements(dev render.Device, img render.Image) render.MemoryRequirements {
	var memRequirements vulkan.MemoryRequirements
	vulkan.GetImageMemoryRequirements(d.devices.get(uint64(dev)), d.images.get(uint64(img)), &memRequirements)
	memRequirements.Deref()
	return memoryRequirements(memRequirements)
}

func (d *Driver) BindImageMemory(dev render.Device, img render.Image, mem render.DeviceMemory) error {
	res := vulkan.BindImageMemory(d.devices.get(uint64(dev)), d.images.get(uint64(img)), d.memory.get(uint64(mem)), 0)
	return check(res, "vkBindImageMemory")
}

func (d *Driver) CreateImageView(dev render.Device, info render.ImageViewInfo) (render.ImageView, error) {
	viewInfo := vulkan.ImageViewCreateInfo{
		SType:    vulkan.StructureTypeImageViewCreateInfo,
		Image:    d.images.get(uint64(info.Image)),
		ViewType: vulkan.ImageViewType2d,
		Format:   vulkan.Format(info.Format),
		Components: vulkan.ComponentMapping{
			R: vulkan.ComponentSwizzleIdentity,
			G: vulkan.ComponentSwizzleIdentity,
			B: vulkan.ComponentSwizzleIdentity,
			A: vulkan.ComponentSwizzleIdentity,
		},
		SubresourceRange: vulkan.ImageSubresourceRange{
			AspectMask:     vulkan.ImageAspectFlags(info.Aspect),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vulkan.ImageView
	if res := vulkan.CreateImageView(d.devices.get(uint64(dev)), &viewInfo, nil, &view); res != vulkan.Success {
		return 0, check(res, "vkCreateImageView")
	}
	return render.ImageView(d.views.put(view)), nil
}

func (d *Driver) DestroyImageView(dev render.Device, v render.ImageView) {
	if view, ok := d.views.take(uint64(v)); ok {
		vulkan.DestroyImageView(d.devices.get(uint64(dev)), view, nil)
	}
}

func (d *Driver) CreateBuffer(dev render.Device, info render.BufferInfo) (render.Buffer, error) {
	bufferInfo := vulkan.BufferCreateInfo{
		SType:       vulkan.StructureTypeBufferCreateInfo,
		Size:        vulkan.DeviceSize(info.Size),
		Usage:       vulkan.BufferUsageFlags(info.Usage),
		SharingMode: vulkan.SharingModeExclusive,
	}
	var buffer vulkan.Buffer
	if res := vulkan.CreateBuffer(d.devices.get(uint64(dev)), &bufferInfo, nil, &buffer); res != vulkan.Success {
		return 0, check(res, "vkCreateBuffer")
	}
	return render.Buffer(d.buffers.put(buffer)), nil
}

func (d *Driver) DestroyBuffer(dev render.Device, b render.Buffer) {
	if v, ok := d.buffers.take(uint64(b)); ok {
		vulkan.DestroyBuffer(d.devices.get(uint64(dev)), v, nil)
	}
}

func (d *Driver) BufferMemoryRequirements(dev render.Device, b render.Buffer) render.MemoryRequirements {
	var memReq vulkan.MemoryRequirements
	vulkan.GetBufferMemoryRequirements(d.devices.get(uint64(dev)), d.buffers.get(uint64(b)), &memReq)
	memReq.Deref()
	return memoryRequirements(memReq)
}

func (d *Driver) BindBufferMemory(dev render.Device, b render.Buffer, mem render.DeviceMemory) error {
	res := vulkan.BindBufferMemory(d.devices.get(uint64(dev)), d.buffers.get(uint64(b)), d.memory.get(uint64(mem)), 0)
	return check(res, "vkBindBufferMemory")
}

func (d *Driver) AllocateMemory(dev render.Device, size uint64, typeIndex uint32) (render.DeviceMemory, error) {
	allocInfo := vulkan.MemoryAllocateInfo{
		SType:           vulkan.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vulkan.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}
	var memory vulkan.DeviceMemory
	if res := vulkan.AllocateMemory(d.devices.get(uint64(dev)), &allocInfo, nil, &memory); res != vulkan.Success {
		return 0, check(res, "vkAllocateMemory")
	}
	return render.DeviceMemory(d.memory.put(memory)), nil
}

func (d *Driver) FreeMemory(dev render.Device, mem render.DeviceMemory) {
	if v, ok := d.memory.take(uint64(mem)); ok {
		vulkan.FreeMemory(d.devices.get(uint64(dev)), v, nil)
	}
}

// MapMemory returns the mapped range as a byte slice that is valid until
// UnmapMemory.
func (d *Driver) MapMemory(dev render.Device, mem render.DeviceMemory, offset, size uint64) ([]byte, error) {
	var data unsafe.Pointer
	res := vulkan.MapMemory(d.devices.get(uint64(dev)), d.memory.get(uint64(mem)),
		vulkan.DeviceSize(offset), vulkan.DeviceSize(size), 0, &data)
	if res != vulkan.Success {
		return nil, check(res, "vkMapMemory")
	}
	return (*[1 << 30]byte)(data)[:size:size], nil
}

func (d *Driver) UnmapMemory(dev render.Device, mem render.DeviceMemory) {
	vulkan.UnmapMemory(d.devices.get(uint64(dev)), d.memory.get(uint64(mem)))
}

func memoryRequirements(req vulkan.MemoryRequirements) render.MemoryRequirements {
	return render.MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}
