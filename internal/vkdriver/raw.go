package vkdriver

import (
	"github.com/vulkan-go/vulkan"

	"github.com/RewHiro/vulkan/internal/render"
)

// The accessors below hand out the vulkan-go handle behind a render handle.
// Scenes use them to build pipelines and descriptors the core does not model.
// Objects made from raw handles are owned and destroyed by the caller.

func (d *Driver) VKDevice(dev render.Device) vulkan.Device {
	return d.devices.get(uint64(dev))
}

func (d *Driver) VKPhysicalDevice(pd render.PhysicalDevice) vulkan.PhysicalDevice {
	return d.physical.get(uint64(pd))
}

func (d *Driver) VKCommandBuffer(cmd render.CommandBuffer) vulkan.CommandBuffer {
	return d.cmds.get(uint64(cmd))
}

func (d *Driver) VKRenderPass(rp render.RenderPass) vulkan.RenderPass {
	return d.passes.get(uint64(rp))
}

func (d *Driver) VKBuffer(b render.Buffer) vulkan.Buffer {
	return d.buffers.get(uint64(b))
}

func (d *Driver) VKImageView(v render.ImageView) vulkan.ImageView {
	return d.views.get(uint64(v))
}

func (d *Driver) VKQueue(q render.Queue) vulkan.Queue {
	return d.queues.get(uint64(q))
}
