package vkdriver

import (
	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"

	"github.com/RewHiro/vulkan/internal/render"
)

func attachmentDescription(a render.AttachmentDesc) vulkan.AttachmentDescription {
	return vulkan.AttachmentDescription{
		Format:         vulkan.Format(a.Format),
		Samples:        vulkan.SampleCount1Bit,
		LoadOp:         vulkan.AttachmentLoadOp(a.LoadOp),
		StoreOp:        vulkan.AttachmentStoreOp(a.StoreOp),
		StencilLoadOp:  vulkan.AttachmentLoadOpDontCare,
		StencilStoreOp: vulkan.AttachmentStoreOpDontCare,
		InitialLayout:  vulkan.ImageLayout(a.InitialLayout),
		FinalLayout:    vulkan.ImageLayout(a.FinalLayout),
	}
}

func (d *Driver) CreateRenderPass(dev render.Device, info render.RenderPassInfo) (render.RenderPass, error) {
	colorRef := vulkan.AttachmentReference{
		Attachment: 0,
		Layout:     vulkan.ImageLayoutColorAttachmentOptimal,
	}
	depthRef := vulkan.AttachmentReference{
		Attachment: 1,
		Layout:     vulkan.ImageLayoutDepthStencilAttachmentOptimal,
	}
	subpass := vulkan.SubpassDescription{
		PipelineBindPoint:       vulkan.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vulkan.AttachmentReference{colorRef},
		PDepthStencilAttachment: &depthRef,
	}
	dependency := vulkan.SubpassDependency{
		SrcSubpass:    vulkan.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vulkan.PipelineStageFlags(vulkan.PipelineStageColorAttachmentOutputBit | vulkan.PipelineStageEarlyFragmentTestsBit),
		SrcAccessMask: 0,
		DstStageMask:  vulkan.PipelineStageFlags(vulkan.PipelineStageColorAttachmentOutputBit | vulkan.PipelineStageEarlyFragmentTestsBit),
		DstAccessMask: vulkan.AccessFlags(vulkan.AccessColorAttachmentWriteBit | vulkan.AccessDepthStencilAttachmentWriteBit),
	}
	attachments := []vulkan.AttachmentDescription{
		attachmentDescription(info.Color),
		attachmentDescription(info.Depth),
	}
	createInfo := vulkan.RenderPassCreateInfo{
		SType:           vulkan.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vulkan.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vulkan.SubpassDependency{dependency},
	}
	var rp vulkan.RenderPass
	if res := vulkan.CreateRenderPass(d.devices.get(uint64(dev)), &createInfo, nil, &rp); res != vulkan.Success {
		return 0, check(res, "vkCreateRenderPass")
	}
	return render.RenderPass(d.passes.put(rp)), nil
}

func (d *Driver) DestroyRenderPass(dev render.Device, rp render.RenderPass) {
	if v, ok := d.passes.take(uint64(rp)); ok {
		vulkan.DestroyRenderPass(d.devices.get(uint64(dev)), v, nil)
	}
}

func (d *Driver) CreateFramebuffer(dev render.Device, info render.FramebufferInfo) (render.Framebuffer, error) {
	attachments := make([]vulkan.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		attachments[i] = d.views.get(uint64(v))
	}
	createInfo := vulkan.FramebufferCreateInfo{
		SType:           vulkan.StructureTypeFramebufferCreateInfo,
		RenderPass:      d.passes.get(uint64(info.RenderPass)),
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           info.Extent.Width,
		Height:          info.Extent.Height,
		Layers:          1,
	}
	var fb vulkan.Framebuffer
	if res := vulkan.CreateFramebuffer(d.devices.get(uint64(dev)), &createInfo, nil, &fb); res != vulkan.Success {
		return 0, check(res, "vkCreateFramebuffer")
	}
	return render.Framebuffer(d.fbs.put(fb)), nil
}

func (d *Driver) DestroyFramebuffer(dev render.Device, fb render.Framebuffer) {
	if v, ok := d.fbs.take(uint64(fb)); ok {
		vulkan.DestroyFramebuffer(d.devices.get(uint64(dev)), v, nil)
	}
}

func (d *Driver) CreateCommandPool(dev render.Device, family uint32) (render.CommandPool, error) {
	poolInfo := vulkan.CommandPoolCreateInfo{
		SType:            vulkan.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            vulkan.CommandPoolCreateFlags(vulkan.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vulkan.CommandPool
	if res := vulkan.CreateCommandPool(d.devices.get(uint64(dev)), &poolInfo, nil, &pool); res != vulkan.Success {
		return 0, check(res, "vkCreateCommandPool")
	}
	return render.CommandPool(d.pools.put(pool)), nil
}

func (d *Driver) DestroyCommandPool(dev render.Device, pool render.CommandPool) {
	if v, ok := d.pools.take(uint64(pool)); ok {
		vulkan.DestroyCommandPool(d.devices.get(uint64(dev)), v, nil)
	}
}

func (d *Driver) AllocateCommandBuffers(dev render.Device, pool render.CommandPool, count uint32) ([]render.CommandBuffer, error) {
	if count == 0 {
		return nil, errors.New("allocate zero command buffers")
	}
	allocInfo := vulkan.CommandBufferAllocateInfo{
		SType:              vulkan.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pools.get(uint64(pool)),
		Level:              vulkan.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}
	cmds := make([]vulkan.CommandBuffer, count)
	if res := vulkan.AllocateCommandBuffers(d.devices.get(uint64(dev)), &allocInfo, cmds); res != vulkan.Success {
		return nil, check(res, "vkAllocateCommandBuffers")
	}
	out := make([]render.CommandBuffer, count)
	for i, cmd := range cmds {
		out[i] = render.CommandBuffer(d.cmds.put(cmd))
	}
	return out, nil
}

func (d *Driver) FreeCommandBuffers(dev render.Device, pool render.CommandPool, cmds []render.CommandBuffer) {
	buffers := make([]vulkan.CommandBuffer, 0, len(cmds))
	for _, c := range cmds {
		if v, ok := d.cmds.take(uint64(c)); ok {
			buffers = append(buffers, v)
		}
	}
	if len(buffers) == 0 {
		return
	}
	vulkan.FreeCommandBuffers(d.devices.get(uint64(dev)), d.pools.get(uint64(pool)), uint32(len(buffers)), buffers)
}

func (d *Driver) BeginCommandBuffer(cmd render.CommandBuffer, oneTimeSubmit bool) error {
	beginInfo := vulkan.CommandBufferBeginInfo{
		SType: vulkan.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		beginInfo.Flags = vulkan.CommandBufferUsageFlags(vulkan.CommandBufferUsageOneTimeSubmitBit)
	}
	return check(vulkan.BeginCommandBuffer(d.cmds.get(uint64(cmd)), &beginInfo), "vkBeginCommandBuffer")
}

func (d *Driver) EndCommandBuffer(cmd render.CommandBuffer) error {
	return check(vulkan.EndCommandBuffer(d.cmds.get(uint64(cmd))), "vkEndCommandBuffer")
}

func (d *Driver) CmdBeginRenderPass(cmd render.CommandBuffer, begin render.RenderPassBegin) {
	clearValues := []vulkan.ClearValue{
		vulkan.NewClearValue(begin.ClearColor[:]),
		vulkan.NewClearDepthStencil(begin.ClearDepth, 0),
	}
	renderPassInfo := vulkan.RenderPassBeginInfo{
		SType:       vulkan.StructureTypeRenderPassBeginInfo,
		RenderPass:  d.passes.get(uint64(begin.RenderPass)),
		Framebuffer: d.fbs.get(uint64(begin.Framebuffer)),
		RenderArea: vulkan.Rect2D{
			Offset: vulkan.Offset2D{X: 0, Y: 0},
			Extent: vkExtent2D(begin.Extent),
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vulkan.CmdBeginRenderPass(d.cmds.get(uint64(cmd)), &renderPassInfo, vulkan.SubpassContentsInline)
}

func (d *Driver) CmdEndRenderPass(cmd render.CommandBuffer) {
	vulkan.CmdEndRenderPass(d.cmds.get(uint64(cmd)))
}

func (d *Driver) CmdPipelineBarrier(cmd render.CommandBuffer, b render.ImageBarrier) {
	barrier := vulkan.ImageMemoryBarrier{
		SType:               vulkan.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vulkan.AccessFlags(b.SrcAccess),
		DstAccessMask:       vulkan.AccessFlags(b.DstAccess),
		OldLayout:           vulkan.ImageLayout(b.OldLayout),
		NewLayout:           vulkan.ImageLayout(b.NewLayout),
		SrcQueueFamilyIndex: vulkan.QueueFamilyIgnored,
		DstQueueFamilyIndex: vulkan.QueueFamilyIgnored,
		Image:               d.images.get(uint64(b.Image)),
		SubresourceRange: vulkan.ImageSubresourceRange{
			AspectMask:     vulkan.ImageAspectFlags(b.Aspect),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vulkan.CmdPipelineBarrier(d.cmds.get(uint64(cmd)),
		vulkan.PipelineStageFlags(b.SrcStage), vulkan.PipelineStageFlags(b.DstStage),
		0,
		0, nil,
		0, nil,
		1, []vulkan.ImageMemoryBarrier{barrier})
}

func (d *Driver) CmdCopyBufferToImage(cmd render.CommandBuffer, src render.Buffer, dst render.Image, extent render.Extent3D) {
	region := vulkan.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vulkan.ImageSubresourceLayers{
			AspectMask:     vulkan.ImageAspectFlags(vulkan.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vulkan.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vulkan.Extent3D{Width: extent.Width, Height: extent.Height, Depth: extent.Depth},
	}
	vulkan.CmdCopyBufferToImage(d.cmds.get(uint64(cmd)), d.buffers.get(uint64(src)), d.images.get(uint64(dst)),
		vulkan.ImageLayoutTransferDstOptimal, 1, []vulkan.BufferImageCopy{region})
}

func (d *Driver) QueueSubmit(q render.Queue, info render.SubmitInfo, fence render.Fence) error {
	waits := d.semaphoreList(info.WaitSemaphores)
	signals := d.semaphoreList(info.SignalSemaphores)
	stages := make([]vulkan.PipelineStageFlags, len(info.WaitStages))
	for i, s := range info.WaitStages {
		stages[i] = vulkan.PipelineStageFlags(s)
	}
	cmds := make([]vulkan.CommandBuffer, len(info.CommandBuffers))
	for i, c := range info.CommandBuffers {
		cmds[i] = d.cmds.get(uint64(c))
	}
	submitInfo := vulkan.SubmitInfo{
		SType:                vulkan.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waits)),
		PWaitSemaphores:      waits,
		PWaitDstStageMask:    stages,
		CommandBufferCount:   uint32(len(cmds)),
		PCommandBuffers:      cmds,
		SignalSemaphoreCount: uint32(len(signals)),
		PSignalSemaphores:    signals,
	}
	res := vulkan.QueueSubmit(d.queues.get(uint64(q)), 1, []vulkan.SubmitInfo{submitInfo}, d.fences.get(uint64(fence)))
	return check(res, "vkQueueSubmit")
}

func (d *Driver) CreateFence(dev render.Device, signaled bool) (render.Fence, error) {
	fenceInfo := vulkan.FenceCreateInfo{
		SType: vulkan.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceInfo.Flags = vulkan.FenceCreateFlags(vulkan.FenceCreateSignaledBit)
	}
	var fence vulkan.Fence
	if res := vulkan.CreateFence(d.devices.get(uint64(dev)), &fenceInfo, nil, &fence); res != vulkan.Success {
		return 0, check(res, "vkCreateFence")
	}
	return render.Fence(d.fences.put(fence)), nil
}

func (d *Driver) DestroyFence(dev render.Device, f render.Fence) {
	if v, ok := d.fences.take(uint64(f)); ok {
		vulkan.DestroyFence(d.devices.get(uint64(dev)), v, nil)
	}
}

func (d *Driver) WaitForFence(dev render.Device, f render.Fence, timeout uint64) error {
	res := vulkan.WaitForFences(d.devices.get(uint64(dev)), 1, []vulkan.Fence{d.fences.get(uint64(f))}, vulkan.True, timeout)
	return check(res, "vkWaitForFences")
}

func (d *Driver) ResetFence(dev render.Device, f render.Fence) error {
	return check(vulkan.ResetFences(d.devices.get(uint64(dev)), 1, []vulkan.Fence{d.fences.get(uint64(f))}), "vkResetFences")
}

func (d *Driver) CreateSemaphore(dev render.Device) (render.Semaphore, error) {
	semInfo := vulkan.SemaphoreCreateInfo{
		SType: vulkan.StructureTypeSemaphoreCreateInfo,
	}
	var sem vulkan.Semaphore
	if res := vulkan.CreateSemaphore(d.devices.get(uint64(dev)), &semInfo, nil, &sem); res != vulkan.Success {
		return 0, check(res, "vkCreateSemaphore")
	}
	return render.Semaphore(d.semaphores.put(sem)), nil
}

func (d *Driver) DestroySemaphore(dev render.Device, s render.Semaphore) {
	if v, ok := d.semaphores.take(uint64(s)); ok {
		vulkan.DestroySemaphore(d.devices.get(uint64(dev)), v, nil)
	}
}

func (d *Driver) semaphoreList(sems []render.Semaphore) []vulkan.Semaphore {
	if len(sems) == 0 {
		return nil
	}
	out := make([]vulkan.Semaphore, len(sems))
	for i, s := range sems {
		out[i] = d.semaphores.get(uint64(s))
	}
	return out
}
