package render

import "golang.org/x/exp/slog"

// Window is the part of a native window the core needs. *glfw.Window satisfies it.
type Window interface {
	GetFramebufferSize() (width, height int)
	GetRequiredInstanceExtensions() []string
}

type InstanceInfo struct {
	AppName    string
	Layers     []string
	Extensions []string
}

type DeviceInfo struct {
	QueueFamily uint32
	Extensions  []string
	Layers      []string
}

type SwapchainInfo struct {
	Surface      Surface
	MinImages    uint32
	Format       SurfaceFormat
	Extent       Extent2D
	PresentMode  PresentMode
	PreTransform uint32
}

type ImageInfo struct {
	Format Format
	Extent Extent3D
	Usage  ImageUsageFlags
}

type ImageViewInfo struct {
	Image  Image
	Format Format
	Aspect ImageAspectFlags
}

type BufferInfo struct {
	Size  uint64
	Usage BufferUsageFlags
}

type AttachmentDesc struct {
	Format        Format
	LoadOp        AttachmentLoadOp
	StoreOp       AttachmentStoreOp
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
}

// RenderPassInfo describes a single graphics subpass writing one color and one
// depth attachment, with an external dependency on color output and early
// fragment tests.
type RenderPassInfo struct {
	Color AttachmentDesc
	Depth AttachmentDesc
}

type FramebufferInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
}

type RenderPassBegin struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Extent      Extent2D
	ClearColor  [4]float32
	ClearDepth  float32
}

type ImageBarrier struct {
	Image     Image
	Aspect    ImageAspectFlags
	OldLayout ImageLayout
	NewLayout ImageLayout
	SrcAccess AccessFlags
	DstAccess AccessFlags
	SrcStage  PipelineStageFlags
	DstStage  PipelineStageFlags
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}

// Driver is the GPU API seen by the core. Timeouts are in nanoseconds and
// WaitForever never expires. Waits that expire return ErrTimeout.
type Driver interface {
	CreateInstance(info InstanceInfo) (Instance, error)
	DestroyInstance(inst Instance)
	CreateDebugCallback(inst Instance, log *slog.Logger) (DebugCallback, error)
	DestroyDebugCallback(inst Instance, cb DebugCallback)

	EnumeratePhysicalDevices(inst Instance) ([]PhysicalDevice, error)
	PhysicalDeviceProperties(pd PhysicalDevice) DeviceProperties
	MemoryTypes(pd PhysicalDevice) []MemoryType
	QueueFamilies(pd PhysicalDevice) []QueueFamily
	DeviceExtensions(pd PhysicalDevice) ([]string, error)

	CreateDevice(pd PhysicalDevice, info DeviceInfo) (Device, error)
	DestroyDevice(dev Device)
	GetDeviceQueue(dev Device, family uint32) Queue
	DeviceWaitIdle(dev Device) error

	CreateSurface(inst Instance, win Window) (Surface, error)
	DestroySurface(inst Instance, s Surface)
	SurfaceFormats(pd PhysicalDevice, s Surface) ([]SurfaceFormat, error)
	SurfaceCapabilities(pd PhysicalDevice, s Surface) (SurfaceCapabilities, error)

	CreateSwapchain(dev Device, info SwapchainInfo) (Swapchain, error)
	DestroySwapchain(dev Device, sc Swapchain)
	SwapchainImages(dev Device, sc Swapchain) ([]Image, error)
	AcquireNextImage(dev Device, sc Swapchain, timeout uint64, signal Semaphore) (uint32, error)
	QueuePresent(q Queue, info PresentInfo) error

	CreateImage(dev Device, info ImageInfo) (Image, error)
	DestroyImage(dev Device, img Image)
	ImageMemoryRequirements(dev Device, img Image) MemoryRequirements
	BindImageMemory(dev Device, img Image, mem DeviceMemory) error
	CreateImageView(dev Device, info ImageViewInfo) (ImageView, error)
	DestroyImageView(dev Device, view ImageView)

	CreateBuffer(dev Device, info BufferInfo) (Buffer, error)
	DestroyBuffer(dev Device, buf Buffer)
	BufferMemoryRequirements(dev Device, buf Buffer) MemoryRequirements
	BindBufferMemory(dev Device, buf Buffer, mem DeviceMemory) error

	AllocateMemory(dev Device, size uint64, typeIndex uint32) (DeviceMemory, error)
	FreeMemory(dev Device, mem DeviceMemory)
	// MapMemory returns a slice aliasing the mapped range. It is only valid
	// until the matching UnmapMemory.
	MapMemory(dev Device, mem DeviceMemory, offset, size uint64) ([]byte, error)
	UnmapMemory(dev Device, mem DeviceMemory)

	CreateRenderPass(dev Device, info RenderPassInfo) (RenderPass, error)
	DestroyRenderPass(dev Device, rp RenderPass)
	CreateFramebuffer(dev Device, info FramebufferInfo) (Framebuffer, error)
	DestroyFramebuffer(dev Device, fb Framebuffer)

	CreateCommandPool(dev Device, family uint32) (CommandPool, error)
	DestroyCommandPool(dev Device, pool CommandPool)
	AllocateCommandBuffers(dev Device, pool CommandPool, count uint32) ([]CommandBuffer, error)
	FreeCommandBuffers(dev Device, pool CommandPool, cmds []CommandBuffer)
	BeginCommandBuffer(cmd CommandBuffer, oneTimeSubmit bool) error
	EndCommandBuffer(cmd CommandBuffer) error
	CmdBeginRenderPass(cmd CommandBuffer, begin RenderPassBegin)
	CmdEndRenderPass(cmd CommandBuffer)
	CmdPipelineBarrier(cmd CommandBuffer, barrier ImageBarrier)
	CmdCopyBufferToImage(cmd CommandBuffer, src Buffer, dst Image, extent Extent3D)
	QueueSubmit(q Queue, info SubmitInfo, fence Fence) error

	CreateFence(dev Device, signaled bool) (Fence, error)
	DestroyFence(dev Device, f Fence)
	WaitForFence(dev Device, f Fence, timeout uint64) error
	ResetFence(dev Device, f Fence) error
	CreateSemaphore(dev Device) (Semaphore, error)
	DestroySemaphore(dev Device, s Semaphore)
}
