package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

type fakeWindow struct {
	width, height int
	extensions    []string
}

func (w fakeWindow) GetFramebufferSize() (int, int) { return w.width, w.height }

func (w fakeWindow) GetRequiredInstanceExtensions() []string { return w.extensions }

func newFakeWindow() fakeWindow {
	return fakeWindow{width: 640, height: 480, extensions: []string{"VK_KHR_surface"}}
}

// fakeDriver records every call as "op:kind:handle" strings and backs device
// memory with byte slices.
type fakeDriver struct {
	next  uint64
	calls []string

	memTypes      []MemoryType
	memTypeBits   uint32
	queueFamilies []QueueFamily
	deviceExts    []string
	formats       []SurfaceFormat
	caps          SurfaceCapabilities
	// swapchainImages overrides the image count, otherwise MinImages is used.
	swapchainImages int

	// fail makes the named op return the error once, after skip[op]
	// successful calls.
	fail map[string]error
	skip map[string]int
	// acquire scripts the image indices, round-robin when empty.
	acquire    []uint32
	acquireN   int
	acquireErr error
	fenceErr   error

	acquireTimeout uint64
	fenceTimeout   uint64

	memory        map[DeviceMemory][]byte
	memoryType    map[DeviceMemory]uint32
	buffers       map[Buffer]BufferInfo
	images        map[Image]ImageInfo
	instanceInfo  InstanceInfo
	deviceInfo    DeviceInfo
	swapchainInfo SwapchainInfo
	renderPass    RenderPassInfo
	framebuffers  []FramebufferInfo
	submits       []SubmitInfo
	submitFences  []Fence
	presents      []PresentInfo
	barriers      []ImageBarrier
	begins        []RenderPassBegin
	mapped        int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		memTypes: []MemoryType{
			{HeapIndex: 0, PropertyFlags: MemoryPropertyDeviceLocal},
			{HeapIndex: 1, PropertyFlags: MemoryPropertyHostVisible | MemoryPropertyHostCoherent},
		},
		memTypeBits: 0b11,
		queueFamilies: []QueueFamily{
			{Flags: QueueCompute, Count: 1},
			{Flags: QueueGraphics | QueueCompute, Count: 1},
		},
		deviceExts: []string{swapchainExtension},
		formats:    []SurfaceFormat{{Format: FormatB8G8R8A8Unorm, ColorSpace: ColorSpaceSrgbNonlinear}},
		caps: SurfaceCapabilities{
			MinImageCount:  1,
			MaxImageCount:  3,
			CurrentExtent:  Extent2D{Width: 640, Height: 480},
			MinImageExtent: Extent2D{Width: 1, Height: 1},
			MaxImageExtent: Extent2D{Width: 4096, Height: 4096},
		},
		fail:       map[string]error{},
		skip:       map[string]int{},
		memory:     map[DeviceMemory][]byte{},
		memoryType: map[DeviceMemory]uint32{},
		buffers:    map[Buffer]BufferInfo{},
		images:     map[Image]ImageInfo{},
	}
}

func (d *fakeDriver) handle() uint64 {
	d.next++
	return d.next
}

func (d *fakeDriver) log(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDriver) failed(op string) error {
	if err, ok := d.fail[op]; ok {
		if d.skip[op] > 0 {
			d.skip[op]--
			return nil
		}
		delete(d.fail, op)
		d.log("fail:%s", op)
		return err
	}
	return nil
}

func (d *fakeDriver) create(kind string) (uint64, error) {
	if err := d.failed(kind); err != nil {
		return 0, err
	}
	h := d.handle()
	d.log("create:%s:%d", kind, h)
	return h, nil
}

func (d *fakeDriver) destroy(kind string, h uint64) {
	d.log("destroy:%s:%d", kind, h)
}

// filter returns the recorded calls starting with prefix.
func (d *fakeDriver) filter(prefix string) []string {
	var out []string
	for _, c := range d.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func (d *fakeDriver) indexOf(call string) int {
	for i, c := range d.calls {
		if c == call {
			return i
		}
	}
	return -1
}

func (d *fakeDriver) CreateInstance(info InstanceInfo) (Instance, error) {
	d.instanceInfo = info
	h, err := d.create("instance")
	return Instance(h), err
}

func (d *fakeDriver) DestroyInstance(inst Instance) { d.destroy("instance", uint64(inst)) }

func (d *fakeDriver) CreateDebugCallback(Instance, *slog.Logger) (DebugCallback, error) {
	h, err := d.create("debug")
	return DebugCallback(h), err
}

func (d *fakeDriver) DestroyDebugCallback(_ Instance, cb DebugCallback) {
	d.destroy("debug", uint64(cb))
}

func (d *fakeDriver) EnumeratePhysicalDevices(Instance) ([]PhysicalDevice, error) {
	if err := d.failed("enumerate"); err != nil {
		return nil, err
	}
	return []PhysicalDevice{PhysicalDevice(1000), PhysicalDevice(2000)}, nil
}

func (d *fakeDriver) PhysicalDeviceProperties(pd PhysicalDevice) DeviceProperties {
	d.log("properties:%d", pd)
	return DeviceProperties{
		Name:              "fake gpu",
		APIVersion:        1<<22 | 2<<12,
		PipelineCacheUUID: [16]byte{0xde, 0xad, 0xbe, 0xef},
	}
}

func (d *fakeDriver) MemoryTypes(PhysicalDevice) []MemoryType { return d.memTypes }

func (d *fakeDriver) QueueFamilies(PhysicalDevice) []QueueFamily { return d.queueFamilies }

func (d *fakeDriver) DeviceExtensions(PhysicalDevice) ([]string, error) { return d.deviceExts, nil }

func (d *fakeDriver) CreateDevice(pd PhysicalDevice, info DeviceInfo) (Device, error) {
	d.deviceInfo = info
	h, err := d.create("device")
	return Device(h), err
}

func (d *fakeDriver) DestroyDevice(dev Device) { d.destroy("device", uint64(dev)) }

func (d *fakeDriver) GetDeviceQueue(_ Device, family uint32) Queue {
	d.log("queue:%d", family)
	return Queue(d.handle())
}

func (d *fakeDriver) DeviceWaitIdle(Device) error {
	d.log("waitidle")
	return d.failed("waitidle")
}

func (d *fakeDriver) CreateSurface(Instance, Window) (Surface, error) {
	h, err := d.create("surface")
	return Surface(h), err
}

func (d *fakeDriver) DestroySurface(_ Instance, s Surface) { d.destroy("surface", uint64(s)) }

func (d *fakeDriver) SurfaceFormats(PhysicalDevice, Surface) ([]SurfaceFormat, error) {
	return d.formats, nil
}

func (d *fakeDriver) SurfaceCapabilities(PhysicalDevice, Surface) (SurfaceCapabilities, error) {
	return d.caps, nil
}

func (d *fakeDriver) CreateSwapchain(_ Device, info SwapchainInfo) (Swapchain, error) {
	d.swapchainInfo = info
	h, err := d.create("swapchain")
	return Swapchain(h), err
}

func (d *fakeDriver) DestroySwapchain(_ Device, sc Swapchain) { d.destroy("swapchain", uint64(sc)) }

func (d *fakeDriver) SwapchainImages(Device, Swapchain) ([]Image, error) {
	n := d.swapchainImages
	if n == 0 {
		n = int(d.swapchainInfo.MinImages)
	}
	out := make([]Image, n)
	for i := range out {
		out[i] = Image(d.handle())
	}
	return out, nil
}

func (d *fakeDriver) imageCount() int {
	if d.swapchainImages != 0 {
		return d.swapchainImages
	}
	return int(d.swapchainInfo.MinImages)
}

func (d *fakeDriver) AcquireNextImage(_ Device, _ Swapchain, timeout uint64, signal Semaphore) (uint32, error) {
	d.log("acquire:%d", signal)
	d.acquireTimeout = timeout
	if d.acquireErr != nil {
		return 0, d.acquireErr
	}
	var idx uint32
	if d.acquireN < len(d.acquire) {
		idx = d.acquire[d.acquireN]
	} else {
		idx = uint32(d.acquireN % d.imageCount())
	}
	d.acquireN++
	return idx, nil
}

func (d *fakeDriver) QueuePresent(_ Queue, info PresentInfo) error {
	d.presents = append(d.presents, info)
	d.log("present:%d", info.ImageIndex)
	return d.failed("present")
}

func (d *fakeDriver) CreateImage(_ Device, info ImageInfo) (Image, error) {
	h, err := d.create("image")
	if err == nil {
		d.images[Image(h)] = info
	}
	return Image(h), err
}

func (d *fakeDriver) DestroyImage(_ Device, img Image) { d.destroy("image", uint64(img)) }

func (d *fakeDriver) requirements(size uint64) MemoryRequirements {
	const align = 256
	return MemoryRequirements{
		Size:           (size + align - 1) / align * align,
		Alignment:      align,
		MemoryTypeBits: d.memTypeBits,
	}
}

func (d *fakeDriver) ImageMemoryRequirements(_ Device, img Image) MemoryRequirements {
	info := d.images[img]
	return d.requirements(uint64(info.Extent.Width) * uint64(info.Extent.Height) * 4)
}

func (d *fakeDriver) BindImageMemory(_ Device, img Image, mem DeviceMemory) error {
	d.log("bind:image:%d:%d", img, mem)
	return d.failed("bindimage")
}

func (d *fakeDriver) CreateImageView(_ Device, info ImageViewInfo) (ImageView, error) {
	h, err := d.create("view")
	return ImageView(h), err
}

func (d *fakeDriver) DestroyImageView(_ Device, v ImageView) { d.destroy("view", uint64(v)) }

func (d *fakeDriver) CreateBuffer(_ Device, info BufferInfo) (Buffer, error) {
	h, err := d.create("buffer")
	if err == nil {
		d.buffers[Buffer(h)] = info
	}
	return Buffer(h), err
}

func (d *fakeDriver) DestroyBuffer(_ Device, b Buffer) { d.destroy("buffer", uint64(b)) }

func (d *fakeDriver) BufferMemoryRequirements(_ Device, b Buffer) MemoryRequirements {
	return d.requirements(d.buffers[b].Size)
}

func (d *fakeDriver) BindBufferMemory(_ Device, b Buffer, mem DeviceMemory) error {
	d.log("bind:buffer:%d:%d", b, mem)
	return d.failed("bindbuffer")
}

func (d *fakeDriver) AllocateMemory(_ Device, size uint64, typeIndex uint32) (DeviceMemory, error) {
	h, err := d.create("memory")
	if err != nil {
		return 0, err
	}
	d.memory[DeviceMemory(h)] = make([]byte, size)
	d.memoryType[DeviceMemory(h)] = typeIndex
	return DeviceMemory(h), nil
}

func (d *fakeDriver) FreeMemory(_ Device, mem DeviceMemory) { d.destroy("memory", uint64(mem)) }

func (d *fakeDriver) MapMemory(_ Device, mem DeviceMemory, offset, size uint64) ([]byte, error) {
	if err := d.failed("map"); err != nil {
		return nil, err
	}
	buf, ok := d.memory[mem]
	if !ok {
		return nil, errors.Newf("map of unknown memory %d", mem)
	}
	if offset+size > uint64(len(buf)) {
		return nil, errors.Newf("map range %d+%d exceeds %d", offset, size, len(buf))
	}
	d.mapped++
	d.log("map:%d", mem)
	return buf[offset : offset+size], nil
}

func (d *fakeDriver) UnmapMemory(_ Device, mem DeviceMemory) {
	d.mapped--
	d.log("unmap:%d", mem)
}

func (d *fakeDriver) CreateRenderPass(_ Device, info RenderPassInfo) (RenderPass, error) {
	d.renderPass = info
	h, err := d.create("renderpass")
	return RenderPass(h), err
}

func (d *fakeDriver) DestroyRenderPass(_ Device, rp RenderPass) { d.destroy("renderpass", uint64(rp)) }

func (d *fakeDriver) CreateFramebuffer(_ Device, info FramebufferInfo) (Framebuffer, error) {
	h, err := d.create("framebuffer")
	if err == nil {
		d.framebuffers = append(d.framebuffers, info)
	}
	return Framebuffer(h), err
}

func (d *fakeDriver) DestroyFramebuffer(_ Device, fb Framebuffer) {
	d.destroy("framebuffer", uint64(fb))
}

func (d *fakeDriver) CreateCommandPool(Device, uint32) (CommandPool, error) {
	h, err := d.create("pool")
	return CommandPool(h), err
}

func (d *fakeDriver) DestroyCommandPool(_ Device, p CommandPool) { d.destroy("pool", uint64(p)) }

func (d *fakeDriver) AllocateCommandBuffers(_ Device, _ CommandPool, count uint32) ([]CommandBuffer, error) {
	if err := d.failed("cmdbuf"); err != nil {
		return nil, err
	}
	out := make([]CommandBuffer, count)
	for i := range out {
		out[i] = CommandBuffer(d.handle())
		d.log("create:cmdbuf:%d", out[i])
	}
	return out, nil
}

func (d *fakeDriver) FreeCommandBuffers(_ Device, _ CommandPool, cmds []CommandBuffer) {
	for i := len(cmds) - 1; i >= 0; i-- {
		d.destroy("cmdbuf", uint64(cmds[i]))
	}
}

func (d *fakeDriver) BeginCommandBuffer(cmd CommandBuffer, oneTime bool) error {
	d.log("begin:%d", cmd)
	return d.failed("begin")
}

func (d *fakeDriver) EndCommandBuffer(cmd CommandBuffer) error {
	d.log("end:%d", cmd)
	return d.failed("end")
}

func (d *fakeDriver) CmdBeginRenderPass(cmd CommandBuffer, begin RenderPassBegin) {
	d.begins = append(d.begins, begin)
	d.log("beginpass:%d:%d", cmd, begin.Framebuffer)
}

func (d *fakeDriver) CmdEndRenderPass(cmd CommandBuffer) { d.log("endpass:%d", cmd) }

func (d *fakeDriver) CmdPipelineBarrier(cmd CommandBuffer, b ImageBarrier) {
	d.barriers = append(d.barriers, b)
	d.log("barrier:%d:%s->%s", b.Image, b.OldLayout, b.NewLayout)
}

func (d *fakeDriver) CmdCopyBufferToImage(cmd CommandBuffer, src Buffer, dst Image, extent Extent3D) {
	d.log("copy:%d->%d:%dx%dx%d", src, dst, extent.Width, extent.Height, extent.Depth)
}

func (d *fakeDriver) QueueSubmit(_ Queue, info SubmitInfo, fence Fence) error {
	if err := d.failed("submit"); err != nil {
		return err
	}
	d.submits = append(d.submits, info)
	d.submitFences = append(d.submitFences, fence)
	d.log("submit:%d:%d", info.CommandBuffers[0], fence)
	return nil
}

func (d *fakeDriver) CreateFence(_ Device, signaled bool) (Fence, error) {
	h, err := d.create("fence")
	return Fence(h), err
}

func (d *fakeDriver) DestroyFence(_ Device, f Fence) { d.destroy("fence", uint64(f)) }

func (d *fakeDriver) WaitForFence(_ Device, f Fence, timeout uint64) error {
	d.log("wait:%d", f)
	d.fenceTimeout = timeout
	return d.fenceErr
}

func (d *fakeDriver) ResetFence(_ Device, f Fence) error {
	d.log("reset:%d", f)
	return nil
}

func (d *fakeDriver) CreateSemaphore(Device) (Semaphore, error) {
	h, err := d.create("semaphore")
	return Semaphore(h), err
}

func (d *fakeDriver) DestroySemaphore(_ Device, s Semaphore) { d.destroy("semaphore", uint64(s)) }

var _ Driver = (*fakeDriver)(nil)
