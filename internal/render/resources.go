package render

import (
	"github.com/cockroachdb/errors"
	units "github.com/docker/go-units"
	"github.com/loov/hrtime"
	"golang.org/x/exp/slog"
)

// BufferObject is a buffer and the memory bound to it. The caller owns both
// and releases them with Resources.DestroyBuffer.
type BufferObject struct {
	Buffer Buffer
	Memory DeviceMemory
	Size   uint64
	Props  MemoryPropertyFlags
}

// TextureObject is a sampled image, its memory and a color view.
type TextureObject struct {
	Image  Image
	Memory DeviceMemory
	View   ImageView
	Format Format
	Extent Extent3D
}

// Resources creates buffers, images and textures on one device.
type Resources struct {
	drv Driver
	dev *DeviceContext
	log *slog.Logger
}

func newResources(drv Driver, dev *DeviceContext, log *slog.Logger) *Resources {
	return &Resources{drv: drv, dev: dev, log: log}
}

// CreateBuffer makes a buffer of size bytes backed by memory with props. When
// props is host visible and initial is not nil, the first size bytes of
// initial are copied in.
func (r *Resources) CreateBuffer(size uint64, usage BufferUsageFlags, props MemoryPropertyFlags, initial []byte) (BufferObject, error) {
	if size == 0 {
		return BufferObject{}, resource(errors.New("zero size"), "create buffer")
	}
	if initial != nil && uint64(len(initial)) < size {
		return BufferObject{}, resource(
			errors.Newf("initial data has %d bytes, buffer needs %d", len(initial), size),
			"create buffer")
	}
	dev := r.dev.Device
	buf, err := r.drv.CreateBuffer(dev, BufferInfo{Size: size, Usage: usage})
	if err != nil {
		return BufferObject{}, resource(err, "create buffer")
	}
	mem, err := r.allocate(r.drv.BufferMemoryRequirements(dev, buf), props)
	if err != nil {
		r.drv.DestroyBuffer(dev, buf)
		return BufferObject{}, resource(err, "allocate buffer memory")
	}
	if err := r.drv.BindBufferMemory(dev, buf, mem); err != nil {
		r.drv.DestroyBuffer(dev, buf)
		r.drv.FreeMemory(dev, mem)
		return BufferObject{}, resource(err, "bind buffer memory")
	}
	obj := BufferObject{Buffer: buf, Memory: mem, Size: size, Props: props}

	if initial != nil {
		if !props.Has(MemoryPropertyHostVisible) {
			r.log.Warn("initial data ignored for device-local buffer",
				slog.String("size", units.BytesSize(float64(size))))
		} else if err := r.WriteBuffer(obj, 0, initial[:size]); err != nil {
			r.DestroyBuffer(obj)
			return BufferObject{}, err
		}
	}
	r.log.Debug("buffer created",
		slog.Uint64("handle", uint64(buf)),
		slog.String("size", units.BytesSize(float64(size))),
		slog.Uint64("usage", uint64(usage)))
	return obj, nil
}

// WriteBuffer copies data into a host-visible buffer at offset.
func (r *Resources) WriteBuffer(buf BufferObject, offset uint64, data []byte) error {
	if !buf.Props.Has(MemoryPropertyHostVisible) {
		return resource(errors.New("buffer memory is not host visible"), "write buffer")
	}
	if offset+uint64(len(data)) > buf.Size {
		return resource(
			errors.Newf("write of %d bytes at %d overflows %d byte buffer", len(data), offset, buf.Size),
			"write buffer")
	}
	if len(data) == 0 {
		return nil
	}
	dst, err := r.drv.MapMemory(r.dev.Device, buf.Memory, offset, uint64(len(data)))
	if err != nil {
		return resource(err, "map buffer memory")
	}
	copy(dst, data)
	r.drv.UnmapMemory(r.dev.Device, buf.Memory)
	return nil
}

// ReadBuffer returns a copy of the first n bytes of a host-visible buffer.
func (r *Resources) ReadBuffer(buf BufferObject, n uint64) ([]byte, error) {
	if !buf.Props.Has(MemoryPropertyHostVisible) {
		return nil, resource(errors.New("buffer memory is not host visible"), "read buffer")
	}
	if n > buf.Size {
		n = buf.Size
	}
	src, err := r.drv.MapMemory(r.dev.Device, buf.Memory, 0, n)
	if err != nil {
		return nil, resource(err, "map buffer memory")
	}
	out := make([]byte, n)
	copy(out, src)
	r.drv.UnmapMemory(r.dev.Device, buf.Memory)
	return out, nil
}

func (r *Resources) DestroyBuffer(buf BufferObject) {
	if buf.Buffer != 0 {
		r.drv.DestroyBuffer(r.dev.Device, buf.Buffer)
	}
	if buf.Memory != 0 {
		r.drv.FreeMemory(r.dev.Device, buf.Memory)
	}
}

// CreateImage makes a 2D image with a single mip level and layer, bound to
// memory with props.
func (r *Resources) CreateImage(info ImageInfo, props MemoryPropertyFlags) (Image, DeviceMemory, error) {
	dev := r.dev.Device
	img, err := r.drv.CreateImage(dev, info)
	if err != nil {
		return 0, 0, resource(err, "create image")
	}
	mem, err := r.allocate(r.drv.ImageMemoryRequirements(dev, img), props)
	if err != nil {
		r.drv.DestroyImage(dev, img)
		return 0, 0, resource(err, "allocate image memory")
	}
	if err := r.drv.BindImageMemory(dev, img, mem); err != nil {
		r.drv.DestroyImage(dev, img)
		r.drv.FreeMemory(dev, mem)
		return 0, 0, resource(err, "bind image memory")
	}
	return img, mem, nil
}

func (r *Resources) CreateImageView(img Image, format Format, aspect ImageAspectFlags) (ImageView, error) {
	view, err := r.drv.CreateImageView(r.dev.Device, ImageViewInfo{Image: img, Format: format, Aspect: aspect})
	if err != nil {
		return 0, resource(err, "create image view")
	}
	return view, nil
}

func (r *Resources) allocate(req MemoryRequirements, props MemoryPropertyFlags) (DeviceMemory, error) {
	index, err := r.dev.Memory.Resolve(req.MemoryTypeBits, props)
	if err != nil {
		return 0, err
	}
	mem, err := r.drv.AllocateMemory(r.dev.Device, req.Size, index)
	if err != nil {
		return 0, err
	}
	r.log.Debug("memory allocated",
		slog.String("size", units.BytesSize(float64(req.Size))),
		slog.Int("type", int(index)))
	return mem, nil
}

// CreateTextureObject uploads tightly packed RGBA8 pixels into a device-local
// sampled image. It blocks until the device is idle before returning.
func (r *Resources) CreateTextureObject(pixels []byte, width, height uint32) (TextureObject, error) {
	if width == 0 || height == 0 {
		return TextureObject{}, resourcef(errors.New("empty image"), "create texture %dx%d", width, height)
	}
	size := uint64(width) * uint64(height) * 4
	if uint64(len(pixels)) < size {
		return TextureObject{}, resourcef(
			errors.Newf("have %d bytes, need %d", len(pixels), size),
			"create texture %dx%d", width, height)
	}
	start := hrtime.Now()
	format := FormatR8G8B8A8Unorm
	extent := Extent3D{Width: width, Height: height, Depth: 1}

	img, mem, err := r.CreateImage(ImageInfo{
		Format: format,
		Extent: extent,
		Usage:  ImageUsageTransferDst | ImageUsageSampled,
	}, MemoryPropertyDeviceLocal)
	if err != nil {
		return TextureObject{}, err
	}
	destroyImage := func() {
		r.drv.DestroyImage(r.dev.Device, img)
		r.drv.FreeMemory(r.dev.Device, mem)
	}

	staging, err := r.CreateBuffer(size, BufferUsageTransferSrc,
		MemoryPropertyHostVisible|MemoryPropertyHostCoherent, pixels)
	if err != nil {
		destroyImage()
		return TextureObject{}, errors.Wrap(err, "create staging buffer")
	}
	defer r.DestroyBuffer(staging)

	err = r.submitOneShot(func(cmd CommandBuffer) error {
		if err := SetImageMemoryBarrier(r.drv, cmd, img, format,
			ImageLayoutUndefined, ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		r.drv.CmdCopyBufferToImage(cmd, staging.Buffer, img, extent)
		return SetImageMemoryBarrier(r.drv, cmd, img, format,
			ImageLayoutTransferDstOptimal, ImageLayoutShaderReadOnlyOptimal)
	})
	if err != nil {
		destroyImage()
		return TextureObject{}, errors.Wrap(err, "upload texture")
	}

	view, err := r.CreateImageView(img, format, ImageAspectColor)
	if err != nil {
		destroyImage()
		return TextureObject{}, err
	}
	r.log.Debug("texture uploaded",
		slog.Int("width", int(width)),
		slog.Int("height", int(height)),
		slog.String("staging", units.BytesSize(float64(size))),
		slog.Duration("took", hrtime.Since(start)))
	return TextureObject{Image: img, Memory: mem, View: view, Format: format, Extent: extent}, nil
}

// submitOneShot records fn into a temporary command buffer, submits it and
// waits for the whole device to go idle. No other GPU work overlaps it.
func (r *Resources) submitOneShot(fn func(cmd CommandBuffer) error) error {
	dev := r.dev.Device
	pool := r.dev.CommandPool
	cmds, err := r.drv.AllocateCommandBuffers(dev, pool, 1)
	if err != nil {
		return resource(err, "allocate command buffer")
	}
	defer r.drv.FreeCommandBuffers(dev, pool, cmds)
	cmd := cmds[0]

	if err := r.drv.BeginCommandBuffer(cmd, true); err != nil {
		return resource(err, "begin command buffer")
	}
	if err := fn(cmd); err != nil {
		// the buffer is freed unsubmitted
		_ = r.drv.EndCommandBuffer(cmd)
		return err
	}
	if err := r.drv.EndCommandBuffer(cmd); err != nil {
		return resource(err, "end command buffer")
	}
	if err := r.drv.QueueSubmit(r.dev.Queue, SubmitInfo{CommandBuffers: cmds}, 0); err != nil {
		return resource(err, "queue submit")
	}
	if err := r.drv.DeviceWaitIdle(dev); err != nil {
		return resource(err, "device wait idle")
	}
	return nil
}

func (r *Resources) DestroyTexture(tex TextureObject) {
	dev := r.dev.Device
	if tex.View != 0 {
		r.drv.DestroyImageView(dev, tex.View)
	}
	if tex.Image != 0 {
		r.drv.DestroyImage(dev, tex.Image)
	}
	if tex.Memory != 0 {
		r.drv.FreeMemory(dev, tex.Memory)
	}
}
