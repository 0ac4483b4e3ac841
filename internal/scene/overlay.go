package scene

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	mgl32 "github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/vulkan-go/vulkan"

	"github.com/RewHiro/vulkan/internal/render"
	"github.com/RewHiro/vulkan/internal/vkdriver"
)

// Room for 32 glyphs with every cell lit.
const maxOverlayVertices = 32 * 15 * 6

// overlay draws an FPS counter in the top left corner. Each swapchain image
// has its own vertex buffer, rewritten only while that image's frame slot is
// idle.
type overlay struct {
	drv    *vkdriver.Driver
	res    *render.Resources
	extent render.Extent2D
	stats  func() render.FrameStats

	pipeline pipeline
	buffers  []render.BufferObject
	counts   []uint32
	fps      fpsCounter
}

func newOverlay(drv *vkdriver.Driver, ctx *render.Context, opts Options) (*overlay, error) {
	o := &overlay{
		drv:    drv,
		res:    ctx.Resources,
		extent: ctx.Extent,
		stats:  ctx.Stats,
		counts: make([]uint32, ctx.ImageCount),
	}
	size := uint64(maxOverlayVertices) * uint64(stride[overlayVertex]())
	for i := 0; i < ctx.ImageCount; i++ {
		buf, err := o.res.CreateBuffer(size, render.BufferUsageVertex,
			render.MemoryPropertyHostVisible|render.MemoryPropertyHostCoherent, nil)
		if err != nil {
			o.destroy(drv.VKDevice(ctx.Device.Device))
			return nil, errors.Wrap(err, "overlay vertex buffer")
		}
		o.buffers = append(o.buffers, buf)
	}
	var err error
	o.pipeline, err = createPipeline(drv, ctx, pipelineDesc{
		vert:       opts.shader("overlay.vert.spv"),
		frag:       opts.shader("overlay.frag.spv"),
		stride:     stride[overlayVertex](),
		attributes: overlayVertexAttributes,
		depthTest:  false,
		cullMode:   vulkan.CullModeNone,
	})
	if err != nil {
		o.destroy(drv.VKDevice(ctx.Device.Device))
		return nil, err
	}
	return o, nil
}

// update rewrites the vertices of imageIndex for the current frame rate.
func (o *overlay) update(imageIndex uint32) error {
	var frames uint64
	if o.stats != nil {
		frames = o.stats().Frames
	}
	fps := o.fps.update(hrtime.Now(), frames)
	verts := buildOverlayVertices(fmt.Sprintf("FPS: %.1f", fps), o.extent)
	o.counts[imageIndex] = uint32(len(verts))
	if len(verts) == 0 {
		return nil
	}
	return o.res.WriteBuffer(o.buffers[imageIndex], 0, asBytes(verts))
}

func (o *overlay) record(cb vulkan.CommandBuffer, imageIndex uint32) {
	count := o.counts[imageIndex]
	if count == 0 {
		return
	}
	vulkan.CmdBindPipeline(cb, vulkan.PipelineBindPointGraphics, o.pipeline.handle)
	vulkan.CmdBindVertexBuffers(cb, 0, 1, []vulkan.Buffer{o.drv.VKBuffer(o.buffers[imageIndex].Buffer)}, []vulkan.DeviceSize{0})
	vulkan.CmdDraw(cb, count, 1, 0, 0)
}

func (o *overlay) destroy(device vulkan.Device) {
	o.pipeline.destroy(device)
	for _, b := range o.buffers {
		o.res.DestroyBuffer(b)
	}
	o.buffers = nil
}

// fpsCounter averages the frame rate over windows of at least one second.
type fpsCounter struct {
	start  time.Duration
	frames uint64
	value  float64
}

// update takes the current time and the total number of frames rendered and
// returns the rate of the last complete window.
func (c *fpsCounter) update(now time.Duration, frames uint64) float64 {
	if c.start == 0 {
		c.start, c.frames = now, frames
		return c.value
	}
	if elapsed := now - c.start; elapsed >= time.Second {
		c.value = float64(frames-c.frames) / elapsed.Seconds()
		c.start, c.frames = now, frames
	}
	return c.value
}

// buildOverlayVertices converts text into quads using a tiny bitmap font.
func buildOverlayVertices(text string, extent render.Extent2D) []overlayVertex {
	if extent.Width == 0 || extent.Height == 0 {
		return nil
	}
	const (
		cellW  = float32(8)
		cellH  = float32(12)
		margin = float32(8)
		space  = float32(4)
	)
	color := mgl32.Vec3{1, 1, 1}
	var verts []overlayVertex
	x, y := margin, margin
	for _, ch := range text {
		pattern := glyphPattern(ch)
		for row := range pattern {
			for col := 0; col < len(pattern[row]); col++ {
				if pattern[row][col] != '1' {
					continue
				}
				px := x + float32(col)*cellW
				py := y + float32(row)*cellH
				verts = append(verts, quadToVertices(px, py, cellW, cellH, color, extent)...)
			}
		}
		x += float32(len(pattern[0]))*cellW + space
		if len(verts) >= maxOverlayVertices {
			return verts[:maxOverlayVertices]
		}
	}
	return verts
}

// quadToVertices makes two triangles for a pixel-space quad mapped to NDC.
func quadToVertices(x, y, w, h float32, color mgl32.Vec3, extent render.Extent2D) []overlayVertex {
	toNDC := func(px, py float32) mgl32.Vec2 {
		return mgl32.Vec2{
			(px/float32(extent.Width))*2 - 1,
			(py/float32(extent.Height))*2 - 1,
		}
	}
	p0 := toNDC(x, y)
	p1 := toNDC(x+w, y)
	p2 := toNDC(x+w, y+h)
	p3 := toNDC(x, y+h)
	return []overlayVertex{
		{pos: p0, color: color},
		{pos: p1, color: color},
		{pos: p2, color: color},
		{pos: p2, color: color},
		{pos: p3, color: color},
		{pos: p0, color: color},
	}
}

var font = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	'F': {"111", "100", "110", "100", "100"},
	'P': {"111", "101", "111", "100", "100"},
	'S': {"111", "100", "111", "001", "111"},
	':': {"000", "010", "000", "010", "000"},
	'.': {"000", "000", "000", "000", "010"},
	' ': {"000", "000", "000", "000", "000"},
}

// glyphPattern returns the 3x5 bitmap rows for ch. Unknown runes are blank.
func glyphPattern(ch rune) []string {
	if p, ok := font[ch]; ok {
		return p
	}
	return font[' ']
}
