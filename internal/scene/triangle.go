package scene

import (
	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"

	"github.com/RewHiro/vulkan/internal/render"
	"github.com/RewHiro/vulkan/internal/vkdriver"
)

// Triangle draws one vertex-colored triangle.
type Triangle struct {
	drv  *vkdriver.Driver
	opts Options

	res      *render.Resources
	device   vulkan.Device
	vertices render.BufferObject
	indices  render.BufferObject
	pipeline pipeline
}

func NewTriangle(drv *vkdriver.Driver, opts Options) *Triangle {
	return &Triangle{drv: drv, opts: opts}
}

func (t *Triangle) Prepare(ctx *render.Context) error {
	t.res = ctx.Resources
	t.device = t.drv.VKDevice(ctx.Device.Device)
	hostVisible := render.MemoryPropertyHostVisible | render.MemoryPropertyHostCoherent

	var err error
	vertexData := asBytes(triangleVertices)
	if t.vertices, err = t.res.CreateBuffer(uint64(len(vertexData)), render.BufferUsageVertex, hostVisible, vertexData); err != nil {
		return errors.Wrap(err, "triangle vertex buffer")
	}
	indexData := asBytes(triangleIndices)
	if t.indices, err = t.res.CreateBuffer(uint64(len(indexData)), render.BufferUsageIndex, hostVisible, indexData); err != nil {
		return errors.Wrap(err, "triangle index buffer")
	}
	t.pipeline, err = createPipeline(t.drv, ctx, pipelineDesc{
		vert:       t.opts.shader("triangle.vert.spv"),
		frag:       t.opts.shader("triangle.frag.spv"),
		stride:     stride[colorVertex](),
		attributes: colorVertexAttributes,
		depthTest:  true,
		cullMode:   vulkan.CullModeNone,
	})
	return err
}

func (t *Triangle) MakeCommand(cmd render.CommandBuffer, imageIndex uint32) error {
	cb := t.drv.VKCommandBuffer(cmd)
	vulkan.CmdBindPipeline(cb, vulkan.PipelineBindPointGraphics, t.pipeline.handle)
	vulkan.CmdBindVertexBuffers(cb, 0, 1, []vulkan.Buffer{t.drv.VKBuffer(t.vertices.Buffer)}, []vulkan.DeviceSize{0})
	vulkan.CmdBindIndexBuffer(cb, t.drv.VKBuffer(t.indices.Buffer), 0, vulkan.IndexTypeUint32)
	vulkan.CmdDrawIndexed(cb, uint32(len(triangleIndices)), 1, 0, 0, 0)
	return nil
}

func (t *Triangle) Cleanup(ctx *render.Context) {
	t.pipeline.destroy(t.device)
	if t.res != nil {
		t.res.DestroyBuffer(t.indices)
		t.res.DestroyBuffer(t.vertices)
	}
}
