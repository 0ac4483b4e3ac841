package scene

import (
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	mgl32 "github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/vulkan-go/vulkan"

	"github.com/RewHiro/vulkan/internal/render"
	"github.com/RewHiro/vulkan/internal/vkdriver"
)

type uniformBufferObject struct {
	World mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

// Cube draws a textured cube spinning about the Z axis. Every swapchain
// image has its own uniform buffer and descriptor set.
type Cube struct {
	drv  *vkdriver.Driver
	opts Options

	res     *render.Resources
	device  vulkan.Device
	extent  render.Extent2D
	started time.Duration

	model          render.Model
	uniforms       []render.BufferObject
	sampler        vulkan.Sampler
	setLayout      vulkan.DescriptorSetLayout
	descriptorPool vulkan.DescriptorPool
	descriptorSets []vulkan.DescriptorSet
	pipeline       pipeline
	overlay        *overlay
}

func NewCube(drv *vkdriver.Driver, opts Options) *Cube {
	return &Cube{drv: drv, opts: opts}
}

func (c *Cube) Prepare(ctx *render.Context) error {
	c.res = ctx.Resources
	c.device = c.drv.VKDevice(ctx.Device.Device)
	c.extent = ctx.Extent
	c.started = hrtime.Now()

	steps := []struct {
		name string
		fn   func(*render.Context) error
	}{
		{"geometry", c.createGeometry},
		{"uniform buffers", c.createUniformBuffers},
		{"texture", c.createTexture},
		{"descriptor set layout", c.createDescriptorSetLayout},
		{"descriptor pool", c.createDescriptorPool},
		{"descriptor sets", c.createDescriptorSets},
		{"pipeline", c.createPipeline},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return errors.Wrapf(err, "cube %s", step.name)
		}
	}
	if c.opts.Overlay {
		o, err := newOverlay(c.drv, ctx, c.opts)
		if err != nil {
			return errors.Wrap(err, "cube overlay")
		}
		c.overlay = o
	}
	return nil
}

func (c *Cube) createGeometry(ctx *render.Context) error {
	hostVisible := render.MemoryPropertyHostVisible | render.MemoryPropertyHostCoherent
	vertexData := asBytes(cubeVertices)
	vertices, err := c.res.CreateBuffer(uint64(len(vertexData)), render.BufferUsageVertex, hostVisible, vertexData)
	if err != nil {
		return err
	}
	c.model.Meshes = append(c.model.Meshes, render.Mesh{
		Vertices:    vertices,
		VertexCount: uint32(len(cubeVertices)),
	})
	indexData := asBytes(cubeIndices)
	indices, err := c.res.CreateBuffer(uint64(len(indexData)), render.BufferUsageIndex, hostVisible, indexData)
	if err != nil {
		return err
	}
	c.model.Meshes[0].Indices = indices
	c.model.Meshes[0].IndexCount = uint32(len(cubeIndices))
	return nil
}

func (c *Cube) createUniformBuffers(ctx *render.Context) error {
	size := uint64(unsafe.Sizeof(uniformBufferObject{}))
	for i := 0; i < ctx.ImageCount; i++ {
		buf, err := c.res.CreateBuffer(size, render.BufferUsageUniform,
			render.MemoryPropertyHostVisible|render.MemoryPropertyHostCoherent, nil)
		if err != nil {
			return err
		}
		c.uniforms = append(c.uniforms, buf)
	}
	return nil
}

func (c *Cube) createTexture(ctx *render.Context) error {
	tex, err := loadTexture(ctx, c.opts.Texture)
	if err != nil {
		return err
	}
	c.model.Materials = append(c.model.Materials, render.Material{Texture: tex, AlphaMode: render.AlphaOpaque})
	c.sampler, err = createTextureSampler(c.device)
	return err
}

func (c *Cube) createDescriptorSetLayout(ctx *render.Context) error {
	bindings := []vulkan.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vulkan.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vulkan.ShaderStageFlags(vulkan.ShaderStageVertexBit),
		},
		{
			Binding:         1,
			DescriptorType:  vulkan.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vulkan.ShaderStageFlags(vulkan.ShaderStageFragmentBit),
		},
	}
	layoutInfo := vulkan.DescriptorSetLayoutCreateInfo{
		SType:        vulkan.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	if res := vulkan.CreateDescriptorSetLayout(c.device, &layoutInfo, nil, &c.setLayout); res != vulkan.Success {
		return errors.Wrap(vulkan.Error(res), "create descriptor set layout")
	}
	return nil
}

func (c *Cube) createDescriptorPool(ctx *render.Context) error {
	count := uint32(ctx.ImageCount)
	poolSizes := []vulkan.DescriptorPoolSize{
		{Type: vulkan.DescriptorTypeUniformBuffer, DescriptorCount: count},
		{Type: vulkan.DescriptorTypeCombinedImageSampler, DescriptorCount: count},
	}
	poolInfo := vulkan.DescriptorPoolCreateInfo{
		SType:         vulkan.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       count,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	if res := vulkan.CreateDescriptorPool(c.device, &poolInfo, nil, &c.descriptorPool); res != vulkan.Success {
		return errors.Wrap(vulkan.Error(res), "create descriptor pool")
	}
	return nil
}

func (c *Cube) createDescriptorSets(ctx *render.Context) error {
	layouts := make([]vulkan.DescriptorSetLayout, ctx.ImageCount)
	for i := range layouts {
		layouts[i] = c.setLayout
	}
	allocInfo := vulkan.DescriptorSetAllocateInfo{
		SType:              vulkan.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     c.descriptorPool,
		DescriptorSetCount: uint32(len(layouts)),
		PSetLayouts:        layouts,
	}
	sets := make([]vulkan.DescriptorSet, len(layouts))
	if res := vulkan.AllocateDescriptorSets(c.device, &allocInfo, &sets[0]); res != vulkan.Success {
		return errors.Wrap(vulkan.Error(res), "allocate descriptor sets")
	}
	c.descriptorSets = sets

	tex := c.model.Materials[0].Texture
	for i, set := range sets {
		bufferInfo := vulkan.DescriptorBufferInfo{
			Buffer: c.drv.VKBuffer(c.uniforms[i].Buffer),
			Offset: 0,
			Range:  vulkan.DeviceSize(vulkan.WholeSize),
		}
		imageInfo := vulkan.DescriptorImageInfo{
			Sampler:     c.sampler,
			ImageView:   c.drv.VKImageView(tex.View),
			ImageLayout: vulkan.ImageLayoutShaderReadOnlyOptimal,
		}
		writes := []vulkan.WriteDescriptorSet{
			{
				SType:           vulkan.StructureTypeWriteDescriptorSet,
				DstSet:          set,
				DstBinding:      0,
				DescriptorType:  vulkan.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
				PBufferInfo:     []vulkan.DescriptorBufferInfo{bufferInfo},
			},
			{
				SType:           vulkan.StructureTypeWriteDescriptorSet,
				DstSet:          set,
				DstBinding:      1,
				DescriptorType:  vulkan.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,
				PImageInfo:      []vulkan.DescriptorImageInfo{imageInfo},
			},
		}
		vulkan.UpdateDescriptorSets(c.device, uint32(len(writes)), writes, 0, nil)
	}
	return nil
}

func (c *Cube) createPipeline(ctx *render.Context) error {
	var err error
	c.pipeline, err = createPipeline(c.drv, ctx, pipelineDesc{
		vert:       c.opts.shader("cube.vert.spv"),
		frag:       c.opts.shader("cube.frag.spv"),
		stride:     stride[cubeVertex](),
		attributes: cubeVertexAttributes,
		setLayouts: []vulkan.DescriptorSetLayout{c.setLayout},
		depthTest:  true,
		cullMode:   vulkan.CullModeNone,
	})
	return err
}

// cubeTransforms spins the cube 45 degrees per second about Z.
func cubeTransforms(elapsed time.Duration, extent render.Extent2D) uniformBufferObject {
	angle := float32(elapsed.Seconds()) * mgl32.DegToRad(45)
	proj := mgl32.Perspective(mgl32.DegToRad(45), float32(extent.Width)/float32(extent.Height), 0.1, 10.0)
	proj[5] *= -1 // Vulkan clip
	return uniformBufferObject{
		World: mgl32.HomogRotate3D(angle, mgl32.Vec3{0, 0, 1}),
		View: mgl32.LookAtV(
			mgl32.Vec3{3, 3, 3},
			mgl32.Vec3{0, 0, 0},
			mgl32.Vec3{0, 0, 1},
		),
		Proj: proj,
	}
}

func (c *Cube) MakeCommand(cmd render.CommandBuffer, imageIndex uint32) error {
	ubo := cubeTransforms(hrtime.Since(c.started), c.extent)
	if err := c.res.WriteBuffer(c.uniforms[imageIndex], 0, asBytes([]uniformBufferObject{ubo})); err != nil {
		return errors.Wrap(err, "update uniform buffer")
	}
	if c.overlay != nil {
		if err := c.overlay.update(imageIndex); err != nil {
			return errors.Wrap(err, "update overlay")
		}
	}

	mesh := c.model.Meshes[0]
	cb := c.drv.VKCommandBuffer(cmd)
	vulkan.CmdBindPipeline(cb, vulkan.PipelineBindPointGraphics, c.pipeline.handle)
	vulkan.CmdBindVertexBuffers(cb, 0, 1, []vulkan.Buffer{c.drv.VKBuffer(mesh.Vertices.Buffer)}, []vulkan.DeviceSize{0})
	vulkan.CmdBindIndexBuffer(cb, c.drv.VKBuffer(mesh.Indices.Buffer), 0, vulkan.IndexTypeUint32)
	vulkan.CmdBindDescriptorSets(cb, vulkan.PipelineBindPointGraphics, c.pipeline.layout, 0, 1,
		[]vulkan.DescriptorSet{c.descriptorSets[imageIndex]}, 0, nil)
	vulkan.CmdDrawIndexed(cb, mesh.IndexCount, 1, 0, 0, 0)

	if c.overlay != nil {
		c.overlay.record(cb, imageIndex)
	}
	return nil
}

func (c *Cube) Cleanup(ctx *render.Context) {
	if c.overlay != nil {
		c.overlay.destroy(c.device)
		c.overlay = nil
	}
	c.pipeline.destroy(c.device)
	if c.descriptorPool != vulkan.DescriptorPool(vulkan.NullHandle) {
		vulkan.DestroyDescriptorPool(c.device, c.descriptorPool, nil)
		c.descriptorPool = vulkan.DescriptorPool(vulkan.NullHandle)
	}
	c.descriptorSets = nil
	if c.setLayout != vulkan.DescriptorSetLayout(vulkan.NullHandle) {
		vulkan.DestroyDescriptorSetLayout(c.device, c.setLayout, nil)
		c.setLayout = vulkan.DescriptorSetLayout(vulkan.NullHandle)
	}
	if c.sampler != vulkan.Sampler(vulkan.NullHandle) {
		vulkan.DestroySampler(c.device, c.sampler, nil)
		c.sampler = vulkan.Sampler(vulkan.NullHandle)
	}
	if c.res == nil {
		return
	}
	for _, u := range c.uniforms {
		c.res.DestroyBuffer(u)
	}
	c.uniforms = nil
	c.model.Destroy(c.res)
	c.model = render.Model{}
}
