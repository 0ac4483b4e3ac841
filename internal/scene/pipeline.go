package scene

import (
	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"

	"github.com/RewHiro/vulkan/internal/render"
	"github.com/RewHiro/vulkan/internal/vkdriver"
)

type pipelineDesc struct {
	vert, frag string
	stride     uint32
	attributes []vulkan.VertexInputAttributeDescription
	setLayouts []vulkan.DescriptorSetLayout
	depthTest  bool
	cullMode   vulkan.CullModeFlagBits
}

// pipeline is a graphics pipeline with its layout.
type pipeline struct {
	layout vulkan.PipelineLayout
	handle vulkan.Pipeline
}

// createPipeline builds a triangle-list pipeline for the engine's render pass
// with a fixed viewport covering the whole swapchain extent. Compiled state
// goes through the device's persisted pipeline cache.
func createPipeline(drv *vkdriver.Driver, ctx *render.Context, desc pipelineDesc) (pipeline, error) {
	device := drv.VKDevice(ctx.Device.Device)
	vertModule, fragModule, err := loadShaderModules(drv, ctx, desc.vert, desc.frag)
	if err != nil {
		return pipeline{}, err
	}
	defer vulkan.DestroyShaderModule(device, vertModule, nil)
	defer vulkan.DestroyShaderModule(device, fragModule, nil)

	mainName := "main\x00"
	shaderStages := []vulkan.PipelineShaderStageCreateInfo{
		{
			SType:  vulkan.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vulkan.ShaderStageVertexBit,
			Module: vertModule,
			PName:  mainName,
		},
		{
			SType:  vulkan.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vulkan.ShaderStageFragmentBit,
			Module: fragModule,
			PName:  mainName,
		},
	}

	bindingDescription := vulkan.VertexInputBindingDescription{
		Binding:   0,
		Stride:    desc.stride,
		InputRate: vulkan.VertexInputRateVertex,
	}
	vertexInput := vulkan.PipelineVertexInputStateCreateInfo{
		SType:                           vulkan.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vulkan.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(desc.attributes)),
		PVertexAttributeDescriptions:    desc.attributes,
	}

	inputAssembly := vulkan.PipelineInputAssemblyStateCreateInfo{
		SType:                  vulkan.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vulkan.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vulkan.False,
	}

	extent := vulkan.Extent2D{Width: ctx.Extent.Width, Height: ctx.Extent.Height}
	viewport := vulkan.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vulkan.Rect2D{
		Offset: vulkan.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	viewportState := vulkan.PipelineViewportStateCreateInfo{
		SType:         vulkan.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vulkan.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vulkan.Rect2D{scissor},
	}

	rasterizer := vulkan.PipelineRasterizationStateCreateInfo{
		SType:                   vulkan.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vulkan.False,
		RasterizerDiscardEnable: vulkan.False,
		PolygonMode:             vulkan.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vulkan.CullModeFlags(desc.cullMode),
		FrontFace:               vulkan.FrontFaceCounterClockwise,
		DepthBiasEnable:         vulkan.False,
	}

	multisampling := vulkan.PipelineMultisampleStateCreateInfo{
		SType:                vulkan.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vulkan.SampleCount1Bit,
	}

	depthStencil := vulkan.PipelineDepthStencilStateCreateInfo{
		SType:                 vulkan.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vulkan.False,
		DepthWriteEnable:      vulkan.False,
		DepthCompareOp:        vulkan.CompareOpAlways,
		DepthBoundsTestEnable: vulkan.False,
		StencilTestEnable:     vulkan.False,
	}
	if desc.depthTest {
		depthStencil.DepthTestEnable = vulkan.True
		depthStencil.DepthWriteEnable = vulkan.True
		depthStencil.DepthCompareOp = vulkan.CompareOpLess
	}

	colorBlendAttachment := vulkan.PipelineColorBlendAttachmentState{
		ColorWriteMask: vulkan.ColorComponentFlags(vulkan.ColorComponentRBit | vulkan.ColorComponentGBit | vulkan.ColorComponentBBit | vulkan.ColorComponentABit),
		BlendEnable:    vulkan.False,
	}
	colorBlending := vulkan.PipelineColorBlendStateCreateInfo{
		SType:           vulkan.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vulkan.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	layoutInfo := vulkan.PipelineLayoutCreateInfo{
		SType:          vulkan.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(desc.setLayouts)),
		PSetLayouts:    desc.setLayouts,
	}
	layoutOut, freeLayout, err := cHandle[vulkan.PipelineLayout]()
	if err != nil {
		return pipeline{}, err
	}
	defer freeLayout()
	if res := vulkan.CreatePipelineLayout(device, &layoutInfo, nil, layoutOut); res != vulkan.Success {
		return pipeline{}, errors.Wrap(vulkan.Error(res), "create pipeline layout")
	}
	p := pipeline{layout: *layoutOut}

	pipelineInfo := vulkan.GraphicsPipelineCreateInfo{
		SType:               vulkan.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(shaderStages)),
		PStages:             shaderStages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlending,
		Layout:              p.layout,
		RenderPass:          drv.VKRenderPass(ctx.RenderPass),
		Subpass:             0,
	}
	pipelines, freePipelines, err := cHandles[vulkan.Pipeline](1)
	if err != nil {
		vulkan.DestroyPipelineLayout(device, p.layout, nil)
		return pipeline{}, err
	}
	defer freePipelines()
	cache, err := openPipelineCache(device, ctx)
	if err != nil {
		vulkan.DestroyPipelineLayout(device, p.layout, nil)
		return pipeline{}, err
	}
	defer closePipelineCache(device, ctx, cache)
	if res := vulkan.CreateGraphicsPipelines(device, cache, 1, []vulkan.GraphicsPipelineCreateInfo{pipelineInfo}, nil, pipelines); res != vulkan.Success {
		vulkan.DestroyPipelineLayout(device, p.layout, nil)
		return pipeline{}, errors.Wrap(vulkan.Error(res), "create graphics pipeline")
	}
	p.handle = pipelines[0]
	return p, nil
}

func (p *pipeline) destroy(device vulkan.Device) {
	if p.handle != vulkan.Pipeline(vulkan.NullHandle) {
		vulkan.DestroyPipeline(device, p.handle, nil)
		p.handle = vulkan.Pipeline(vulkan.NullHandle)
	}
	if p.layout != vulkan.PipelineLayout(vulkan.NullHandle) {
		vulkan.DestroyPipelineLayout(device, p.layout, nil)
		p.layout = vulkan.PipelineLayout(vulkan.NullHandle)
	}
}
