package render

import "github.com/cockroachdb/errors"

type layoutPair struct {
	from, to ImageLayout
}

type transitionMasks struct {
	srcAccess AccessFlags
	dstAccess AccessFlags
	srcStage  PipelineStageFlags
	dstStage  PipelineStageFlags
}

var layoutTransitions = map[layoutPair]transitionMasks{
	{ImageLayoutUndefined, ImageLayoutTransferDstOptimal}: {
		srcAccess: 0,
		dstAccess: AccessTransferWrite,
		srcStage:  PipelineStageTopOfPipe,
		dstStage:  PipelineStageTransfer,
	},
	{ImageLayoutTransferDstOptimal, ImageLayoutShaderReadOnlyOptimal}: {
		srcAccess: AccessTransferWrite,
		dstAccess: AccessShaderRead,
		srcStage:  PipelineStageTransfer,
		dstStage:  PipelineStageFragmentShader,
	},
	{ImageLayoutUndefined, ImageLayoutDepthStencilAttachmentOptimal}: {
		srcAccess: 0,
		dstAccess: AccessDepthStencilAttachmentRead | AccessDepthStencilAttachmentWrite,
		srcStage:  PipelineStageTopOfPipe,
		dstStage:  PipelineStageEarlyFragmentTests,
	},
	{ImageLayoutUndefined, ImageLayoutColorAttachmentOptimal}: {
		srcAccess: 0,
		dstAccess: AccessColorAttachmentRead | AccessColorAttachmentWrite,
		srcStage:  PipelineStageTopOfPipe,
		dstStage:  PipelineStageColorAttachmentOutput,
	},
	{ImageLayoutTransferDstOptimal, ImageLayoutTransferSrcOptimal}: {
		srcAccess: AccessTransferWrite,
		dstAccess: AccessTransferRead,
		srcStage:  PipelineStageTransfer,
		dstStage:  PipelineStageTransfer,
	},
	{ImageLayoutShaderReadOnlyOptimal, ImageLayoutTransferDstOptimal}: {
		srcAccess: AccessShaderRead,
		dstAccess: AccessTransferWrite,
		srcStage:  PipelineStageFragmentShader,
		dstStage:  PipelineStageTransfer,
	},
}

// LayoutBarrier builds the barrier moving img from oldLayout to newLayout.
// Pairs outside the supported set return ErrUnsupportedTransition.
func LayoutBarrier(img Image, format Format, oldLayout, newLayout ImageLayout) (ImageBarrier, error) {
	masks, ok := layoutTransitions[layoutPair{oldLayout, newLayout}]
	if !ok {
		return ImageBarrier{}, errors.Mark(
			errors.Wrapf(ErrUnsupportedTransition, "%s -> %s", oldLayout, newLayout),
			ErrResourceCreation)
	}
	return ImageBarrier{
		Image:     img,
		Aspect:    AspectFor(format),
		OldLayout: oldLayout,
		NewLayout: newLayout,
		SrcAccess: masks.srcAccess,
		DstAccess: masks.dstAccess,
		SrcStage:  masks.srcStage,
		DstStage:  masks.dstStage,
	}, nil
}

// SetImageMemoryBarrier records the layout transition of img into cmd.
func SetImageMemoryBarrier(drv Driver, cmd CommandBuffer, img Image, format Format, oldLayout, newLayout ImageLayout) error {
	b, err := LayoutBarrier(img, format, oldLayout, newLayout)
	if err != nil {
		return err
	}
	drv.CmdPipelineBarrier(cmd, b)
	return nil
}
