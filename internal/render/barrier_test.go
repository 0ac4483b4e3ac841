package render

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestLayoutBarrier(t *testing.T) {
	tests := []struct {
		from, to  ImageLayout
		format    Format
		srcAccess AccessFlags
		dstAccess AccessFlags
		srcStage  PipelineStageFlags
		dstStage  PipelineStageFlags
		aspect    ImageAspectFlags
	}{
		{
			ImageLayoutUndefined, ImageLayoutTransferDstOptimal, FormatR8G8B8A8Unorm,
			0, AccessTransferWrite,
			PipelineStageTopOfPipe, PipelineStageTransfer,
			ImageAspectColor,
		},
		{
			ImageLayoutTransferDstOptimal, ImageLayoutShaderReadOnlyOptimal, FormatR8G8B8A8Unorm,
			AccessTransferWrite, AccessShaderRead,
			PipelineStageTransfer, PipelineStageFragmentShader,
			ImageAspectColor,
		},
		{
			ImageLayoutUndefined, ImageLayoutDepthStencilAttachmentOptimal, FormatD24UnormS8Uint,
			0, AccessDepthStencilAttachmentRead | AccessDepthStencilAttachmentWrite,
			PipelineStageTopOfPipe, PipelineStageEarlyFragmentTests,
			ImageAspectDepth | ImageAspectStencil,
		},
		{
			ImageLayoutUndefined, ImageLayoutDepthStencilAttachmentOptimal, FormatD32Sfloat,
			0, AccessDepthStencilAttachmentRead | AccessDepthStencilAttachmentWrite,
			PipelineStageTopOfPipe, PipelineStageEarlyFragmentTests,
			ImageAspectDepth,
		},
		{
			ImageLayoutTransferDstOptimal, ImageLayoutTransferSrcOptimal, FormatR8G8B8A8Unorm,
			AccessTransferWrite, AccessTransferRead,
			PipelineStageTransfer, PipelineStageTransfer,
			ImageAspectColor,
		},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			b, err := LayoutBarrier(Image(7), tt.format, tt.from, tt.to)
			if err != nil {
				t.Fatalf("LayoutBarrier: %v", err)
			}
			if b.Image != 7 || b.OldLayout != tt.from || b.NewLayout != tt.to {
				t.Fatalf("barrier identity wrong: %+v", b)
			}
			if b.SrcAccess != tt.srcAccess || b.DstAccess != tt.dstAccess {
				t.Fatalf("access = %#x/%#x, want %#x/%#x", b.SrcAccess, b.DstAccess, tt.srcAccess, tt.dstAccess)
			}
			if b.SrcStage != tt.srcStage || b.DstStage != tt.dstStage {
				t.Fatalf("stage = %#x/%#x, want %#x/%#x", b.SrcStage, b.DstStage, tt.srcStage, tt.dstStage)
			}
			if b.Aspect != tt.aspect {
				t.Fatalf("aspect = %#x, want %#x", b.Aspect, tt.aspect)
			}
		})
	}
}

func TestLayoutBarrierUnsupported(t *testing.T) {
	for _, pair := range [][2]ImageLayout{
		{ImageLayoutPresentSrc, ImageLayoutTransferDstOptimal},
		{ImageLayoutTransferDstOptimal, ImageLayoutTransferDstOptimal},
		{ImageLayoutShaderReadOnlyOptimal, ImageLayoutUndefined},
	} {
		_, err := LayoutBarrier(Image(1), FormatR8G8B8A8Unorm, pair[0], pair[1])
		if !errors.Is(err, ErrUnsupportedTransition) {
			t.Fatalf("%s -> %s: err = %v, want ErrUnsupportedTransition", pair[0], pair[1], err)
		}
		if !errors.Is(err, ErrResourceCreation) {
			t.Fatalf("%s -> %s: not marked as resource creation", pair[0], pair[1])
		}
	}
}

func TestSetImageMemoryBarrierRecordsNothingOnError(t *testing.T) {
	drv := newFakeDriver()
	err := SetImageMemoryBarrier(drv, CommandBuffer(1), Image(2), FormatR8G8B8A8Unorm,
		ImageLayoutGeneral, ImageLayoutPresentSrc)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(drv.barriers) != 0 {
		t.Fatalf("recorded %d barriers, want 0", len(drv.barriers))
	}
}
