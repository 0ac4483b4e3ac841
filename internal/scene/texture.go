package scene

import (
	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"

	"github.com/RewHiro/vulkan/internal/render"
)

// loadTexture uploads the image at path, or a checker pattern when the file
// does not exist.
func loadTexture(ctx *render.Context, path string) (render.TextureObject, error) {
	px, err := render.DecodeImageFile(path)
	if errors.Is(err, render.ErrAssetNotFound) {
		ctx.Logger.Warn("texture missing, using checker pattern", slog.String("path", path))
		px = fallbackCheckerTexture(64, 8)
	} else if err != nil {
		return render.TextureObject{}, err
	}
	return ctx.Resources.CreateTextureObject(px.RGBA, px.Width, px.Height)
}

// fallbackCheckerTexture is a size x size RGBA8 checkerboard of cell-pixel
// squares.
func fallbackCheckerTexture(size, cell uint32) render.Pixels {
	light := [4]byte{255, 255, 255, 255}
	dark := [4]byte{50, 50, 50, 255}
	pixels := make([]byte, 0, size*size*4)
	for y := uint32(0); y < size; y++ {
		for x := uint32(0); x < size; x++ {
			c := light
			if (x/cell+y/cell)%2 == 1 {
				c = dark
			}
			pixels = append(pixels, c[:]...)
		}
	}
	return render.Pixels{Width: size, Height: size, RGBA: pixels}
}

func createTextureSampler(device vulkan.Device) (vulkan.Sampler, error) {
	samplerInfo := vulkan.SamplerCreateInfo{
		SType:                   vulkan.StructureTypeSamplerCreateInfo,
		MagFilter:               vulkan.FilterLinear,
		MinFilter:               vulkan.FilterLinear,
		AddressModeU:            vulkan.SamplerAddressModeRepeat,
		AddressModeV:            vulkan.SamplerAddressModeRepeat,
		AddressModeW:            vulkan.SamplerAddressModeRepeat,
		AnisotropyEnable:        vulkan.False,
		MaxAnisotropy:           1.0,
		BorderColor:             vulkan.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vulkan.False,
		CompareEnable:           vulkan.False,
		CompareOp:               vulkan.CompareOpAlways,
		MipmapMode:              vulkan.SamplerMipmapModeLinear,
	}
	samplerOut, free, err := cHandle[vulkan.Sampler]()
	if err != nil {
		return vulkan.Sampler(vulkan.NullHandle), err
	}
	defer free()
	if res := vulkan.CreateSampler(device, &samplerInfo, nil, samplerOut); res != vulkan.Success {
		return vulkan.Sampler(vulkan.NullHandle), errors.Wrap(vulkan.Error(res), "create sampler")
	}
	return *samplerOut, nil
}
