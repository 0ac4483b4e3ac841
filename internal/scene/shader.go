package scene

import (
	"os"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"

	"github.com/RewHiro/vulkan/internal/render"
	"github.com/RewHiro/vulkan/internal/vkdriver"
)

// LoadShader reads a SPIR-V module. A missing file is ErrAssetNotFound.
func LoadShader(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "read shader %s", path), render.ErrAssetNotFound),
			"compile the GLSL sources with `go generate ./shaders`")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Newf("shader %s: length %d is not a positive multiple of 4", path, len(code))
	}
	return code, nil
}

// bytesToUint32 reinterprets SPIR-V bytes as words. len(data) must be a
// positive multiple of 4.
func bytesToUint32(data []byte) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

func createShaderModule(device vulkan.Device, code []byte) (vulkan.ShaderModule, error) {
	createInfo := vulkan.ShaderModuleCreateInfo{
		SType:    vulkan.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    bytesToUint32(code),
	}
	var module vulkan.ShaderModule
	if res := vulkan.CreateShaderModule(device, &createInfo, nil, &module); res != vulkan.Success {
		return vulkan.ShaderModule(vulkan.NullHandle), errors.Wrap(vulkan.Error(res), "create shader module")
	}
	return module, nil
}

// loadShaderModules loads and creates the vertex and fragment modules of one
// pipeline. The caller destroys both once the pipeline exists.
func loadShaderModules(drv *vkdriver.Driver, ctx *render.Context, vert, frag string) (vulkan.ShaderModule, vulkan.ShaderModule, error) {
	var none vulkan.ShaderModule
	device := drv.VKDevice(ctx.Device.Device)
	vertCode, err := LoadShader(vert)
	if err != nil {
		return none, none, err
	}
	fragCode, err := LoadShader(frag)
	if err != nil {
		return none, none, err
	}
	vertModule, err := createShaderModule(device, vertCode)
	if err != nil {
		return none, none, err
	}
	fragModule, err := createShaderModule(device, fragCode)
	if err != nil {
		vulkan.DestroyShaderModule(device, vertModule, nil)
		return none, none, err
	}
	return vertModule, fragModule, nil
}
