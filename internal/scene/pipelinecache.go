package scene

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"

	"github.com/RewHiro/vulkan/internal/render"
)

// openPipelineCache creates a pipeline cache seeded from the device's cache
// file. An unreadable file leaves the cache empty; the driver itself ignores
// data written by another device or driver version.
func openPipelineCache(device vulkan.Device, ctx *render.Context) (vulkan.PipelineCache, error) {
	path := ctx.Device.PipelineCachePath()
	data, err := render.LoadPipelineCache(path)
	if err != nil {
		ctx.Logger.Warn("ignoring pipeline cache", slog.String("path", path), slog.Any("err", err))
		data = nil
	}
	info := vulkan.PipelineCacheCreateInfo{
		SType: vulkan.StructureTypePipelineCacheCreateInfo,
	}
	if len(data) > 0 {
		initial, free, err := cHandles[byte](len(data))
		if err != nil {
			return vulkan.PipelineCache(vulkan.NullHandle), err
		}
		defer free()
		copy(initial, data)
		info.InitialDataSize = uint(len(data))
		info.PInitialData = unsafe.Pointer(&initial[0])
	}
	cacheOut, free, err := cHandle[vulkan.PipelineCache]()
	if err != nil {
		return vulkan.PipelineCache(vulkan.NullHandle), err
	}
	defer free()
	if res := vulkan.CreatePipelineCache(device, &info, nil, cacheOut); res != vulkan.Success {
		return vulkan.PipelineCache(vulkan.NullHandle), errors.Wrap(vulkan.Error(res), "create pipeline cache")
	}
	return *cacheOut, nil
}

// pipelineCacheData copies the current contents of cache out of the driver.
func pipelineCacheData(device vulkan.Device, cache vulkan.PipelineCache) ([]byte, error) {
	var size uint
	if res := vulkan.GetPipelineCacheData(device, cache, &size, nil); res != vulkan.Success {
		return nil, errors.Wrap(vulkan.Error(res), "pipeline cache size")
	}
	if size == 0 {
		return nil, nil
	}
	buf, free, err := cHandles[byte](int(size))
	if err != nil {
		return nil, err
	}
	defer free()
	if res := vulkan.GetPipelineCacheData(device, cache, &size, unsafe.Pointer(&buf[0])); res != vulkan.Success {
		return nil, errors.Wrap(vulkan.Error(res), "pipeline cache data")
	}
	return append([]byte(nil), buf[:size]...), nil
}

// closePipelineCache writes cache back to the device's cache file and
// destroys it. Write failures are logged.
func closePipelineCache(device vulkan.Device, ctx *render.Context, cache vulkan.PipelineCache) {
	defer vulkan.DestroyPipelineCache(device, cache, nil)
	path := ctx.Device.PipelineCachePath()
	if path == "" {
		return
	}
	data, err := pipelineCacheData(device, cache)
	if err == nil {
		err = render.SavePipelineCache(path, data)
	}
	if err != nil {
		ctx.Logger.Warn("pipeline cache not saved", slog.String("path", path), slog.Any("err", err))
		return
	}
	ctx.Logger.Debug("pipeline cache saved", slog.String("path", path), slog.Int("bytes", len(data)))
}
