package vkdriver

import (
	"context"
	"unsafe"

	"github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"

	"github.com/RewHiro/vulkan/internal/render"
)

const reportFlags = vulkan.DebugReportErrorBit |
	vulkan.DebugReportWarningBit |
	vulkan.DebugReportPerformanceWarningBit

func reportLevel(flags vulkan.DebugReportFlags) slog.Level {
	switch {
	case flags&vulkan.DebugReportFlags(vulkan.DebugReportErrorBit) != 0:
		return slog.LevelError
	case flags&vulkan.DebugReportFlags(vulkan.DebugReportWarningBit|vulkan.DebugReportPerformanceWarningBit) != 0:
		return slog.LevelWarn
	case flags&vulkan.DebugReportFlags(vulkan.DebugReportInformationBit) != 0:
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

func (d *Driver) CreateDebugCallback(inst render.Instance, log *slog.Logger) (render.DebugCallback, error) {
	createInfo := vulkan.DebugReportCallbackCreateInfo{
		SType: vulkan.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vulkan.DebugReportFlags(reportFlags),
		PfnCallback: func(flags vulkan.DebugReportFlags, objectType vulkan.DebugReportObjectType, object uint64, location uint, messageCode int32, layerPrefix string, message string, userData unsafe.Pointer) vulkan.Bool32 {
			log.Log(context.Background(), reportLevel(flags), message,
				slog.String("layer", layerPrefix),
				slog.Int("code", int(messageCode)),
				slog.Uint64("object", object))
			return vulkan.False
		},
	}
	var cb vulkan.DebugReportCallback
	if res := vulkan.CreateDebugReportCallback(d.instances.get(uint64(inst)), &createInfo, nil, &cb); res != vulkan.Success {
		return 0, check(res, "vkCreateDebugReportCallbackEXT")
	}
	return render.DebugCallback(d.debug.put(cb)), nil
}

func (d *Driver) DestroyDebugCallback(inst render.Instance, cb render.DebugCallback) {
	if v, ok := d.debug.take(uint64(cb)); ok {
		vulkan.DestroyDebugReportCallback(d.instances.get(uint64(inst)), v, nil)
	}
}
