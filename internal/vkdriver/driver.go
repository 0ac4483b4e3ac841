// Package vkdriver implements render.Driver on github.com/vulkan-go/vulkan.
package vkdriver

import (
	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"

	"github.com/RewHiro/vulkan/internal/render"
)

// Driver owns the handle tables. The loader must be initialised with
// vulkan.SetGetInstanceProcAddr and vulkan.Init before the first call.
type Driver struct {
	instances  table[vulkan.Instance]
	debug      table[vulkan.DebugReportCallback]
	physical   table[vulkan.PhysicalDevice]
	devices    table[vulkan.Device]
	queues     table[vulkan.Queue]
	surfaces   table[vulkan.Surface]
	swapchains table[vulkan.Swapchain]
	images     table[vulkan.Image]
	views      table[vulkan.ImageView]
	buffers    table[vulkan.Buffer]
	memory     table[vulkan.DeviceMemory]
	passes     table[vulkan.RenderPass]
	fbs        table[vulkan.Framebuffer]
	pools      table[vulkan.CommandPool]
	cmds       table[vulkan.CommandBuffer]
	fences     table[vulkan.Fence]
	semaphores table[vulkan.Semaphore]
}

func New() *Driver {
	return &Driver{}
}

var _ render.Driver = (*Driver)(nil)

func (d *Driver) CreateInstance(info render.InstanceInfo) (render.Instance, error) {
	appInfo := vulkan.ApplicationInfo{
		SType:              vulkan.StructureTypeApplicationInfo,
		PApplicationName:   safeString(info.AppName),
		ApplicationVersion: vulkan.MakeVersion(0, 1, 0),
		PEngineName:        safeString(info.AppName),
		EngineVersion:      vulkan.MakeVersion(0, 1, 0),
		ApiVersion:         vulkan.MakeVersion(1, 0, 0),
	}
	extensions := safeStrings(info.Extensions)
	layers := safeStrings(info.Layers)
	createInfo := vulkan.InstanceCreateInfo{
		SType:                   vulkan.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}
	var inst vulkan.Instance
	if res := vulkan.CreateInstance(&createInfo, nil, &inst); res != vulkan.Success {
		return 0, check(res, "vkCreateInstance")
	}
	if err := vulkan.InitInstance(inst); err != nil {
		vulkan.DestroyInstance(inst, nil)
		return 0, errors.Wrap(err, "init instance function table")
	}
	return render.Instance(d.instances.put(inst)), nil
}

func (d *Driver) DestroyInstance(inst render.Instance) {
	if v, ok := d.instances.take(uint64(inst)); ok {
		vulkan.DestroyInstance(v, nil)
	}
}

func (d *Driver) EnumeratePhysicalDevices(inst render.Instance) ([]render.PhysicalDevice, error) {
	instance := d.instances.get(uint64(inst))
	var count uint32
	if res := vulkan.EnumeratePhysicalDevices(instance, &count, nil); res != vulkan.Success {
		return nil, check(res, "vkEnumeratePhysicalDevices")
	}
	devices := make([]vulkan.PhysicalDevice, count)
	if count > 0 {
		if res := vulkan.EnumeratePhysicalDevices(instance, &count, devices); res != vulkan.Success {
			return nil, check(res, "vkEnumeratePhysicalDevices")
		}
	}
	out := make([]render.PhysicalDevice, 0, count)
	for _, pd := range devices[:count] {
		out = append(out, render.PhysicalDevice(d.physical.put(pd)))
	}
	return out, nil
}

func (d *Driver) PhysicalDeviceProperties(pd render.PhysicalDevice) render.DeviceProperties {
	var props vulkan.PhysicalDeviceProperties
	vulkan.GetPhysicalDeviceProperties(d.physical.get(uint64(pd)), &props)
	props.Deref()
	return render.DeviceProperties{
		Name:              vulkan.ToString(props.DeviceName[:]),
		APIVersion:        props.ApiVersion,
		DriverVersion:     props.DriverVersion,
		VendorID:          props.VendorID,
		DeviceID:          props.DeviceID,
		PipelineCacheUUID: props.PipelineCacheUUID,
	}
}

func (d *Driver) MemoryTypes(pd render.PhysicalDevice) []render.MemoryType {
	var memProps vulkan.PhysicalDeviceMemoryProperties
	vulkan.GetPhysicalDeviceMemoryProperties(d.physical.get(uint64(pd)), &memProps)
	memProps.Deref()
	out := make([]render.MemoryType, 0, memProps.MemoryTypeCount)
	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memoryType := memProps.MemoryTypes[i]
		memoryType.Deref()
		out = append(out, render.MemoryType{
			HeapIndex:     memoryType.HeapIndex,
			PropertyFlags: render.MemoryPropertyFlags(memoryType.PropertyFlags),
		})
	}
	return out
}

func (d *Driver) QueueFamilies(pd render.PhysicalDevice) []render.QueueFamily {
	device := d.physical.get(uint64(pd))
	var count uint32
	vulkan.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	props := make([]vulkan.QueueFamilyProperties, count)
	vulkan.GetPhysicalDeviceQueueFamilyProperties(device, &count, props)
	out := make([]render.QueueFamily, len(props))
	for i := range props {
		props[i].Deref()
		out[i] = render.QueueFamily{
			Flags: render.QueueFlags(props[i].QueueFlags),
			Count: props[i].QueueCount,
		}
	}
	return out
}

func (d *Driver) DeviceExtensions(pd render.PhysicalDevice) ([]string, error) {
	device := d.physical.get(uint64(pd))
	var count uint32
	if res := vulkan.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vulkan.Success {
		return nil, check(res, "vkEnumerateDeviceExtensionProperties")
	}
	props := make([]vulkan.ExtensionProperties, count)
	if res := vulkan.EnumerateDeviceExtensionProperties(device, "", &count, props); res != vulkan.Success {
		return nil, check(res, "vkEnumerateDeviceExtensionProperties")
	}
	out := make([]string, 0, count)
	for i := range props[:count] {
		props[i].Deref()
		out = append(out, vulkan.ToString(props[i].ExtensionName[:]))
	}
	return out, nil
}

func (d *Driver) CreateDevice(pd render.PhysicalDevice, info render.DeviceInfo) (render.Device, error) {
	queueInfos := []vulkan.DeviceQueueCreateInfo{{
		SType:            vulkan.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: info.QueueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	extensions := safeStrings(info.Extensions)
	layers := safeStrings(info.Layers)
	createInfo := vulkan.DeviceCreateInfo{
		SType:                   vulkan.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		PEnabledFeatures:        []vulkan.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}
	var dev vulkan.Device
	if res := vulkan.CreateDevice(d.physical.get(uint64(pd)), &createInfo, nil, &dev); res != vulkan.Success {
		return 0, check(res, "vkCreateDevice")
	}
	return render.Device(d.devices.put(dev)), nil
}

func (d *Driver) DestroyDevice(dev render.Device) {
	if v, ok := d.devices.take(uint64(dev)); ok {
		vulkan.DestroyDevice(v, nil)
	}
}

func (d *Driver) GetDeviceQueue(dev render.Device, family uint32) render.Queue {
	var q vulkan.Queue
	vulkan.GetDeviceQueue(d.devices.get(uint64(dev)), family, 0, &q)
	return render.Queue(d.queues.put(q))
}

func (d *Driver) DeviceWaitIdle(dev render.Device) error {
	return check(vulkan.DeviceWaitIdle(d.devices.get(uint64(dev))), "vkDeviceWaitIdle")
}

// safeString NUL-terminates s for vulkan-go.
func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}
