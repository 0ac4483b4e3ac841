package scene

import (
	"unsafe"

	mgl32 "github.com/go-gl/mathgl/mgl32"
	"github.com/vulkan-go/vulkan"
)

type colorVertex struct {
	pos   mgl32.Vec3
	color mgl32.Vec3
}

var colorVertexAttributes = []vulkan.VertexInputAttributeDescription{
	{Location: 0, Binding: 0, Format: vulkan.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(colorVertex{}.pos))},
	{Location: 1, Binding: 0, Format: vulkan.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(colorVertex{}.color))},
}

var (
	red     = mgl32.Vec3{1, 0, 0}
	green   = mgl32.Vec3{0, 1, 0}
	blue    = mgl32.Vec3{0, 0, 1}
	white   = mgl32.Vec3{1, 1, 1}
	black   = mgl32.Vec3{0, 0, 0}
	yellow  = mgl32.Vec3{1, 1, 0}
	magenta = mgl32.Vec3{1, 0, 1}
	cyan    = mgl32.Vec3{0, 1, 1}
)

var triangleVertices = []colorVertex{
	{pos: mgl32.Vec3{-1, 0, 0}, color: red},
	{pos: mgl32.Vec3{1, 0, 0}, color: green},
	{pos: mgl32.Vec3{0, 1, 0}, color: blue},
}

var triangleIndices = []uint32{0, 1, 2}

type cubeVertex struct {
	pos   mgl32.Vec3
	color mgl32.Vec3
	uv    mgl32.Vec2
}

var cubeVertexAttributes = []vulkan.VertexInputAttributeDescription{
	{Location: 0, Binding: 0, Format: vulkan.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(cubeVertex{}.pos))},
	{Location: 1, Binding: 0, Format: vulkan.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(cubeVertex{}.color))},
	{Location: 2, Binding: 0, Format: vulkan.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(cubeVertex{}.uv))},
}

var (
	uvLeftBottom  = mgl32.Vec2{0, 0}
	uvLeftTop     = mgl32.Vec2{0, 1}
	uvRightBottom = mgl32.Vec2{1, 0}
	uvRightTop    = mgl32.Vec2{1, 1}
)

// cubeVertices has four vertices per face so every face carries its own UVs.
var cubeVertices = []cubeVertex{
	// front
	{mgl32.Vec3{-1, 1, 1}, yellow, uvLeftBottom},
	{mgl32.Vec3{-1, -1, 1}, red, uvLeftTop},
	{mgl32.Vec3{1, 1, 1}, white, uvRightBottom},
	{mgl32.Vec3{1, -1, 1}, magenta, uvRightTop},
	// right
	{mgl32.Vec3{1, 1, 1}, white, uvLeftBottom},
	{mgl32.Vec3{1, -1, 1}, magenta, uvLeftTop},
	{mgl32.Vec3{1, 1, -1}, cyan, uvRightBottom},
	{mgl32.Vec3{1, -1, -1}, blue, uvRightTop},
	// left
	{mgl32.Vec3{-1, 1, -1}, green, uvLeftBottom},
	{mgl32.Vec3{-1, -1, -1}, black, uvLeftTop},
	{mgl32.Vec3{-1, 1, 1}, yellow, uvRightBottom},
	{mgl32.Vec3{-1, -1, 1}, red, uvRightTop},
	// back
	{mgl32.Vec3{1, 1, -1}, cyan, uvLeftBottom},
	{mgl32.Vec3{1, -1, -1}, blue, uvLeftTop},
	{mgl32.Vec3{-1, 1, -1}, green, uvRightBottom},
	{mgl32.Vec3{-1, -1, -1}, black, uvRightTop},
	// top
	{mgl32.Vec3{-1, 1, -1}, green, uvLeftBottom},
	{mgl32.Vec3{-1, 1, 1}, yellow, uvLeftTop},
	{mgl32.Vec3{1, 1, -1}, cyan, uvRightBottom},
	{mgl32.Vec3{1, 1, 1}, white, uvRightTop},
	// bottom
	{mgl32.Vec3{-1, -1, 1}, red, uvLeftBottom},
	{mgl32.Vec3{-1, -1, -1}, black, uvLeftTop},
	{mgl32.Vec3{1, -1, 1}, magenta, uvRightBottom},
	{mgl32.Vec3{1, -1, -1}, blue, uvRightTop},
}

var cubeIndices = []uint32{
	0, 2, 1, 1, 2, 3, // front
	4, 6, 5, 5, 6, 7, // right
	8, 10, 9, 9, 10, 11, // left
	12, 14, 13, 13, 14, 15, // back
	16, 18, 17, 17, 18, 19, // top
	20, 22, 21, 21, 22, 23, // bottom
}

type overlayVertex struct {
	pos   mgl32.Vec2
	color mgl32.Vec3
}

var overlayVertexAttributes = []vulkan.VertexInputAttributeDescription{
	{Location: 0, Binding: 0, Format: vulkan.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(overlayVertex{}.pos))},
	{Location: 1, Binding: 0, Format: vulkan.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(overlayVertex{}.color))},
}

func stride[T any]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

// asBytes copies the memory of s into a new byte slice.
func asBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	size := len(s) * int(unsafe.Sizeof(s[0]))
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), size))
	return out
}
