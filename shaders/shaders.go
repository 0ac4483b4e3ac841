// Package shaders holds the GLSL sources of the demo scenes. The scenes load
// the compiled SPIR-V next to them at runtime.
package shaders

//go:generate glslc -o triangle.vert.spv triangle.vert
//go:generate glslc -o triangle.frag.spv triangle.frag
//go:generate glslc -o cube.vert.spv cube.vert
//go:generate glslc -o cube.frag.spv cube.frag
//go:generate glslc -o overlay.vert.spv overlay.vert
//go:generate glslc -o overlay.frag.spv overlay.frag
