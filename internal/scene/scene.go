// Package scene holds the demo scenes drawn by the engine: a colored triangle
// and a textured, rotating cube with an FPS overlay.
package scene

import (
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/RewHiro/vulkan/internal/render"
	"github.com/RewHiro/vulkan/internal/vkdriver"
)

// Options locate the assets a scene reads in Prepare.
type Options struct {
	// ShaderDir holds the compiled SPIR-V files.
	ShaderDir string
	// Texture is the cube texture. A missing file falls back to a checker
	// pattern.
	Texture string
	// Overlay draws the FPS counter on top of the cube.
	Overlay bool
}

func DefaultOptions() Options {
	return Options{
		ShaderDir: "shaders",
		Texture:   filepath.Join("assets", "texture.png"),
		Overlay:   true,
	}
}

func (o Options) shader(name string) string {
	return filepath.Join(o.ShaderDir, name)
}

var ErrUnknownScene = errors.New("unknown scene")

// Names lists the scenes New accepts.
func Names() []string {
	return []string{"triangle", "cube"}
}

func New(name string, drv *vkdriver.Driver, opts Options) (render.Scene, error) {
	switch name {
	case "triangle":
		return NewTriangle(drv, opts), nil
	case "cube", "":
		return NewCube(drv, opts), nil
	}
	return nil, errors.WithHintf(errors.Mark(errors.Newf("scene %q", name), ErrUnknownScene),
		"choose one of %v", Names())
}
