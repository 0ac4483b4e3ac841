package render

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"
	_ "github.com/lmittmann/ppm"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"
)

// MaxImageDimension bounds the width and height of decoded images.
const MaxImageDimension = 16384

// Pixels is a decoded image as tightly packed RGBA8 rows.
type Pixels struct {
	Width, Height uint32
	RGBA          []byte
}

// DecodeImage decodes any registered format (PNG, JPEG, GIF, BMP, TIFF or
// PPM) into RGBA8. The header is checked against MaxImageDimension before
// the pixels are decoded.
func DecodeImage(r io.Reader) (Pixels, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Pixels{}, errors.Wrap(err, "read image")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Pixels{}, errors.Wrap(err, "decode image header")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension {
		return Pixels{}, errors.Newf("%s image size %dx%d outside 1..%d", format, cfg.Width, cfg.Height, MaxImageDimension)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Pixels{}, errors.Wrap(err, "decode image")
	}
	return toPixels(img), nil
}

func toPixels(img image.Image) Pixels {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return Pixels{Width: uint32(b.Dx()), Height: uint32(b.Dy()), RGBA: rgba.Pix}
}

// DecodeImageFile reads and decodes the image at path. A missing file is an
// ErrAssetNotFound.
func DecodeImageFile(path string) (Pixels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Pixels{}, errors.Mark(errors.Wrapf(err, "texture %s", path), ErrAssetNotFound)
		}
		return Pixels{}, errors.Wrapf(err, "read texture %s", path)
	}
	px, err := DecodeImage(bytes.NewReader(data))
	if err != nil {
		return Pixels{}, errors.Wrapf(err, "texture %s", path)
	}
	return px, nil
}

// DecodeImageFiles decodes paths concurrently. Results keep the order of paths.
func DecodeImageFiles(ctx context.Context, paths []string) ([]Pixels, error) {
	out := make([]Pixels, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			px, err := DecodeImageFile(path)
			if err != nil {
				return err
			}
			out[i] = px
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTextureFromFile decodes the image at path and uploads it.
func (r *Resources) CreateTextureFromFile(path string) (TextureObject, error) {
	px, err := DecodeImageFile(path)
	if err != nil {
		return TextureObject{}, err
	}
	return r.CreateTextureObject(px.RGBA, px.Width, px.Height)
}

// CreateTexturesFromFiles decodes every file in parallel, then uploads them one
// at a time. On failure the textures already uploaded are destroyed.
func (r *Resources) CreateTexturesFromFiles(ctx context.Context, paths ...string) ([]TextureObject, error) {
	decoded, err := DecodeImageFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	out := make([]TextureObject, 0, len(decoded))
	for i, px := range decoded {
		tex, err := r.CreateTextureObject(px.RGBA, px.Width, px.Height)
		if err != nil {
			for _, t := range out {
				r.DestroyTexture(t)
			}
			return nil, errors.Wrapf(err, "texture %s", paths[i])
		}
		out = append(out, tex)
	}
	return out, nil
}
