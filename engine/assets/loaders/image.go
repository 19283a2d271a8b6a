package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ftrvxmtrx/tga"
	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/tmo"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

/**
 * @brief CPU side image decoder used by the texture workers. It never touches
 * the GPU.
 */
type ImageLoader struct {
	/** @brief Flip rows so the first row is the bottom of the image. */
	FlipY bool
}

// decoders by extension. Targa has no magic number to sniff, so nothing here
// goes through image.Decode.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".bmp":  bmp.Decode,
	".tiff": tiff.Decode,
	".tif":  tiff.Decode,
	".tga":  tga.Decode,
	".hdr":  rgbe.Decode,
}

// Decode reads path and returns tightly packed RGBA8 pixels.
func (il *ImageLoader) Decode(path string) (*metadata.TextureContainer, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrFileNotFound, path)
		}
		return nil, err
	}
	defer file.Close()

	decode, ok := decoders[filepath.Ext(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no decoder for %s images", core.ErrImportError, path, filepath.Ext(path))
	}
	img, err := decode(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrImportError, path, err)
	}
	if m, ok := img.(hdr.Image); ok {
		// radiance maps are tone mapped down to the RGBA8 the backend uploads
		img = tmo.NewLinear(m).Perform()
	}
	return toContainer(filepath.Base(path), img, il.FlipY), nil
}

func toContainer(name string, img image.Image, flipY bool) *metadata.TextureContainer {
	b := img.Bounds()
	rgba, ok := img.(*image.NRGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != b.Dx()*4 {
		rgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	pixels := rgba.Pix
	if flipY {
		pixels = make([]uint8, len(rgba.Pix))
		row := w * 4
		for y := 0; y < h; y++ {
			copy(pixels[y*row:(y+1)*row], rgba.Pix[(h-1-y)*row:(h-y)*row])
		}
	}
	transparent := false
	for i := 3; i < len(pixels); i += 4 {
		if pixels[i] < 255 {
			transparent = true
			break
		}
	}
	return &metadata.TextureContainer{
		Name:            name,
		Width:           uint32(w),
		Height:          uint32(h),
		Format:          metadata.TextureFormatRGBA8,
		Pixels:          pixels,
		HasTransparency: transparent,
	}
}
