package metadata

/** @brief The name of the placeholder texture bound while loading or after a failed decode. */
const PlaceholderTextureName string = "placeholder"

/** @brief Pixel layout of a decoded texture. */
type TextureFormat int

const (
	TextureFormatUnknown TextureFormat = iota
	/** @brief 8 bits per channel, red green blue alpha. */
	TextureFormatRGBA8
)

func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatRGBA8:
		return 4
	default:
		return 0
	}
}

/**
 * @brief Opaque GPU texture identifier issued by the renderer backend.
 * Zero is never a valid texture.
 */
type TextureHandle uint64

const InvalidTexture TextureHandle = 0

/**
 * @brief CPU side result of decoding an image. Produced on worker goroutines,
 * consumed by the GPU upload step on the main thread.
 */
type TextureContainer struct {
	Name   string
	Width  uint32
	Height uint32
	Format TextureFormat
	/** @brief Tightly packed rows, top to bottom. */
	Pixels []uint8
	/** @brief True when any pixel has alpha < 255. */
	HasTransparency bool
}

// NewPlaceholderContainer builds a 4x4 magenta/black checkerboard.
func NewPlaceholderContainer() *TextureContainer {
	const dim = 4
	pixels := make([]uint8, dim*dim*4)
	for row := 0; row < dim; row++ {
		for col := 0; col < dim; col++ {
			i := (row*dim + col) * 4
			if (row+col)%2 == 0 {
				pixels[i] = 255
				pixels[i+2] = 255
			}
			pixels[i+3] = 255
		}
	}
	return &TextureContainer{
		Name:   PlaceholderTextureName,
		Width:  dim,
		Height: dim,
		Format: TextureFormatRGBA8,
		Pixels: pixels,
	}
}
