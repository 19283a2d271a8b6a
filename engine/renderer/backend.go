package renderer

import "github.com/spaghettifunk/delta/engine/renderer/metadata"

// Backend is the slice of the GPU API the asset database needs. Every method
// must be called from the goroutine that owns the graphics context.
type Backend interface {
	TextureCreate(container *metadata.TextureContainer) (metadata.TextureHandle, error)
	TextureDestroy(texture metadata.TextureHandle)
	// ProgramCreate links per-stage binaries into one program.
	ProgramCreate(name string, binaries map[metadata.ShaderStage][]byte) (metadata.ProgramHandle, error)
	ProgramDestroy(program metadata.ProgramHandle)
}
