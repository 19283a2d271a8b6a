package renderer

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

// HeadlessBackend hands out handles without talking to a GPU. Used by the
// command line tools and by tests.
type HeadlessBackend struct {
	mu       sync.Mutex
	next     uint64
	textures map[metadata.TextureHandle]*metadata.TextureContainer
	programs map[metadata.ProgramHandle]string
}

func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{
		textures: make(map[metadata.TextureHandle]*metadata.TextureContainer),
		programs: make(map[metadata.ProgramHandle]string),
	}
}

func (hb *HeadlessBackend) TextureCreate(container *metadata.TextureContainer) (metadata.TextureHandle, error) {
	if container == nil {
		return metadata.InvalidTexture, fmt.Errorf("texture create: nil container")
	}
	expected := int(container.Width) * int(container.Height) * container.Format.BytesPerPixel()
	if expected == 0 || len(container.Pixels) != expected {
		return metadata.InvalidTexture, fmt.Errorf("texture create '%s': expected %d bytes, got %d", container.Name, expected, len(container.Pixels))
	}
	hb.mu.Lock()
	defer hb.mu.Unlock()
	hb.next++
	h := metadata.TextureHandle(hb.next)
	hb.textures[h] = container
	return h, nil
}

func (hb *HeadlessBackend) TextureDestroy(texture metadata.TextureHandle) {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	delete(hb.textures, texture)
}

func (hb *HeadlessBackend) ProgramCreate(name string, binaries map[metadata.ShaderStage][]byte) (metadata.ProgramHandle, error) {
	if len(binaries) == 0 {
		return metadata.InvalidProgram, fmt.Errorf("program create '%s': no stages", name)
	}
	hb.mu.Lock()
	defer hb.mu.Unlock()
	hb.next++
	h := metadata.ProgramHandle(hb.next)
	hb.programs[h] = name
	return h, nil
}

func (hb *HeadlessBackend) ProgramDestroy(program metadata.ProgramHandle) {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	delete(hb.programs, program)
}

// LiveTextures returns how many textures have been created and not destroyed.
func (hb *HeadlessBackend) LiveTextures() int {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	return len(hb.textures)
}

// LivePrograms returns how many programs have been created and not destroyed.
func (hb *HeadlessBackend) LivePrograms() int {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	return len(hb.programs)
}

// Texture returns the container a handle was created from.
func (hb *HeadlessBackend) Texture(texture metadata.TextureHandle) (*metadata.TextureContainer, bool) {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	c, ok := hb.textures[texture]
	return c, ok
}
