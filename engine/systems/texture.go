package systems

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/spaghettifunk/delta/engine/assets/registry"
	"github.com/spaghettifunk/delta/engine/containers"
	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/renderer"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

/** @brief Decodes image files on worker goroutines. Must not touch the GPU. */
type TextureDecoder interface {
	Decode(path string) (*metadata.TextureContainer, error)
}

type TextureSystemConfig struct {
	/** @brief Number of decode workers. */
	Workers int
	/** @brief Initial capacity of the load queue. */
	QueueSize int
}

/** @brief Ask for path to be decoded and uploaded into the entry Target. */
type TextureLoadRequest struct {
	Target registry.Handle
	Path   string
}

/** @brief A finished decode waiting for the main thread. */
type TextureUploadResult struct {
	Target    registry.Handle
	Path      string
	Container *metadata.TextureContainer
	Err       error
}

/**
 * @brief Texture loading pipeline. Any goroutine may request a load; workers
 * decode into CPU memory and hand the result to the upload queue, which only
 * ProcessTextureJobs drains, on the goroutine owning the graphics context and
 * the registry.
 */
type TextureSystem struct {
	logger   *log.Logger
	backend  renderer.Backend
	registry *registry.Registry
	decoder  TextureDecoder

	jobs *JobSystem[TextureLoadRequest]
	// paths requested and not yet uploaded
	inFlight *containers.SyncSet

	uploadMu sync.Mutex
	uploads  []TextureUploadResult

	placeholder metadata.TextureHandle
}

func NewTextureSystem(config TextureSystemConfig, backend renderer.Backend, reg *registry.Registry, decoder TextureDecoder, logger *log.Logger) (*TextureSystem, error) {
	if reg == nil || decoder == nil {
		return nil, fmt.Errorf("texture system needs a registry and a decoder")
	}
	ts := &TextureSystem{
		logger:   core.LoggerOrDefault(logger).WithPrefix("textures"),
		backend:  backend,
		registry: reg,
		decoder:  decoder,
		inFlight: containers.NewSyncSet(),
	}
	js, err := NewJobSystem(config.Workers, config.QueueSize, ts.decode, ts.logger)
	if err != nil {
		return nil, err
	}
	ts.jobs = js
	return ts, nil
}

// RequestTextureLoad queues a decode. It returns false when the path is
// already requested and not yet uploaded.
func (ts *TextureSystem) RequestTextureLoad(req TextureLoadRequest) bool {
	if !ts.inFlight.Add(req.Path) {
		return false
	}
	if err := ts.jobs.Submit(req); err != nil {
		ts.inFlight.Remove(req.Path)
		ts.logger.Warn("texture load rejected", "path", req.Path, "err", err)
		return false
	}
	return true
}

// IsRequested reports whether path is queued, decoding or waiting for upload.
func (ts *TextureSystem) IsRequested(path string) bool {
	return ts.inFlight.Contains(path)
}

// CancelPending drops a request that no worker has picked up yet. A decode
// already running is left alone and its result is still uploaded, or
// discarded if the entry is gone.
func (ts *TextureSystem) CancelPending(path string) bool {
	dropped := ts.jobs.Drop(func(req TextureLoadRequest) bool { return req.Path == path })
	if dropped > 0 {
		ts.inFlight.Remove(path)
	}
	return dropped > 0
}

// decode runs on a worker.
func (ts *TextureSystem) decode(req TextureLoadRequest) {
	c, err := ts.decoder.Decode(req.Path)
	ts.uploadMu.Lock()
	ts.uploads = append(ts.uploads, TextureUploadResult{Target: req.Target, Path: req.Path, Container: c, Err: err})
	ts.uploadMu.Unlock()
}

// InFlight returns the number of paths requested and not yet uploaded.
func (ts *TextureSystem) InFlight() int {
	return ts.inFlight.Len()
}

// PendingUploads returns the number of decoded textures waiting for upload.
func (ts *TextureSystem) PendingUploads() int {
	ts.uploadMu.Lock()
	defer ts.uploadMu.Unlock()
	return len(ts.uploads)
}

/**
 * @brief Uploads every decoded texture and stores the GPU handle in its
 * registry entry. Must be called on the main thread.
 * @return The number of results consumed.
 */
func (ts *TextureSystem) ProcessTextureJobs() int {
	ts.uploadMu.Lock()
	batch := ts.uploads
	ts.uploads = nil
	ts.uploadMu.Unlock()

	for _, res := range batch {
		ts.upload(res)
		// only now may the path be requested again
		ts.inFlight.Remove(res.Path)
	}
	return len(batch)
}

func (ts *TextureSystem) upload(res TextureUploadResult) {
	target, ok := ts.resolveTarget(res)
	if !ok {
		ts.logger.Debug("discarding texture for a removed asset", "path", res.Path)
		return
	}
	entry, _ := ts.registry.Get(target)
	payload, ok := entry.Payload.(*registry.TexturePayload)
	if !ok {
		ts.logger.Warn("texture target holds another payload", "path", res.Path, "kind", entry.Payload.Kind())
		return
	}
	if ts.backend == nil {
		ts.logger.Error("cannot upload texture", "path", res.Path, "err", core.ErrGraphicsAPIUnset)
		payload.Err = core.ErrGraphicsAPIUnset
		return
	}

	if res.Err != nil || res.Container == nil {
		ts.logger.Warn("texture decode failed, using placeholder", "path", res.Path, "err", res.Err)
		ts.bindPlaceholder(payload, res.Err)
		return
	}
	handle, err := ts.backend.TextureCreate(res.Container)
	if err != nil {
		ts.logger.Warn("texture upload failed, using placeholder", "path", res.Path, "err", err)
		ts.bindPlaceholder(payload, err)
		return
	}
	ts.release(payload)
	payload.Texture = handle
	payload.Width = res.Container.Width
	payload.Height = res.Container.Height
	payload.Format = res.Container.Format
	payload.HasTransparency = res.Container.HasTransparency
	payload.Placeholder = false
	payload.Err = nil
	payload.Generation++
}

// resolveTarget returns the live entry the result belongs to. When the
// original handle died (the asset was removed and imported again) the result
// goes to the live entry for the same path, never to whatever reused the slot.
func (ts *TextureSystem) resolveTarget(res TextureUploadResult) (registry.Handle, bool) {
	if ts.registry.IsAlive(res.Target) {
		return res.Target, true
	}
	if h, ok := ts.registry.FindByPath(res.Path); ok {
		return h, true
	}
	return registry.InvalidHandle, false
}

// BindPlaceholder points payload at the placeholder texture until a real one
// is uploaded.
func (ts *TextureSystem) BindPlaceholder(payload *registry.TexturePayload) {
	ts.bindPlaceholder(payload, nil)
}

func (ts *TextureSystem) bindPlaceholder(payload *registry.TexturePayload, cause error) {
	payload.Placeholder = true
	payload.Err = cause
	h, err := ts.Placeholder()
	if err != nil {
		ts.logger.Error("placeholder texture unavailable", "err", err)
		return
	}
	ts.release(payload)
	c := metadata.NewPlaceholderContainer()
	payload.Texture = h
	payload.Width = c.Width
	payload.Height = c.Height
	payload.Format = c.Format
	payload.HasTransparency = false
}

// Placeholder returns the shared placeholder texture, uploading it on first
// use.
func (ts *TextureSystem) Placeholder() (metadata.TextureHandle, error) {
	if ts.placeholder != metadata.InvalidTexture {
		return ts.placeholder, nil
	}
	if ts.backend == nil {
		return metadata.InvalidTexture, core.ErrGraphicsAPIUnset
	}
	h, err := ts.backend.TextureCreate(metadata.NewPlaceholderContainer())
	if err != nil {
		return metadata.InvalidTexture, err
	}
	ts.placeholder = h
	return h, nil
}

// Release destroys the GPU texture owned by payload, if any.
func (ts *TextureSystem) Release(payload *registry.TexturePayload) {
	ts.release(payload)
	payload.Texture = metadata.InvalidTexture
}

func (ts *TextureSystem) release(payload *registry.TexturePayload) {
	if payload.Texture == metadata.InvalidTexture || payload.Texture == ts.placeholder || ts.backend == nil {
		return
	}
	ts.backend.TextureDestroy(payload.Texture)
}

// Shutdown stops the workers and releases the placeholder.
func (ts *TextureSystem) Shutdown() error {
	err := ts.jobs.Shutdown()
	if ts.placeholder != metadata.InvalidTexture && ts.backend != nil {
		ts.backend.TextureDestroy(ts.placeholder)
		ts.placeholder = metadata.InvalidTexture
	}
	return err
}
