package core

import (
	"errors"
)

var (
	// ErrDuplicatePath is returned when an asset is created for a path that is already registered.
	ErrDuplicatePath = errors.New("duplicate asset path")
	// ErrDuplicateID is returned when a GUID is already owned by another live asset (copied sidecar).
	ErrDuplicateID = errors.New("duplicate asset id")
	// ErrStaleHandle is returned when a handle's generation no longer matches its slot.
	ErrStaleHandle = errors.New("stale asset handle")
	// ErrMetadataCorrupt is returned when a sidecar exists but is not valid JSON or has no guid.
	ErrMetadataCorrupt = errors.New("asset metadata corrupt")
	// ErrWatchSetupFailed is returned when the OS file watch cannot be established.
	ErrWatchSetupFailed = errors.New("directory watch setup failed")
	ErrFileNotFound     = errors.New("file not found")
	ErrParseError       = errors.New("parse error")
	ErrImportError      = errors.New("import error")
	// ErrGraphicsAPIUnset is returned when a GPU operation is requested without a backend.
	ErrGraphicsAPIUnset = errors.New("graphics api unset")
	ErrAssetNotFound    = errors.New("asset not found")
	ErrKindMismatch     = errors.New("asset kind mismatch")
	ErrQueueClosed      = errors.New("queue closed")
	// ErrShaderCompile is returned when at least one stage of a program fails to compile or link.
	ErrShaderCompile = errors.New("shader compile failed")
)
