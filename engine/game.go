package engine

import (
	"github.com/spaghettifunk/delta/engine/assets"
)

// Hooks lets a front end follow the editor session. Every field is optional.
type Hooks struct {
	FnInitialize OnInitialize
	FnTick       OnTick
	FnShutdown   OnShutdown
}

// OnInitialize runs once the database has scanned the project.
type OnInitialize func(db *assets.AssetDatabase, report *assets.Report) error

// OnTick runs after every tick that did some work.
type OnTick func(stats assets.TickStats)

type OnShutdown func() error
