package loaders

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/math"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

type SceneLoader struct{}

// Load parses a .dscene document.
func (sl *SceneLoader) Load(path string) (*metadata.SceneDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrFileNotFound, path)
		}
		return nil, err
	}
	doc := &metadata.SceneDocument{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrParseError, path, err)
	}
	defaultTransforms(doc.Nodes)
	return doc, nil
}

// defaultTransforms fills in rotation and scale the file left out.
func defaultTransforms(nodes []*metadata.SceneNode) {
	identity := math.NewTransform()
	for _, n := range nodes {
		if n.Transform.Rotation == (math.Quaternion{}) {
			n.Transform.Rotation = identity.Rotation
		}
		if n.Transform.Scale == (math.Vec3{}) {
			n.Transform.Scale = identity.Scale
		}
		defaultTransforms(n.Children)
	}
}

func (sl *SceneLoader) Save(doc *metadata.SceneDocument, path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
