package metadata

import "github.com/spaghettifunk/delta/engine/math"

/**
 * @brief A node of a scene document. Asset references are GUID strings so the
 * document survives renames of the referenced files.
 */
type SceneNode struct {
	Name      string         `yaml:"name"`
	Model     string         `yaml:"model,omitempty"`
	Material  string         `yaml:"material,omitempty"`
	Transform math.Transform `yaml:"transform"`
	Children  []*SceneNode   `yaml:"children,omitempty"`
}

/** @brief Parsed .dscene document. */
type SceneDocument struct {
	Name  string       `yaml:"name"`
	Nodes []*SceneNode `yaml:"nodes"`
}

// References returns every asset GUID string referenced by the scene, in
// depth-first order, without duplicates.
func (s *SceneDocument) References() []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(ref string) {
		if ref == "" {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	var walk func(nodes []*SceneNode)
	walk = func(nodes []*SceneNode) {
		for _, n := range nodes {
			add(n.Model)
			add(n.Material)
			walk(n.Children)
		}
	}
	walk(s.Nodes)
	return out
}
