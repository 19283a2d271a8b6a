package assets

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/spaghettifunk/delta/engine/assets/registry"
	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

// loadMaterial (re)reads a .dmat. Values written in the file win; values the
// user set before survive for identifiers the file does not mention, as long
// as the shader still declares them with the same type.
func (db *AssetDatabase) loadMaterial(e *registry.AssetEntry) error {
	doc, err := db.materials.Load(e.Path)
	if err != nil {
		return err
	}
	sources := make(map[metadata.ShaderStage]string, len(doc.Sources))
	for stage, src := range doc.Sources {
		sources[stage] = db.resolve(src)
	}

	prev, _ := e.Payload.(*registry.MaterialPayload)
	shader := metadata.InvalidShader
	if prev != nil && prev.Shader != metadata.InvalidShader {
		shader = prev.Shader
		if err := db.shaders.SetSources(shader, sources); err != nil {
			shader = metadata.InvalidShader
		} else if err := db.shaders.Compile(shader); err != nil {
			db.logger.Warn("material shader failed to compile", "material", e.Path, "err", err)
		}
	}
	if shader == metadata.InvalidShader {
		shader, err = db.shaders.Create(doc.Name, sources)
		if err != nil {
			db.logger.Warn("material shader failed to compile", "material", e.Path, "err", err)
		}
	}
	program, _ := db.shaders.Get(shader)

	mp := &registry.MaterialPayload{
		Name:     doc.Name,
		Shader:   shader,
		Sources:  sources,
		UserSet:  map[string]struct{}{},
		Textures: map[string]registry.Reference[*registry.TexturePayload]{},
	}
	if program == nil || program.Generation == 0 {
		// never compiled: nothing to shape the parameters by, keep the file
		mp.Parameters = doc.Parameters.Clone()
		for name := range doc.Parameters {
			mp.UserSet[name] = struct{}{}
		}
	} else {
		var old metadata.ParameterCollection
		if prev != nil {
			old = prev.Parameters
			for name := range prev.UserSet {
				mp.UserSet[name] = struct{}{}
			}
		}
		mp.Parameters = old.Rebuild(program.Uniforms)
		for name, p := range doc.Parameters {
			cur, ok := mp.Parameters[name]
			if !ok || cur.Type != p.Type {
				db.logger.Debug("material parameter not declared by shader", "material", e.Path, "parameter", name)
				continue
			}
			mp.Parameters[name] = p
			mp.UserSet[name] = struct{}{}
		}
		pruneUserSet(mp)
	}
	db.resolveTextures(mp)

	e.Payload = mp
	db.shaders.Watch(e.Handle, shader, sources)
	return nil
}

func pruneUserSet(mp *registry.MaterialPayload) {
	for name := range mp.UserSet {
		if _, ok := mp.Parameters[name]; !ok {
			delete(mp.UserSet, name)
		}
	}
}

// resolveTextures binds texture parameters to the registry entries their
// GUIDs name.
func (db *AssetDatabase) resolveTextures(mp *registry.MaterialPayload) {
	mp.Textures = map[string]registry.Reference[*registry.TexturePayload]{}
	for name, p := range mp.Parameters {
		if p.Type != metadata.ParameterTypeTexture || p.Texture == uuid.Nil {
			continue
		}
		h, ok := db.registry.FindById(p.Texture)
		if !ok {
			db.logger.Debug("texture parameter names an unknown asset", "parameter", name, "id", p.Texture)
			continue
		}
		ref, err := registry.NewReference[*registry.TexturePayload](db.registry, h)
		if err != nil {
			db.logger.Debug("texture parameter names a non texture", "parameter", name, "err", err)
			continue
		}
		mp.Textures[name] = ref
	}
}

// applyRecompiles reshapes the parameters of every material whose program was
// rebuilt: values survive where name and type still match.
func (db *AssetDatabase) applyRecompiles(handles []metadata.ShaderHandle) {
	for _, sh := range handles {
		program, ok := db.shaders.Get(sh)
		if !ok || !program.IsCompiled() {
			continue
		}
		for _, mh := range db.shaders.MaterialsUsing(sh) {
			e, err := db.registry.Get(mh)
			if err != nil {
				db.shaders.Unwatch(mh)
				continue
			}
			mp, ok := e.Payload.(*registry.MaterialPayload)
			if !ok {
				continue
			}
			mp.Parameters = mp.Parameters.Rebuild(program.Uniforms)
			pruneUserSet(mp)
			db.resolveTextures(mp)
		}
	}
}

// SetParameter changes a material parameter. The shader must declare it with
// the same type.
func (db *AssetDatabase) SetParameter(h registry.Handle, p metadata.Parameter) error {
	e, err := db.registry.Get(h)
	if err != nil {
		return err
	}
	payload, ok := e.Payload.(*registry.MaterialPayload)
	if !ok {
		return fmt.Errorf("%w: %s is not a material", core.ErrKindMismatch, e.Path)
	}
	if metadata.IsReservedParameter(p.Name) {
		return fmt.Errorf("%w: %s is reserved", core.ErrKindMismatch, p.Name)
	}
	cur, ok := payload.Parameters[p.Name]
	if !ok {
		return fmt.Errorf("%w: parameter %s", core.ErrAssetNotFound, p.Name)
	}
	if cur.Type != p.Type {
		return fmt.Errorf("%w: parameter %s is %s, not %s", core.ErrKindMismatch, p.Name, cur.Type, p.Type)
	}
	payload.Parameters[p.Name] = p
	payload.UserSet[p.Name] = struct{}{}
	if p.Type == metadata.ParameterTypeTexture {
		db.resolveTextures(payload)
	}
	return nil
}

// SaveMaterial writes the material behind h back to its .dmat file.
func (db *AssetDatabase) SaveMaterial(h registry.Handle) error {
	e, err := db.registry.Get(h)
	if err != nil {
		return err
	}
	mp, ok := e.Payload.(*registry.MaterialPayload)
	if !ok {
		return fmt.Errorf("%w: %s is not a material", core.ErrKindMismatch, e.Path)
	}
	doc := &metadata.MaterialDocument{
		Name:       mp.Name,
		Sources:    map[metadata.ShaderStage]string{},
		Parameters: mp.Parameters.Clone(),
	}
	for stage, src := range mp.Sources {
		rel, err := filepath.Rel(db.root, src)
		if err != nil {
			rel = src
		}
		doc.Sources[stage] = filepath.ToSlash(rel)
	}
	if err := db.materials.Save(doc, e.Path); err != nil {
		return err
	}
	// our own write must not come back as a reload
	if err := db.fingerprints.Record(e.Path); err != nil {
		db.logger.Debug("cannot fingerprint", "path", e.Path, "err", err)
	}
	return nil
}
