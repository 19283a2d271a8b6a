// Package shaders owns the compiled shader programs of materials and the
// watch map from shader source files to the materials built from them.
package shaders

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/spaghettifunk/delta/engine/assets/registry"
	"github.com/spaghettifunk/delta/engine/core"
	"github.com/spaghettifunk/delta/engine/renderer"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

/** @brief Returns the current text of a shader source file. */
type SourceReader func(path string) (string, error)

/** @brief A program built from one source file per stage. */
type ShaderProgram struct {
	Handle metadata.ShaderHandle
	Name   string
	/** @brief Stage -> absolute source path. */
	Sources map[metadata.ShaderStage]string
	/** @brief Compiler output of the last attempt, per stage. Empty on a clean compile. */
	Logs map[metadata.ShaderStage]string
	/** @brief Whether the last compile attempt succeeded. */
	Compiled bool
	/** @brief Program bound for rendering. Survives failed recompiles. */
	Program metadata.ProgramHandle
	/** @brief Parameters the bound program exposes. */
	Uniforms []metadata.ParameterSpec
	/** @brief Number of successful compiles. */
	Generation uint32
	/** @brief Number of compile attempts. */
	Attempts int
}

func (sp *ShaderProgram) IsCompiled() bool {
	return sp.Compiled && sp.Program != metadata.InvalidProgram
}

// Log returns the compiler output of one stage.
func (sp *ShaderProgram) Log(stage metadata.ShaderStage) string {
	return sp.Logs[stage]
}

type watch struct {
	shader  metadata.ShaderHandle
	sources []string
}

/**
 * @brief Shader program table plus the source -> material dependency map.
 * Not safe for concurrent use; it lives on the main loop next to the registry.
 */
type Library struct {
	logger   *log.Logger
	backend  renderer.Backend
	compiler Compiler
	read     SourceReader

	next     metadata.ShaderHandle
	programs map[metadata.ShaderHandle]*ShaderProgram
	pending  map[metadata.ShaderHandle]struct{}

	watches   map[string]map[registry.Handle]struct{}
	materials map[registry.Handle]watch
}

func NewLibrary(backend renderer.Backend, compiler Compiler, read SourceReader, logger *log.Logger) *Library {
	if compiler == nil {
		compiler = SyntaxCompiler{}
	}
	return &Library{
		logger:    core.LoggerOrDefault(logger).WithPrefix("shaders"),
		backend:   backend,
		compiler:  compiler,
		read:      read,
		programs:  map[metadata.ShaderHandle]*ShaderProgram{},
		pending:   map[metadata.ShaderHandle]struct{}{},
		watches:   map[string]map[registry.Handle]struct{}{},
		materials: map[registry.Handle]watch{},
	}
}

// Create registers a program for sources and compiles it. The handle is valid
// even when compilation fails; the error describes the failure.
func (l *Library) Create(name string, sources map[metadata.ShaderStage]string) (metadata.ShaderHandle, error) {
	l.next++
	h := l.next
	p := &ShaderProgram{
		Handle:  h,
		Name:    name,
		Sources: map[metadata.ShaderStage]string{},
		Logs:    map[metadata.ShaderStage]string{},
	}
	for stage, src := range sources {
		p.Sources[stage] = src
	}
	l.programs[h] = p
	return h, l.Compile(h)
}

func (l *Library) Get(h metadata.ShaderHandle) (*ShaderProgram, bool) {
	p, ok := l.programs[h]
	return p, ok
}

// SetSources replaces the sources of a program. It is compiled on the next
// Recompile.
func (l *Library) SetSources(h metadata.ShaderHandle, sources map[metadata.ShaderStage]string) error {
	p, ok := l.programs[h]
	if !ok {
		return fmt.Errorf("%w: shader %d", core.ErrAssetNotFound, h)
	}
	p.Sources = map[metadata.ShaderStage]string{}
	for stage, src := range sources {
		p.Sources[stage] = src
	}
	l.MarkForRecompilation(h)
	return nil
}

// Destroy releases the program and forgets any pending recompile.
func (l *Library) Destroy(h metadata.ShaderHandle) {
	p, ok := l.programs[h]
	if !ok {
		return
	}
	if p.Program != metadata.InvalidProgram && l.backend != nil {
		l.backend.ProgramDestroy(p.Program)
	}
	delete(l.programs, h)
	delete(l.pending, h)
}

// MarkForRecompilation queues h for the next Recompile. Marking twice is the
// same as marking once.
func (l *Library) MarkForRecompilation(h metadata.ShaderHandle) {
	if _, ok := l.programs[h]; ok {
		l.pending[h] = struct{}{}
	}
}

func (l *Library) IsPending(h metadata.ShaderHandle) bool {
	_, ok := l.pending[h]
	return ok
}

// Recompile compiles every pending program once and clears the pending set. A
// failing program does not stop the others. The handles are returned in
// ascending order.
func (l *Library) Recompile() []metadata.ShaderHandle {
	if len(l.pending) == 0 {
		return nil
	}
	handles := make([]metadata.ShaderHandle, 0, len(l.pending))
	for h := range l.pending {
		handles = append(handles, h)
	}
	l.pending = map[metadata.ShaderHandle]struct{}{}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	for _, h := range handles {
		if err := l.Compile(h); err != nil {
			l.logger.Warn("recompile failed", "shader", l.programs[h].Name, "err", err)
			continue
		}
		l.logger.Info("recompiled", "shader", l.programs[h].Name)
	}
	return handles
}

// Compile builds h from its sources now and settles any pending recompile of
// h. On failure the previously linked program stays bound and the per-stage
// logs say why.
func (l *Library) Compile(h metadata.ShaderHandle) error {
	p, ok := l.programs[h]
	if !ok {
		return fmt.Errorf("%w: shader %d", core.ErrAssetNotFound, h)
	}
	delete(l.pending, h)
	p.Attempts++
	p.Logs = map[metadata.ShaderStage]string{}
	if l.backend == nil {
		p.Compiled = false
		return fmt.Errorf("%w: cannot build %s", core.ErrGraphicsAPIUnset, p.Name)
	}

	binaries := map[metadata.ShaderStage][]byte{}
	var uniforms [][]metadata.ParameterSpec
	var failed []string
	for _, stage := range metadata.ShaderStages {
		path, ok := p.Sources[stage]
		if !ok {
			continue
		}
		src, err := l.read(path)
		if err != nil {
			p.Logs[stage] = err.Error()
			failed = append(failed, stage.String())
			continue
		}
		bin, out, err := l.compiler.Compile(stage, path, src)
		if out != "" {
			p.Logs[stage] = out
		}
		if err != nil {
			if out == "" {
				p.Logs[stage] = err.Error()
			}
			failed = append(failed, stage.String())
			continue
		}
		binaries[stage] = bin
		uniforms = append(uniforms, ParseUniforms(src))
	}
	if len(binaries) == 0 && len(failed) == 0 {
		p.Compiled = false
		return fmt.Errorf("%w: %s has no stages", core.ErrShaderCompile, p.Name)
	}
	if len(failed) > 0 {
		p.Compiled = false
		return fmt.Errorf("%w: %s: %s", core.ErrShaderCompile, p.Name, strings.Join(failed, ", "))
	}

	program, err := l.backend.ProgramCreate(p.Name, binaries)
	if err != nil {
		p.Compiled = false
		for stage := range binaries {
			if p.Logs[stage] == "" {
				p.Logs[stage] = "link: " + err.Error()
			}
		}
		return fmt.Errorf("%w: %s: link: %v", core.ErrShaderCompile, p.Name, err)
	}
	if p.Program != metadata.InvalidProgram {
		l.backend.ProgramDestroy(p.Program)
	}
	p.Program = program
	p.Compiled = true
	p.Generation++
	p.Uniforms = mergeUniforms(uniforms...)
	return nil
}

// Watch records that material is rendered with shader, built from sources.
// Any previous watch of the material is replaced.
func (l *Library) Watch(material registry.Handle, shader metadata.ShaderHandle, sources map[metadata.ShaderStage]string) {
	l.Unwatch(material)
	w := watch{shader: shader}
	for _, src := range sources {
		set, ok := l.watches[src]
		if !ok {
			set = map[registry.Handle]struct{}{}
			l.watches[src] = set
		}
		set[material] = struct{}{}
		w.sources = append(w.sources, src)
	}
	l.materials[material] = w
}

// Unwatch drops every source dependency of material.
func (l *Library) Unwatch(material registry.Handle) {
	w, ok := l.materials[material]
	if !ok {
		return
	}
	for _, src := range w.sources {
		set := l.watches[src]
		delete(set, material)
		if len(set) == 0 {
			delete(l.watches, src)
		}
	}
	delete(l.materials, material)
}

// ShaderFor returns the program a watched material is rendered with.
func (l *Library) ShaderFor(material registry.Handle) (metadata.ShaderHandle, bool) {
	w, ok := l.materials[material]
	return w.shader, ok
}

// MaterialsFor returns the materials built from source, in handle order.
func (l *Library) MaterialsFor(source string) []registry.Handle {
	return sortedHandles(l.watches[source])
}

// MaterialsUsing returns the watched materials rendered with shader.
func (l *Library) MaterialsUsing(shader metadata.ShaderHandle) []registry.Handle {
	set := map[registry.Handle]struct{}{}
	for m, w := range l.materials {
		if w.shader == shader {
			set[m] = struct{}{}
		}
	}
	return sortedHandles(set)
}

// IsWatched reports whether any material depends on source.
func (l *Library) IsWatched(source string) bool {
	_, ok := l.watches[source]
	return ok
}

// OnSourceModified marks the programs of every material built from path for
// recompilation and returns those materials.
func (l *Library) OnSourceModified(path string) []registry.Handle {
	mats := l.MaterialsFor(path)
	for _, m := range mats {
		l.MarkForRecompilation(l.materials[m].shader)
	}
	return mats
}

// RenameSource rewrites every reference to a moved source file.
func (l *Library) RenameSource(from, to string) {
	if set, ok := l.watches[from]; ok {
		delete(l.watches, from)
		l.watches[to] = set
		for m := range set {
			w := l.materials[m]
			for i, src := range w.sources {
				if src == from {
					w.sources[i] = to
				}
			}
			l.materials[m] = w
		}
	}
	for _, p := range l.programs {
		for stage, src := range p.Sources {
			if src == from {
				p.Sources[stage] = to
			}
		}
	}
}

// Len returns the number of live programs.
func (l *Library) Len() int {
	return len(l.programs)
}

// Shutdown destroys every program.
func (l *Library) Shutdown() {
	for h := range l.programs {
		l.Destroy(h)
	}
}

func sortedHandles(set map[registry.Handle]struct{}) []registry.Handle {
	out := make([]registry.Handle, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Generation < out[j].Generation
	})
	return out
}
