package shaders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/spaghettifunk/delta/engine/assets/loaders"
	"github.com/spaghettifunk/delta/engine/renderer/metadata"
)

/**
 * @brief Turns the source of one stage into a binary the backend can link.
 * The returned log is kept even when compilation succeeds.
 */
type Compiler interface {
	Compile(stage metadata.ShaderStage, path, source string) (binary []byte, log string, err error)
}

// NewCompiler returns the compiler named in the project config.
func NewCompiler(name string) (Compiler, error) {
	switch name {
	case "", "none", "syntax":
		return SyntaxCompiler{}, nil
	case "glslc":
		return &GlslcCompiler{Binary: "glslc", Timeout: 30 * time.Second}, nil
	}
	return nil, fmt.Errorf("unknown shader compiler %q", name)
}

/**
 * @brief Validates sources without a toolchain: an entry point must exist and
 * brackets must balance. The source text itself is the binary.
 */
type SyntaxCompiler struct{}

func (SyntaxCompiler) Compile(stage metadata.ShaderStage, path, source string) ([]byte, string, error) {
	stripped := stripComments(source)
	if !strings.Contains(stripped, "main") {
		return nil, fmt.Sprintf("%s: error: %s stage has no main function", path, stage), errors.New("missing entry point")
	}
	depth := map[byte]int{}
	pairs := map[byte]byte{'}': '{', ')': '(', ']': '['}
	line := 1
	for i := 0; i < len(stripped); i++ {
		c := stripped[i]
		switch c {
		case '\n':
			line++
		case '{', '(', '[':
			depth[c]++
		case '}', ')', ']':
			open := pairs[c]
			depth[open]--
			if depth[open] < 0 {
				return nil, fmt.Sprintf("%s:%d: error: unexpected '%c'", path, line, c), errors.New("unbalanced brackets")
			}
		}
	}
	for open, d := range depth {
		if d != 0 {
			return nil, fmt.Sprintf("%s:%d: error: unterminated '%c'", path, line, open), errors.New("unbalanced brackets")
		}
	}
	return []byte(source), "", nil
}

var glslcStages = map[metadata.ShaderStage]string{
	metadata.ShaderStageVertex:         "vert",
	metadata.ShaderStageFragment:       "frag",
	metadata.ShaderStageGeometry:       "geom",
	metadata.ShaderStageTessControl:    "tesc",
	metadata.ShaderStageTessEvaluation: "tese",
	metadata.ShaderStageCompute:        "comp",
}

/** @brief Compiles GLSL to SPIR-V by running glslc. Stderr becomes the stage log. */
type GlslcCompiler struct {
	Binary  string
	Timeout time.Duration
}

func (gc *GlslcCompiler) Compile(stage metadata.ShaderStage, path, source string) ([]byte, string, error) {
	name, ok := glslcStages[stage]
	if !ok {
		return nil, "", fmt.Errorf("unsupported stage %s", stage)
	}
	ctx := context.Background()
	if gc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gc.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, gc.Binary, "-fshader-stage="+name, "-o", "-", "-")
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	// glslc reports "<stdin>" in its diagnostics
	log := strings.ReplaceAll(stderr.String(), "<stdin>", path)
	if err != nil {
		return nil, log, err
	}
	if _, err := loaders.BytesToBytecode(stdout.Bytes()); err != nil {
		return nil, log, err
	}
	return stdout.Bytes(), log, nil
}
