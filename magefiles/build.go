//go:build mage

package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderStages = map[string]bool{
	".vert": true, ".frag": true, ".geom": true,
	".comp": true, ".tesc": true, ".tese": true,
}

// Compiles every GLSL source in the project's asset tree to SPIR-V next to it.
func (Build) Shaders() error {
	if err := requireTool("glslc", "install the Vulkan SDK or shaderc"); err != nil {
		return err
	}
	root, err := projectAssets()
	if err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if !shaderStages[ext] {
			return nil
		}
		// run from the shader's directory so #include resolves against it
		name := filepath.Base(path)
		out := strings.TrimSuffix(name, ext) + "." + ext[1:] + ".spv"
		_, err = run("glslc", withArgs(name, "-o", out), withDir(filepath.Dir(path)), withStream())
		return err
	})
}

// Builds the delta binary into bin/.
func (Build) Cli() error {
	if _, err := run("go", withArgs("build", "-o", "bin/delta", "."), withEnv("CGO_ENABLED=0"), withStream()); err != nil {
		return fmt.Errorf("build cli: %w", err)
	}
	return nil
}
