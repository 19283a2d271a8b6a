//go:build mage

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/magefile/mage/mg"

	"github.com/spaghettifunk/delta/engine/core"
)

type runOptions struct {
	args   []string
	dir    string
	env    []string
	stream bool
}

type runOption func(*runOptions)

func withArgs(args ...string) runOption {
	return func(o *runOptions) {
		o.args = args
	}
}

// withDir runs the tool from dir, so paths in its arguments and output are
// relative to it.
func withDir(dir string) runOption {
	return func(o *runOptions) {
		o.dir = dir
	}
}

func withEnv(kv ...string) runOption {
	return func(o *runOptions) {
		o.env = append(o.env, kv...)
	}
}

func withStream() runOption {
	return func(o *runOptions) {
		o.stream = true
	}
}

// requireTool fails early with a hint when an external tool is not on PATH.
func requireTool(name, hint string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found on PATH: %s", name, hint)
	}
	return nil
}

// run executes a tool and returns its combined output. Output is echoed when
// streaming or when mage runs verbose; otherwise it is only printed on failure.
func run(tool string, options ...runOption) (string, error) {
	opts := &runOptions{}
	for _, o := range options {
		o(opts)
	}

	log.Info("run", "cmd", tool+" "+strings.Join(opts.args, " "), "dir", opts.dir)
	cmd := exec.Command(tool, opts.args...)
	cmd.Dir = opts.dir
	if len(opts.env) > 0 {
		cmd.Env = append(os.Environ(), opts.env...)
	}

	echo := mg.Verbose() || opts.stream
	var b bytes.Buffer
	if echo {
		cmd.Stdout = io.MultiWriter(&b, os.Stdout)
		cmd.Stderr = io.MultiWriter(&b, os.Stderr)
	} else {
		cmd.Stdout = &b
		cmd.Stderr = &b
	}
	if err := cmd.Run(); err != nil {
		if !echo {
			log.Error("command failed", "cmd", tool, "output", b.String())
		}
		return "", fmt.Errorf("%s: %w", tool, err)
	}
	return b.String(), nil
}

// projectAssets returns the asset directory named by the project config in
// the current directory.
func projectAssets() (string, error) {
	cfg, err := core.LoadConfig(core.DefaultConfigFile)
	if err != nil {
		return "", err
	}
	return filepath.Clean(cfg.Project.AssetDir), nil
}

// Tidies the module.
func Tidy() error {
	_, err := run("go", withArgs("mod", "tidy"))
	return err
}
