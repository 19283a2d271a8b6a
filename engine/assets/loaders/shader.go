package loaders

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spaghettifunk/delta/engine/core"
)

type ShaderLoader struct{}

// LoadSource reads the text of a shader source file.
func (sl *ShaderLoader) LoadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", core.ErrFileNotFound, path)
		}
		return "", err
	}
	return string(data), nil
}
