package migrator

import (
	"fmt"
	"path/filepath"
	"strings"
)

// sourceURL превращает путь к каталогу в URL источника file://.
func sourceURL(path string) (string, error) {
	if strings.HasPrefix(path, "file://") {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve migrations path %q: %w", path, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}
