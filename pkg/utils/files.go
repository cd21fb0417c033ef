package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// SourceExt is the conventional extension for stack-language programs.
const SourceExt = ".stk"

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}

// OutputPath replaces the extension of src with ext. If dir is non-empty the
// result is placed in dir instead of next to src.
func OutputPath(src, dir, ext string) string {
	out := strings.TrimSuffix(src, filepath.Ext(src)) + ext
	if dir != "" {
		out = filepath.Join(dir, filepath.Base(out))
	}
	return out
}

// ReadSource reads path and returns its absolute form with the contents.
func ReadSource(path string) (fullPath, src string, err error) {
	fullPath, _, err = GetPathInfo(path)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", "", err
	}
	return fullPath, string(data), nil
}
