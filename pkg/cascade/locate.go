package cascade

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	FaceCascadeFile = "haarcascade_frontalface_default.xml"
	EyeCascadeFile  = "haarcascade_eye_tree_eyeglasses.xml"
)

// SearchDirs lists the directories Locate looks in, in order. FOCUS_CASCADE_DIR
// comes first when set, then ./assets, then the directories OpenCV packages
// install their bundled Haar cascades into.
func SearchDirs() []string {
	var dirs []string
	if dir := os.Getenv("FOCUS_CASCADE_DIR"); dir != "" {
		dirs = append(dirs, dir)
	}
	return append(dirs,
		"./assets",
		"/usr/local/share/opencv4/haarcascades",
		"/usr/share/opencv4/haarcascades",
		"/usr/local/share/opencv/haarcascades",
		"/usr/share/opencv/haarcascades",
	)
}

// Locate returns the first existing file called name in SearchDirs.
func Locate(name string) (string, error) {
	dirs := SearchDirs()
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s not found in %v", ErrCascadeNotLoaded, name, dirs)
}

// Resolve keeps an explicitly configured path and otherwise falls back to
// Locate.
func Resolve(path, name string) (string, error) {
	if path != "" {
		return path, nil
	}
	return Locate(name)
}
