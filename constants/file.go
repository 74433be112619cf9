package constants

import (
	"path/filepath"
	"strings"
)

// AllowedExtensions holds the media extensions the watcher will pick up.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExt reports whether a normalized extension is a supported media type.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[ext]
	return ok
}

// IsHidden reports whether the path's base name marks a hidden or
// system-generated entry (dotfiles, synced-folder placeholders).
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~")
}
