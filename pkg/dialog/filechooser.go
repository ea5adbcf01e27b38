package dialog

import (
	"path/filepath"
	"strings"
)

type FileChooserFlags int

const (
	FileMustExist FileChooserFlags = 1 << iota
	FileSave
	FileFolder
	FilePictures
	FileShowHidden
	FileMultiple
)

// Pattern describes a file filter.
type Pattern struct {
	Description string
	Extensions  []string
}

// ParsePatterns parses a semicolon separated list of glob patterns,
// like "*.png;*.jpg". Every pattern is described by itself.
func ParsePatterns(patterns string) []Pattern {
	var result []Pattern
	for _, p := range strings.Split(patterns, ";") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(p), ".")
		if ext == "" || ext == "*" {
			result = append(result, Pattern{Description: p})
			continue
		}
		result = append(result, Pattern{Description: p, Extensions: []string{ext}})
	}
	return result
}

// FileChooser describes a file selection dialog. After being shown
// the selected paths are available with Paths.
type FileChooser struct {
	dialog

	Title       string
	InitialPath string
	Patterns    []Pattern
	Flags       FileChooserFlags

	paths []string
}

func NewFileChooser(initialPath, title, patterns string, flags FileChooserFlags) *FileChooser {
	return &FileChooser{
		Title:       title,
		InitialPath: initialPath,
		Patterns:    ParsePatterns(patterns),
		Flags:       flags,
	}
}

func (fc *FileChooser) Is(flag FileChooserFlags) bool {
	return fc.Flags&flag != 0
}

// Paths returns the selected paths of the last showing.
func (fc *FileChooser) Paths() []string {
	return append([]string(nil), fc.paths...)
}

// Count returns the number of selected paths.
func (fc *FileChooser) Count() int {
	return len(fc.paths)
}
