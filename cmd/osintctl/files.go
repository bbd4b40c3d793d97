package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/osintdesk/internal/core"
)

// expandPaths replaces each directory argument with the supported database
// files directly inside it, in name order. Subdirectories are not visited.
// Plain file arguments are kept even when their extension is unsupported so
// they are reported as rejected.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if _, err := core.DetectKind(entry.Name()); err != nil {
				continue
			}
			paths = append(paths, filepath.Join(arg, entry.Name()))
		}
	}
	return paths, nil
}

// openFiles opens every path as a FileInput. A file that cannot be opened
// is passed on without a reader and fails during ingestion.
func openFiles(paths []string) ([]core.FileInput, func()) {
	var opened []*os.File
	inputs := make([]core.FileInput, 0, len(paths))
	for _, p := range paths {
		in := core.FileInput{Name: filepath.Base(p), Size: -1}
		if f, err := os.Open(p); err == nil {
			opened = append(opened, f)
			in.Reader = f
			if st, err := f.Stat(); err == nil {
				in.Size = st.Size()
			}
		}
		inputs = append(inputs, in)
	}
	return inputs, func() {
		for _, f := range opened {
			f.Close()
		}
	}
}
