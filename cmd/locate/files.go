package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var imageExts = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff", ".webp"}

// collect expands directories into the image files below them.
// Explicit file arguments are kept whatever their extension.
func collect(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isImage(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func isImage(path string) bool {
	return slices.Contains(imageExts, strings.ToLower(filepath.Ext(path)))
}

// sidecarText returns the OCR text stored next to an image as
// "<name>.txt" or "<image>.txt". A missing sidecar is not an error.
func sidecarText(image string) (string, error) {
	base := strings.TrimSuffix(image, filepath.Ext(image))
	for _, candidate := range []string{image + ".txt", base + ".txt"} {
		data, err := os.ReadFile(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", nil
}
