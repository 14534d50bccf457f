// Package catalog discovers the image assets available to a run.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"storyvideo/internal/keywords"
	"storyvideo/internal/services"
)

// Extensions lists the raster formats recognized during discovery.
var Extensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"}

// Image is one discovered asset. Values are immutable after discovery.
type Image struct {
	Path     string   `json:"path"`
	Filename string   `json:"filename"`
	Keywords []string `json:"keywords"`
}

// IsImage reports whether name carries a recognized extension.
func IsImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range Extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// Discover walks dir recursively and returns every image sorted by file name
// (path breaks ties). A missing directory is ErrNotFound; a path that is not a
// directory is ErrValidation. An empty result is not an error.
func Discover(ctx context.Context, dir string, extractor *keywords.Extractor) ([]Image, error) {
	if extractor == nil {
		extractor = keywords.New(keywords.DefaultLanguage)
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "catalog", "discover", fmt.Sprintf("images directory %q does not exist", dir), nil)
		}
		return nil, services.Wrap(services.ErrValidation, "catalog", "discover", "stat images directory", err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "catalog", "discover", fmt.Sprintf("%q is not a directory", dir), nil)
	}

	var images []Image
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !IsImage(entry.Name()) || !isRegularFile(path, entry) {
			return nil
		}
		images = append(images, Image{
			Path:     path,
			Filename: entry.Name(),
			Keywords: extractor.Extract(entry.Name()),
		})
		return nil
	})
	if err != nil {
		if services.IsCanceled(err) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrValidation, "catalog", "discover", "walk images directory", err)
	}

	sort.SliceStable(images, func(i, j int) bool {
		if images[i].Filename != images[j].Filename {
			return images[i].Filename < images[j].Filename
		}
		return images[i].Path < images[j].Path
	})
	return images, nil
}

// isRegularFile follows symlinks; dangling links are skipped.
func isRegularFile(path string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
