// Package heartdata loads the sample HiP-CT heart volume bundled with
// this repository and provides the small filesystem helpers the book
// chapters use alongside it.
//
// The dataset is a zarr v2 store at data/hoa_heart.zarr, next to this
// package's source. Its location is fixed; regenerate it with
// cmd/mkheartdata.
package heartdata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/hoa-vis/heartslice/volume"
	"github.com/hoa-vis/heartslice/zarr"
)

var (
	// ErrNotFound means the dataset is absent from its expected path.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument means a caller-supplied value is unusable: an
	// unrecognized load mode, or a lister path that is not a directory.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Mode selects how Load returns the dataset.
type Mode string

const (
	// ModeEager materializes the whole volume into memory.
	ModeEager Mode = "eager"
	// ModeLazy returns the store handle itself; chunk data is read only
	// when the volume is sliced or materialized by the caller.
	ModeLazy Mode = "lazy"
)

const datasetName = "hoa_heart.zarr"

// DataPath returns the fixed dataset location: data/hoa_heart.zarr next
// to this package's source directory.
func DataPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "data", datasetName)
}

// Load opens the bundled heart volume. ModeEager returns a fully
// materialized grid, ModeLazy the lazily-backed array handle; both
// satisfy volume.Volume. The dataset is never written or cached.
func Load(mode Mode) (volume.Volume, error) {
	return load(DataPath(), mode)
}

func load(path string, mode Mode) (volume.Volume, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s does not exist", ErrNotFound, path)
	}

	store, err := zarr.NewLocalStore(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	arr, err := zarr.Open(store, filepath.Base(path), zarr.ModeRead)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeEager:
		return arr.Read()
	case ModeLazy:
		return arr, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized load mode %q", ErrInvalidArgument, mode)
	}
}

// Contents returns the sorted names of the immediate children of dir,
// files and subdirectories alike, recomputed on every call.
func Contents(dir string) ([]string, error) {
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidArgument, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
