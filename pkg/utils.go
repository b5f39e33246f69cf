package pkg

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// RootMarker is the file that identifies the project root. It's the source of the build system.
const RootMarker = "build.c"

// GetProjectRoot walks upward from start until it finds a directory containing marker.
func GetProjectRoot(start, marker string) (string, error) {
	mypath, err := filepath.Abs(start)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to resolve %s", start)
	}

	for {
		markerPath := filepath.Join(mypath, marker)
		_, err := os.Stat(markerPath)
		if err == nil {
			return mypath, nil
		}

		if !eris.Is(err, os.ErrNotExist) {
			return "", eris.Wrap(err, "Error ocurred while searching for project root")
		}

		nextPath := filepath.Dir(mypath)
		if mypath == nextPath {
			break
		}
		mypath = nextPath
	}

	return "", eris.Errorf("Project root not found (no %s in %s or any parent directory)", marker, start)
}

// ResolveProjectRoot returns explicit if it's set and otherwise searches upwards from the working directory.
func ResolveProjectRoot(explicit, marker string) (string, error) {
	if explicit != "" {
		root, err := filepath.Abs(explicit)
		if err != nil {
			return "", eris.Wrapf(err, "Failed to resolve %s", explicit)
		}

		info, err := os.Stat(root)
		if err != nil {
			return "", eris.Wrapf(err, "Could not find project root %s", root)
		}

		if !info.IsDir() {
			return "", eris.Errorf("%s is not a directory!", root)
		}

		return root, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", eris.Wrap(err, "Failed to retrieve the current working directory")
	}

	return GetProjectRoot(wd, marker)
}
