package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/joba14/lasm/tools/pkg/procrun"
)

// stamp records what the current executable was built from.
type stamp struct {
	SourceSha256 string   `json:"source_sha256"`
	Compiler     []string `json:"compiler"`
}

func hashFile(path string) (string, error) {
	handle, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to open %s", path)
	}
	defer handle.Close()

	hasher := sha256.New()
	_, err = io.Copy(hasher, handle)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to hash %s", path)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func currentStamp(l Layout, invocation procrun.Command) (stamp, error) {
	digest, err := hashFile(l.SourcePath())
	if err != nil {
		return stamp{}, err
	}

	return stamp{SourceSha256: digest, Compiler: invocation.Argv()}, nil
}

func writeStamp(l Layout, invocation procrun.Command) error {
	st, err := currentStamp(l, invocation)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return eris.Wrap(err, "Failed to encode stamp")
	}

	err = os.WriteFile(l.StampPath(), data, 0o644)
	if err != nil {
		return eris.Wrapf(err, "Failed to write stamp %s", l.StampPath())
	}
	return nil
}

// stampMatches reports whether the recorded stamp equals the current source and compiler invocation.
// A missing or unreadable stamp counts as a mismatch.
func stampMatches(l Layout, invocation procrun.Command) (bool, error) {
	data, err := os.ReadFile(l.StampPath())
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, eris.Wrapf(err, "Failed to read stamp %s", l.StampPath())
	}

	var recorded stamp
	if json.Unmarshal(data, &recorded) != nil {
		return false, nil
	}

	want, err := currentStamp(l, invocation)
	if err != nil {
		return false, err
	}

	if recorded.SourceSha256 != want.SourceSha256 || len(recorded.Compiler) != len(want.Compiler) {
		return false, nil
	}
	for idx := range want.Compiler {
		if recorded.Compiler[idx] != want.Compiler[idx] {
			return false, nil
		}
	}
	return true, nil
}
