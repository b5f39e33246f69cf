package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joba14/lasm/tools/pkg/procrun"
	"github.com/joba14/lasm/tools/pkg/procrun/proctest"
)

// fakeCompiler writes the -o target like a real compiler would and exits with code.
func fakeCompiler(t *testing.T, code int) proctest.Handler {
	return func(cmd procrun.Command) (string, procrun.Result) {
		for idx, arg := range cmd.Args {
			if arg == "-o" && idx+1 < len(cmd.Args) {
				require.NoError(t, os.WriteFile(cmd.Args[idx+1], []byte("partial"), 0o644))
			}
		}
		return "", procrun.Result{Code: code}
	}
}

func newProject(t *testing.T) Layout {
	t.Helper()
	layout := DefaultLayout(t.TempDir())
	require.NoError(t, os.WriteFile(layout.SourcePath(), []byte("int main(void) { return 0; }\n"), 0o644))
	return layout
}

func TestEnsureCompilesMissingExecutable(t *testing.T) {
	layout := newProject(t)
	rec := proctest.NewRecorder().On("gcc", fakeCompiler(t, 0))

	err := New(layout, rec).Ensure(context.Background())
	require.NoError(t, err)

	require.Len(t, rec.Calls, 1)
	assert.Equal(t, []string{
		"gcc", "-std=gnu11", "-Wall", "-Wextra", "-Werror",
		"-o", filepath.Join(layout.Root, "build.bin"), filepath.Join(layout.Root, "build.c"),
	}, rec.Calls[0].Argv())
	assert.Equal(t, layout.Root, rec.Calls[0].Dir)

	info, err := os.Stat(layout.BinaryPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestEnsureIsIdempotent(t *testing.T) {
	layout := newProject(t)
	require.NoError(t, os.WriteFile(layout.BinaryPath(), []byte("bin"), 0o755))
	rec := proctest.NewRecorder()

	require.NoError(t, New(layout, rec).Ensure(context.Background()))
	require.NoError(t, New(layout, rec).Ensure(context.Background()))
	assert.Empty(t, rec.Calls)
}

func TestEnsureRemovesBackupBeforeCompiling(t *testing.T) {
	layout := newProject(t)
	require.NoError(t, os.WriteFile(layout.BackupPath(), []byte("old"), 0o755))

	backupSeen := true
	rec := proctest.NewRecorder().On("gcc", func(cmd procrun.Command) (string, procrun.Result) {
		_, err := os.Stat(layout.BackupPath())
		backupSeen = err == nil
		return fakeCompiler(t, 0)(cmd)
	})

	require.NoError(t, New(layout, rec).Ensure(context.Background()))
	assert.False(t, backupSeen, "backup must be gone when the compiler runs")
	assert.NoFileExists(t, layout.BackupPath())
}

func TestEnsureCompilerFailure(t *testing.T) {
	layout := newProject(t)
	rec := proctest.NewRecorder().On("gcc", fakeCompiler(t, 1))

	err := New(layout, rec).Ensure(context.Background())
	require.Error(t, err)

	var bootErr *Error
	require.True(t, errors.As(err, &bootErr))
	assert.Equal(t, 1, bootErr.Code)
	assert.NoFileExists(t, layout.BinaryPath())
}

func TestEnsureFailedRebuildKeepsExecutable(t *testing.T) {
	layout := newProject(t)
	require.NoError(t, os.WriteFile(layout.BinaryPath(), []byte("working"), 0o755))
	rec := proctest.NewRecorder().On("gcc", proctest.Exit(1))

	boot := New(layout, rec)
	boot.Force = true
	err := boot.Ensure(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"gcc"}, rec.Names())

	data, err := os.ReadFile(layout.BinaryPath())
	require.NoError(t, err)
	assert.Equal(t, "working", string(data))
}

func TestEnsureCompilerMissing(t *testing.T) {
	layout := newProject(t)
	rec := proctest.NewRecorder().On("gcc", func(procrun.Command) (string, procrun.Result) {
		return "", procrun.Result{Code: procrun.ExitFailure, Err: os.ErrNotExist}
	})

	err := New(layout, rec).Ensure(context.Background())
	require.Error(t, err)
	assert.NoFileExists(t, layout.BinaryPath())
}

func TestEnsureForceRebuilds(t *testing.T) {
	layout := newProject(t)
	require.NoError(t, os.WriteFile(layout.BinaryPath(), []byte("bin"), 0o755))
	rec := proctest.NewRecorder().On("gcc", fakeCompiler(t, 0))

	boot := New(layout, rec)
	boot.Force = true
	require.NoError(t, boot.Ensure(context.Background()))
	assert.Len(t, rec.Calls, 1)
}

func TestEnsureMtimePolicy(t *testing.T) {
	layout := newProject(t)
	require.NoError(t, os.WriteFile(layout.BinaryPath(), []byte("bin"), 0o755))
	rec := proctest.NewRecorder().On("gcc", fakeCompiler(t, 0))

	boot := New(layout, rec)
	boot.Policy = PolicyMtime

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(layout.SourcePath(), old, old))
	require.NoError(t, boot.Ensure(context.Background()))
	assert.Empty(t, rec.Calls, "binary newer than source")

	require.NoError(t, os.Chtimes(layout.BinaryPath(), old.Add(-time.Hour), old.Add(-time.Hour)))
	require.NoError(t, boot.Ensure(context.Background()))
	assert.Len(t, rec.Calls, 1, "source newer than binary")
}

func TestEnsureHashPolicy(t *testing.T) {
	layout := newProject(t)
	require.NoError(t, os.WriteFile(layout.BinaryPath(), []byte("bin"), 0o755))
	rec := proctest.NewRecorder().On("gcc", fakeCompiler(t, 0))

	boot := New(layout, rec)
	boot.Policy = PolicyHash

	// no stamp yet
	require.NoError(t, boot.Ensure(context.Background()))
	assert.Len(t, rec.Calls, 1)
	assert.FileExists(t, layout.StampPath())

	require.NoError(t, boot.Ensure(context.Background()))
	assert.Len(t, rec.Calls, 1)

	require.NoError(t, os.WriteFile(layout.SourcePath(), []byte("int main(void) { return 1; }\n"), 0o644))
	require.NoError(t, boot.Ensure(context.Background()))
	assert.Len(t, rec.Calls, 2)

	boot.Compiler.Flags = append(boot.Compiler.Flags, "-O2")
	require.NoError(t, boot.Ensure(context.Background()))
	assert.Len(t, rec.Calls, 3)
}

func TestEnsureDryRunTouchesNothing(t *testing.T) {
	layout := newProject(t)
	require.NoError(t, os.WriteFile(layout.BackupPath(), []byte("old"), 0o755))
	rec := proctest.NewRecorder()

	boot := New(layout, rec)
	boot.DryRun = true
	require.NoError(t, boot.Ensure(context.Background()))

	assert.Len(t, rec.Calls, 1)
	assert.FileExists(t, layout.BackupPath())
	assert.NoFileExists(t, layout.BinaryPath())
}

func TestLayoutKeepsAbsolutePaths(t *testing.T) {
	layout := DefaultLayout("/project")
	layout.Binary = "/opt/build.bin"

	assert.Equal(t, "/opt/build.bin", layout.BinaryPath())
	assert.Equal(t, filepath.Join("/project", "build.c"), layout.SourcePath())
}
