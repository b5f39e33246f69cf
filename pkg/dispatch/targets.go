package dispatch

import (
	"fmt"
	"strings"
)

// Variant is a build configuration understood by the build system.
type Variant int

const (
	// Release is the optimized configuration and the default.
	Release Variant = iota
	// Debug builds with debug info and without optimizations.
	Debug
)

var variantNames = [...]string{
	Release: "release",
	Debug:   "debug",
}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// Variants lists all valid variants, the default first.
func Variants() []Variant {
	return []Variant{Release, Debug}
}

// VariantNames returns the names accepted by ParseVariant.
func VariantNames() []string {
	names := make([]string, len(variantNames))
	copy(names, variantNames[:])
	return names
}

// ValidationError is returned for configuration names outside the allow-list.
type ValidationError struct {
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("build configuration must be one of [%s], got %q", strings.Join(VariantNames(), ", "), e.Value)
}

// ParseVariant converts a configuration name into a Variant. Names are matched exactly.
func ParseVariant(name string) (Variant, error) {
	for idx, known := range variantNames {
		if name == known {
			return Variant(idx), nil
		}
	}
	return 0, &ValidationError{Value: name}
}

// Target is a subcommand of the bootstrapped build system.
type Target int

const (
	TargetClean Target = iota
	TargetBuildRelease
	TargetBuildDebug
	TargetDocs
	TargetLintRelease
	TargetLintDebug
	TargetRunRelease
	TargetRunDebug
	TargetAll
)

var targetNames = [...]string{
	TargetClean:        "clean",
	TargetBuildRelease: "build_release",
	TargetBuildDebug:   "build_debug",
	TargetDocs:         "docs",
	TargetLintRelease:  "lint_release",
	TargetLintDebug:    "lint_debug",
	TargetRunRelease:   "run_release",
	TargetRunDebug:     "run_debug",
	TargetAll:          "all",
}

// String returns the argument passed to the build system.
func (t Target) String() string {
	if t < 0 || int(t) >= len(targetNames) {
		return fmt.Sprintf("Target(%d)", int(t))
	}
	return targetNames[t]
}

// Valid reports whether t is one of the declared targets.
func (t Target) Valid() bool {
	return t >= 0 && int(t) < len(targetNames)
}

// BuildTarget returns the build target for v.
func BuildTarget(v Variant) Target {
	if v == Debug {
		return TargetBuildDebug
	}
	return TargetBuildRelease
}

// LintTarget returns the lint target for v.
func LintTarget(v Variant) Target {
	if v == Debug {
		return TargetLintDebug
	}
	return TargetLintRelease
}

// RunTarget returns the run target for v.
func RunTarget(v Variant) Target {
	if v == Debug {
		return TargetRunDebug
	}
	return TargetRunRelease
}
