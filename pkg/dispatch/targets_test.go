package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("release")
	require.NoError(t, err)
	assert.Equal(t, Release, v)

	v, err = ParseVariant("debug")
	require.NoError(t, err)
	assert.Equal(t, Debug, v)

	for _, bad := range []string{"", "Release", "DEBUG", "profile", " debug"} {
		_, err := ParseVariant(bad)
		var valErr *ValidationError
		require.True(t, errors.As(err, &valErr), bad)
		assert.Equal(t, bad, valErr.Value)
	}
}

func TestValidationErrorNamesAllowedValues(t *testing.T) {
	_, err := ParseVariant("fast")
	assert.EqualError(t, err, `build configuration must be one of [release, debug], got "fast"`)
}

func TestTargetNames(t *testing.T) {
	cases := map[Target]string{
		TargetClean:          "clean",
		BuildTarget(Release): "build_release",
		BuildTarget(Debug):   "build_debug",
		TargetDocs:           "docs",
		LintTarget(Release):  "lint_release",
		LintTarget(Debug):    "lint_debug",
		RunTarget(Release):   "run_release",
		RunTarget(Debug):     "run_debug",
		TargetAll:            "all",
	}
	for target, name := range cases {
		assert.Equal(t, name, target.String())
		assert.True(t, target.Valid())
	}

	assert.False(t, Target(-1).Valid())
	assert.False(t, Target(len(targetNames)).Valid())
	assert.Equal(t, "Target(42)", Target(42).String())
}

func TestVariantsDefaultFirst(t *testing.T) {
	assert.Equal(t, []Variant{Release, Debug}, Variants())
	assert.Equal(t, []string{"release", "debug"}, VariantNames())
	assert.Equal(t, "Variant(7)", Variant(7).String())
}
