package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConsoleWriterFormatsLevels(t *testing.T) {
	var out bytes.Buffer
	logger := zerolog.New(NewConsoleWriter(&out))

	logger.Info().Msg("bootstrapping the build system.")
	logger.Warn().Msg("careful")
	logger.Error().Err(errors.New("boom")).Msg("failed")

	text := out.String()
	assert.Contains(t, text, "info : ")
	assert.Contains(t, text, "bootstrapping the build system.")
	assert.Contains(t, text, "warn : ")
	assert.Contains(t, text, "error: ")
	assert.Contains(t, text, "boom")
}

func TestConsoleWriterRejectsGarbage(t *testing.T) {
	w := NewConsoleWriter(&bytes.Buffer{})
	_, err := w.Write([]byte("not json"))
	assert.Error(t, err)
}
