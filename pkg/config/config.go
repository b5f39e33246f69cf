package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// FileName is the config file looked up in the project root.
const FileName = "lasm-tools.toml"

// Staleness policies for the bootstrapped build binary
const (
	StaleNone  = "none"
	StaleMtime = "mtime"
	StaleHash  = "hash"
)

// Container command modes
const (
	ModeScript = "script"
	ModeTool   = "tool"
)

// Config describes all configuration options
type Config struct {
	Log struct {
		Level string `default:"info" usage:"Log level (debug, info, warn, error)"`
		JSON  bool   `default:"false" usage:"Output JSONND instead of pretty console messages"`
	}
	Paths struct {
		Source string `default:"build.c" usage:"Source file of the build system, relative to the project root"`
		Binary string `default:"build.bin" usage:"Bootstrapped build system executable"`
		Backup string `default:"build.bin.old" usage:"Stale backup of the executable, removed before bootstrapping"`
		Stamp  string `default:"build.bin.stamp" usage:"Stamp file used by the hash staleness policy"`
	}
	Compiler struct {
		Command string   `default:"gcc" usage:"C compiler used to bootstrap the build system"`
		Flags   []string `default:"-std=gnu11,-Wall,-Wextra,-Werror" usage:"Flags passed to the compiler before -o"`
	}
	Bootstrap struct {
		Stale string `default:"none" usage:"When to rebuild an existing executable (none, mtime or hash)"`
	}
	Container struct {
		Runtime    string `default:"docker" usage:"Container runtime CLI"`
		Image      string `default:"lasm_development_container_image:0.1" usage:"Image name and tag"`
		Definition string `default:".dockerfile" usage:"Image definition file, relative to the project root"`
		Name       string `default:"lasm_development_container" usage:"Container name"`
		UniqueName bool   `default:"true" usage:"Append a random suffix to the container name"`
		Mount      string `default:"/workspace" usage:"Path the project root is mounted at inside the container"`
		Shell      string `default:"/bin/bash" usage:"Shell used to run the command inside the container"`
		Mode       string `default:"script" usage:"How the command is run inside the container (script or tool)"`
		ScriptDir  string `default:"./scripts" usage:"Directory holding <command>.sh scripts (script mode)"`
		Tool       string `default:"./scripts/lasm-tools" usage:"Path of this tool inside the container (tool mode)"`
	}
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty config object and returns a new Loader for this object.
// If file is empty, lasm-tools.toml in projectRoot is used when it exists.
func Loader(projectRoot, file string) (*Config, *aconfig.Loader) {
	files := []string{}
	if file != "" {
		files = append(files, file)
	} else {
		defaultFile := filepath.Join(projectRoot, FileName)
		if _, err := os.Stat(defaultFile); err == nil {
			files = append(files, defaultFile)
		}
	}

	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "LASM",
		// LASM_ROOT and LASM_DEBUG are read by the CLI itself
		AllowUnknownEnvs: true,
		// cobra owns the command line
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load is a shorthand for Loader() followed by Load() and Validate().
func Load(projectRoot, file string) (*Config, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, eris.Wrapf(err, "Could not open config file %s", file)
		}
	}

	cfg, loader := Loader(projectRoot, file)
	if err := loader.Load(); err != nil {
		return nil, eris.Wrap(err, "Failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if _, ok := logLevels[strings.ToLower(cfg.Log.Level)]; !ok {
		return eris.Errorf(`Invalid value for log.level: %s`, cfg.Log.Level)
	}

	switch cfg.Bootstrap.Stale {
	case StaleNone, StaleMtime, StaleHash:
	default:
		return eris.Errorf(`Invalid value for bootstrap.stale: %s (must be one of none, mtime or hash)`, cfg.Bootstrap.Stale)
	}

	switch cfg.Container.Mode {
	case ModeScript, ModeTool:
	default:
		return eris.Errorf(`Invalid value for container.mode: %s (must be script or tool)`, cfg.Container.Mode)
	}

	required := map[string]string{
		"paths.source":         cfg.Paths.Source,
		"paths.binary":         cfg.Paths.Binary,
		"paths.backup":         cfg.Paths.Backup,
		"compiler.command":     cfg.Compiler.Command,
		"container.runtime":    cfg.Container.Runtime,
		"container.image":      cfg.Container.Image,
		"container.definition": cfg.Container.Definition,
		"container.mount":      cfg.Container.Mount,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return eris.Errorf(`%s must not be empty`, name)
		}
	}

	if cfg.Paths.Binary == cfg.Paths.Source {
		return eris.New(`paths.binary must differ from paths.source`)
	}

	if !strings.Contains(cfg.Container.Image, ":") {
		return eris.Errorf(`Invalid value for container.image: %s (expected name:tag)`, cfg.Container.Image)
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[strings.ToLower(cfg.Log.Level)]
}

// SetLogLevel overrides log.level, validating the value.
func (cfg *Config) SetLogLevel(level string) error {
	if _, ok := logLevels[strings.ToLower(level)]; !ok {
		return eris.Errorf(`Invalid log level: %s`, level)
	}

	cfg.Log.Level = level
	return nil
}
