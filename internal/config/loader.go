package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	clog "github.com/charmbracelet/log"
)

// envConfigPath, when set, is appended as the highest-priority config file.
const envConfigPath = "PULLMAN_CONFIG"

// LoadResult is the merged config plus the files that contributed to it.
type LoadResult struct {
	Config      Config
	SourcePaths []string // successfully loaded paths, in order applied
}

// FileSystem abstracts the existence check so loading is testable.
type FileSystem interface {
	// Exists returns true if the path exists and is a file (not a directory).
	Exists(path string) bool
}

// OSFileSystem implements FileSystem using the real OS.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Loader merges config files over the defaults.
type Loader struct {
	fs  FileSystem
	log *clog.Logger
}

// NewLoader creates a Loader with the given FileSystem.
func NewLoader(fs FileSystem) *Loader {
	return &Loader{
		fs:  fs,
		log: clog.Default().WithPrefix("config"),
	}
}

// NewDefaultLoader creates a Loader that uses the real OS file system.
func NewDefaultLoader() *Loader {
	return NewLoader(OSFileSystem{})
}

// Load decodes each existing file over the defaults, lowest priority first,
// so later files override earlier ones. A PULLMAN_CONFIG env var adds one
// final highest-priority file. Missing files are skipped silently; the
// merged result must pass Validate.
func (l *Loader) Load(paths []string) (LoadResult, error) {
	cfg := DefaultConfig()
	var sourcePaths []string

	if override := os.Getenv(envConfigPath); override != "" {
		paths = append(paths, override)
	}

	for _, path := range paths {
		if !l.fs.Exists(path) {
			continue
		}

		metadata, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return LoadResult{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
			l.log.Warn("unknown config keys", "path", path, "keys", undecoded)
		}

		sourcePaths = append(sourcePaths, path)
	}

	if err := cfg.Validate(); err != nil {
		return LoadResult{}, fmt.Errorf("invalid config: %w", err)
	}

	return LoadResult{
		Config:      cfg,
		SourcePaths: sourcePaths,
	}, nil
}
