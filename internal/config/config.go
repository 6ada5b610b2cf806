package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/chen-dev/chen/internal/errors"
	"github.com/chen-dev/chen/pkg/router"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "chen.json"

	// EnvPrefix prefixes environment overrides (CHEN_PAGES_DIR, ...).
	EnvPrefix = "CHEN"

	// DefaultPagesDir is the conventional pages root.
	DefaultPagesDir = "src/pages"

	// DefaultPort is the default development server port.
	DefaultPort = 3000

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultEntry is the default application entry point for builds.
	DefaultEntry = "src/main.tsx"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"
)

// DefaultExtensions are the page source extensions recognized by default.
var DefaultExtensions = router.DefaultExtensions

// Config represents the complete chen.json configuration.
type Config struct {
	// Name is the project name.
	Name string `mapstructure:"name" json:"name,omitempty"`

	// Pages selects the pages root and which files count as pages.
	Pages PagesConfig `mapstructure:"pages" json:"pages"`

	// Dev contains development server configuration.
	Dev DevConfig `mapstructure:"dev" json:"dev"`

	// Build contains production build configuration.
	Build BuildConfig `mapstructure:"build" json:"build"`

	// configPath stores the path the config was loaded from (or would be).
	configPath string

	// found is true when chen.json existed.
	found bool
}

// PagesConfig configures the pages root.
type PagesConfig struct {
	// Dir is the pages root directory.
	Dir string `mapstructure:"dir" json:"dir"`

	// Extensions lists the recognized page file extensions.
	Extensions []string `mapstructure:"extensions" json:"extensions"`
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port is the port to run the dev server on.
	Port int `mapstructure:"port" json:"port"`

	// Host is the host to bind to.
	Host string `mapstructure:"host" json:"host"`

	// HotReload enables the live reload channel.
	HotReload bool `mapstructure:"hotReload" json:"hotReload"`

	// Static is the directory served for non-module requests.
	Static string `mapstructure:"static" json:"static"`

	// Ignore contains extra patterns the watcher skips.
	Ignore []string `mapstructure:"ignore" json:"ignore,omitempty"`
}

// BuildConfig contains production build settings.
type BuildConfig struct {
	// Entry is the application entry point.
	Entry string `mapstructure:"entry" json:"entry"`

	// Output is the output directory for builds.
	Output string `mapstructure:"output" json:"output"`

	// Minify enables minification.
	Minify bool `mapstructure:"minify" json:"minify"`

	// SourceMaps enables source map generation.
	SourceMaps bool `mapstructure:"sourceMaps" json:"sourceMaps"`

	// External lists import paths left out of the bundle.
	External []string `mapstructure:"external" json:"external,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Pages: PagesConfig{
			Dir:        DefaultPagesDir,
			Extensions: append([]string(nil), DefaultExtensions...),
		},
		Dev: DevConfig{
			Port:      DefaultPort,
			Host:      DefaultHost,
			HotReload: true,
			Static:    ".",
		},
		Build: BuildConfig{
			Entry:  DefaultEntry,
			Output: DefaultOutput,
			Minify: true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := New()
	v.SetDefault("name", d.Name)
	v.SetDefault("pages.dir", d.Pages.Dir)
	v.SetDefault("pages.extensions", d.Pages.Extensions)
	v.SetDefault("dev.port", d.Dev.Port)
	v.SetDefault("dev.host", d.Dev.Host)
	v.SetDefault("dev.hotReload", d.Dev.HotReload)
	v.SetDefault("dev.static", d.Dev.Static)
	v.SetDefault("dev.ignore", []string{})
	v.SetDefault("build.entry", d.Build.Entry)
	v.SetDefault("build.output", d.Build.Output)
	v.SetDefault("build.minify", d.Build.Minify)
	v.SetDefault("build.sourceMaps", d.Build.SourceMaps)
	v.SetDefault("build.external", []string{})
}

// Load reads configuration from the specified directory.
// A missing chen.json is not an error; defaults and environment apply.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	found := true
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.New("E120").WithFile(path).Wrap(err)
		}
		found = false
	}

	if found {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.New("E120").
				WithFile(path).
				WithDetail("Failed to parse chen.json: " + err.Error()).
				WithSuggestion("Check that chen.json is valid JSON")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New("E120").WithFile(path).Wrap(err)
	}

	cfg.configPath = path
	cfg.found = found
	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults fills in values an explicit empty setting left blank.
func (c *Config) applyDefaults() {
	if c.Pages.Dir == "" {
		c.Pages.Dir = DefaultPagesDir
	}
	if len(c.Pages.Extensions) == 0 {
		c.Pages.Extensions = append([]string(nil), DefaultExtensions...)
	}
	for i, ext := range c.Pages.Extensions {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Pages.Extensions[i] = ext
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.Static == "" {
		c.Dev.Static = "."
	}
	if c.Build.Entry == "" {
		c.Build.Entry = DefaultEntry
	}
	if c.Build.Output == "" {
		c.Build.Output = DefaultOutput
	}
}

// Path returns the path of the config file.
func (c *Config) Path() string {
	return c.configPath
}

// Found reports whether chen.json existed when the config was loaded.
func (c *Config) Found() bool {
	return c.found
}

// Dir returns the project directory.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E122").
			WithDetail("Port must be between 0 and 65535, got " + strconv.Itoa(c.Dev.Port))
	}
	return nil
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// DevURL returns the full URL for the dev server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// PagesPath returns the absolute path to the pages root.
func (c *Config) PagesPath() string {
	return c.resolve(c.Pages.Dir)
}

// EntryPath returns the absolute path to the build entry point.
func (c *Config) EntryPath() string {
	return c.resolve(c.Build.Entry)
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	return c.resolve(c.Build.Output)
}

// StaticPath returns the absolute path to the directory served by the dev server.
func (c *Config) StaticPath() string {
	return c.resolve(c.Dev.Static)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the directory holding chen.json.
// When none is found the absolute start directory is returned.
func FindProjectRoot(startDir string) (string, error) {
	start, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := start
	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration for the project containing the working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
