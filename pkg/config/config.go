// Package config handles configuration for aviary-e2e.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/aviary-e2e/pkg/core"
)

// Session scope policies.
const (
	ScopeTest  = "test"  // fresh session per test case
	ScopeSuite = "suite" // one session shared across the suite
)

const (
	// DefaultServer is the Appium server most local setups listen on.
	DefaultServer = "http://127.0.0.1:4723"
	// DefaultOutput is the results directory relative to the working dir.
	DefaultOutput = "aviary-results"

	defaultAutomation = "XCUITest"
	defaultPlatform   = "iOS"

	// Oldest iOS the XCUITest backend and the app under test both support.
	minPlatformVersion = "15.0"
)

// Environment overrides, applied after file values and before defaults.
const (
	envServer = "AVIARY_E2E_SERVER"
	envOutput = "AVIARY_E2E_OUTPUT"
)

// Capabilities describe the device and app a session is opened against.
type Capabilities struct {
	PlatformName      string `yaml:"platformName"`      // "iOS"
	DeviceName        string `yaml:"deviceName"`        // Simulator name, e.g. "iPhone 17 Pro"
	UDID              string `yaml:"udid"`              // Specific device, wins over deviceName
	PlatformVersion   string `yaml:"platformVersion"`   // e.g. "17.5"
	App               string `yaml:"app"`               // Path to the .app bundle
	BundleID          string `yaml:"bundleId"`          // Defaulted from the bundle's Info.plist
	AutomationName    string `yaml:"automationName"`    // "XCUITest"
	NoReset           bool   `yaml:"noReset"`           // Keep app state between sessions
	NewCommandTimeout int    `yaml:"newCommandTimeout"` // Seconds, 0 = server default
}

// Config represents the harness configuration (config.yaml).
type Config struct {
	Server       string            `yaml:"server"`       // Appium server URL
	Output       string            `yaml:"output"`       // Results directory
	Artifacts    string            `yaml:"artifacts"`    // Screenshot directory, default <output>/artifacts
	HTML         bool              `yaml:"html"`         // Also write report.html
	SessionScope string            `yaml:"sessionScope"` // "test" or "suite"
	Caps         Capabilities      `yaml:"capabilities"`
	Env          map[string]string `yaml:"env"` // Extra process env for launched helpers
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	return Default(), nil
}

// Default returns a configuration with built-in defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if env := os.Getenv(envServer); env != "" {
		c.Server = env
	}
	if env := os.Getenv(envOutput); env != "" {
		c.Output = env
	}
	if c.Server == "" {
		c.Server = DefaultServer
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.SessionScope == "" {
		c.SessionScope = ScopeTest
	}
	if c.Caps.PlatformName == "" {
		c.Caps.PlatformName = defaultPlatform
	}
	if c.Caps.AutomationName == "" {
		c.Caps.AutomationName = defaultAutomation
	}
}

// ArtifactsDir returns the screenshot directory for this run.
func (c *Config) ArtifactsDir() string {
	if c.Artifacts != "" {
		return c.Artifacts
	}
	return filepath.Join(c.Output, "artifacts")
}

// Validate checks the configuration for problems that would make every
// session attempt fail. Called once before any session is opened.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("server %q is not a valid URL", c.Server))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("server scheme %q is not supported", u.Scheme))
	}

	if c.Caps.PlatformName == "" {
		return core.ErrMissingRequired.WithMessage("platformName is required")
	}
	if c.Caps.DeviceName == "" && c.Caps.UDID == "" {
		return core.ErrMissingRequired.WithMessage("one of deviceName or udid is required")
	}
	if c.Caps.App == "" && c.Caps.BundleID == "" {
		return core.ErrMissingRequired.WithMessage("one of app or bundleId is required")
	}

	if c.Caps.App != "" {
		if _, err := os.Stat(c.Caps.App); err != nil {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("app bundle %q does not exist", c.Caps.App)).WithCause(err)
		}
	}

	if c.Caps.PlatformVersion != "" {
		v, err := semver.NewVersion(c.Caps.PlatformVersion)
		if err != nil {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("platformVersion %q is not a version", c.Caps.PlatformVersion)).WithCause(err)
		}
		if v.LessThan(semver.MustParse(minPlatformVersion)) {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("platformVersion %s is below the minimum supported %s", c.Caps.PlatformVersion, minPlatformVersion))
		}
	}

	if c.SessionScope != ScopeTest && c.SessionScope != ScopeSuite {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("sessionScope %q must be %q or %q", c.SessionScope, ScopeTest, ScopeSuite))
	}

	return nil
}

// ToW3C renders the capabilities as a W3C alwaysMatch map. Non-standard
// keys carry the appium: vendor prefix.
func (c *Config) ToW3C() map[string]interface{} {
	caps := map[string]interface{}{
		"platformName": c.Caps.PlatformName,
	}

	appium := func(key string, value interface{}) {
		caps["appium:"+key] = value
	}

	appium("automationName", c.Caps.AutomationName)
	if c.Caps.DeviceName != "" {
		appium("deviceName", c.Caps.DeviceName)
	}
	if c.Caps.UDID != "" {
		appium("udid", c.Caps.UDID)
	}
	if c.Caps.PlatformVersion != "" {
		appium("platformVersion", c.Caps.PlatformVersion)
	}
	if c.Caps.App != "" {
		appium("app", c.Caps.App)
	}
	if c.Caps.BundleID != "" {
		appium("bundleId", c.Caps.BundleID)
	}
	appium("noReset", c.Caps.NoReset)
	if c.Caps.NewCommandTimeout > 0 {
		appium("newCommandTimeout", c.Caps.NewCommandTimeout)
	}

	return caps
}
