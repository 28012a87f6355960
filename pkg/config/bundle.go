package config

import (
	"fmt"
	"os"
	"path/filepath"

	"howett.net/plist"

	"github.com/devicelab-dev/aviary-e2e/pkg/core"
)

// BundleInfo is the app identity read from a bundle's Info.plist.
type BundleInfo struct {
	BundleID string
	Version  string
	Name     string
}

// InspectApp reads Info.plist from a .app bundle directory. Handles both
// XML and binary plists.
func InspectApp(appPath string) (*BundleInfo, error) {
	infoPath := filepath.Join(appPath, "Info.plist")
	data, err := os.ReadFile(infoPath) //#nosec G304 -- path comes from config
	if err != nil {
		return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("cannot read Info.plist in %q", appPath)).WithCause(err)
	}

	var raw struct {
		BundleID string `plist:"CFBundleIdentifier"`
		Version  string `plist:"CFBundleShortVersionString"`
		Name     string `plist:"CFBundleName"`
	}
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("malformed Info.plist in %q", appPath)).WithCause(err)
	}
	if raw.BundleID == "" {
		return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("Info.plist in %q has no CFBundleIdentifier", appPath))
	}

	return &BundleInfo{
		BundleID: raw.BundleID,
		Version:  raw.Version,
		Name:     raw.Name,
	}, nil
}

// Preflight inspects the configured app bundle, fills in a missing
// bundleId capability from CFBundleIdentifier, and returns the bundle
// info for the run report. Nil info when only a bundleId is configured.
func (c *Config) Preflight() (*BundleInfo, error) {
	if c.Caps.App == "" {
		return nil, nil
	}

	info, err := InspectApp(c.Caps.App)
	if err != nil {
		return nil, err
	}

	if c.Caps.BundleID == "" {
		c.Caps.BundleID = info.BundleID
	}
	return info, nil
}
