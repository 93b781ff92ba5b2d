package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the mofel directory structure
type Paths struct {
	// AppName is the application name
	AppName string

	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{
		AppName: appName,
		HomeDir: home,
	}, nil
}

// BaseDir returns the base directory (~/.mofel)
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// AppDir returns the app-specific directory (~/.mofel/<app>)
func (p *Paths) AppDir() string {
	return filepath.Join(p.BaseDir(), p.AppName)
}

// ConfigFile returns the config file path (~/.mofel/<app>/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// ReferenceDir returns the default reference directory (~/.mofel/<app>/references)
func (p *Paths) ReferenceDir() string {
	return filepath.Join(p.AppDir(), "references")
}

// RecordingDir returns where enrollment recordings are kept (~/.mofel/<app>/recordings)
func (p *Paths) RecordingDir() string {
	return filepath.Join(p.AppDir(), "recordings")
}

// EnsureReferenceDir creates the reference directory if it doesn't exist
func (p *Paths) EnsureReferenceDir() error {
	return os.MkdirAll(p.ReferenceDir(), 0755)
}

// EnsureRecordingDir creates the recording directory if it doesn't exist
func (p *Paths) EnsureRecordingDir() error {
	return os.MkdirAll(p.RecordingDir(), 0755)
}
