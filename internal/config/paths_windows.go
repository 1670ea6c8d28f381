//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	paths := []string{".binembed.yaml"}
	if appData := os.Getenv("APPDATA"); appData != "" {
		paths = append(paths, filepath.Join(appData, "binembed", "config.yaml"))
	}
	if programData := os.Getenv("ProgramData"); programData != "" {
		paths = append(paths, filepath.Join(programData, "binembed", "config.yaml"))
	}
	return paths
}
