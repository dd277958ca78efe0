package main

import (
	"fmt"

	"github.com/vmunix/arrgo/internal/config"
)

// runInitConfig writes the bundled default config to path, refusing to
// overwrite an existing file.
func runInitConfig(path string) error {
	if _, err := config.LoadWithoutValidation(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing config at %s", path)
	}
	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	fmt.Printf("wrote default config to %s\n", path)
	return nil
}
