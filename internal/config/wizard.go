package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to modguard! Let's configure the moderation queue.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Store backend.
	storePrompt := promptui.Select{
		Label: "Select storage backend",
		Items: []string{
			"sqlite: single database file, safe for the HTTP server",
			"file:   one JSON document, easy to inspect by hand",
		},
	}
	storeIdx, _, err := storePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("store selection: %w", err)
	}
	cfg.Store = []StoreType{StoreSQLite, StoreFile}[storeIdx]

	// 2. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 3. Default moderator.
	adminPrompt := promptui.Prompt{
		Label:   "Moderator id recorded when none is given",
		Default: cfg.DefaultAdmin,
		Validate: func(s string) error {
			if s == "" {
				return fmt.Errorf("moderator id cannot be empty")
			}
			return nil
		},
	}
	if cfg.DefaultAdmin, err = adminPrompt.Run(); err != nil {
		return nil, fmt.Errorf("default admin: %w", err)
	}

	// 4. Log level.
	levelPrompt := promptui.Select{
		Label: "Log level",
		Items: []string{"debug", "info", "warn", "error"},
	}
	if _, cfg.LogLevel, err = levelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	// 5. Server port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP server port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}
	if n <= 0 || n > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
