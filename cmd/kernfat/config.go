package main

import (
	"os"

	"github.com/aligator/kernfat/shell"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// Config is the tool configuration.
// Every value can be overridden by the command line flags.
type Config struct {
	// Image is the path of the disk image holding the volume.
	Image string `yaml:"image"`

	// LogLevel is one of the logrus levels.
	LogLevel string `yaml:"log_level"`

	// Prompt is the prefix of the interactive shell prompt.
	Prompt string `yaml:"prompt"`

	// Create allows creating the image if it does not exist yet.
	Create bool `yaml:"create"`

	// Lock takes an exclusive lock on the image while the tool runs.
	Lock bool `yaml:"lock"`
}

// DefaultConfig is used for everything not set by the config file or flags.
func DefaultConfig() Config {
	return Config{
		Image:    "kernfat.img",
		LogLevel: log.InfoLevel.String(),
		Prompt:   shell.DefaultPrompt,
		Create:   true,
		Lock:     true,
	}
}

// readConfig loads the config file at path on top of the defaults.
// A missing file is not an error.
func readConfig(fs afero.Fs, path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	cfgBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(cfgBytes, &config); err != nil {
		return config, err
	}
	return config, nil
}
