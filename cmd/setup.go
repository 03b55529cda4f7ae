package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/amx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the embedded template and initializes the
// match cache database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
		if config, err := shared.LoadConfig(configPath); err == nil {
			r.config = config
			r.configPath = configPath
		} else {
			r.logger.Warn("failed to load config, using defaults", "error", err)
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", configPath)
		if config, err := shared.LoadConfig(configPath); err == nil {
			r.config = config
			r.configPath = configPath
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Next steps:\n")
	r.writePlain("1. Add your Spotify client credentials to %s\n", configPath)
	r.writePlain("2. Run 'amx auth login' to authorize\n")
	r.writePlain("3. Run 'amx sync run <apple-music-url> --playlist-id <id>'\n")
	return nil
}
