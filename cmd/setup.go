package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hsrx/internal/shared"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	applied, err := shared.AppliedVersions(db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v (%d migrations applied)", config.Database.Path, len(applied))
	return nil
}

// SetupToken stores the API token, taken from a copied browser request or
// given directly, in a dotenv file.
func (r *Runner) SetupToken(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	token := cmd.String("token")
	envFile := cmd.String("env-file")

	sources := 0
	for _, s := range []string{curlCmd, curlFile, token} {
		if s != "" {
			sources++
		}
	}
	if sources == 0 {
		return fmt.Errorf("%w: one of --curl, --curl-file or --token must be provided", shared.ErrMissingArgument)
	}
	if sources > 1 {
		return fmt.Errorf("%w: --curl, --curl-file and --token are exclusive", shared.ErrInvalidArgument)
	}

	if token == "" {
		var curlHeaders *shared.CurlHeaders
		var err error

		if curlFile != "" {
			if curlHeaders, err = shared.ParseCurlFile(curlFile); err != nil {
				return fmt.Errorf("failed to parse cURL file: %w", err)
			}
			r.logger.Info("parsed cURL from file", "file", curlFile)
		} else {
			if curlHeaders, err = shared.ParseCurlCommand(curlCmd); err != nil {
				return fmt.Errorf("failed to parse cURL command: %w", err)
			}
			r.logger.Info("parsed cURL command")
		}

		if token, err = curlHeaders.APIToken(); err != nil {
			return err
		}
	}

	values := map[string]string{shared.EnvAPIToken: token}
	if username := cmd.String("username"); username != "" {
		values[shared.EnvUsername] = username
	}
	if err := shared.SaveEnv(envFile, values); err != nil {
		return fmt.Errorf("failed to save %s: %w", envFile, err)
	}

	r.config.API.Token = token
	r.logger.Info("api token saved", "path", envFile)

	r.writePlain("✓ API token saved to %s\n", envFile)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set api.username in %s or pass --username\n", r.configPath)
	r.writePlain("2. Run 'hsrx games list' to test authentication\n")
	return nil
}
