// Command haictl runs the infection map pipeline offline: it loads the same
// inputs as the API and prints aggregates or writes the map, charts and exports
// to files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"hai-map-go/internal/config"
	"hai-map-go/internal/controller"
	"hai-map-go/internal/logger"
)

var (
	configPath    string
	year          string
	infectionType string
	loadTimeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "haictl",
	Short:         "Hospital-acquired infection map tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (or set CONFIG_PATH env)")
	rootCmd.PersistentFlags().StringVar(&year, "year", "all", "Two-digit record year, or all")
	rootCmd.PersistentFlags().StringVar(&infectionType, "type", "all", "Normalized infection type, or all")
	rootCmd.PersistentFlags().DurationVar(&loadTimeout, "timeout", 2*time.Minute, "Input load timeout")

	rootCmd.AddCommand(statesCmd)
	rootCmd.AddCommand(hospitalsCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(linegraphCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		logger.New().WithError(err).Error("haictl failed")
		os.Exit(1)
	}
}

// loadController reads the configured inputs and returns a controller with
// the year and type flags already applied.
func loadController() (*controller.Controller, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	data, err := controller.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c := controller.New(data, cfg)
	for _, ev := range filterEvents() {
		if _, err := c.Dispatch(ev); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// output opens path for writing, or stdout for "" and "-".
func output(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
