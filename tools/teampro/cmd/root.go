package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/teampro-ai/teampro/libs/calendar"
	"github.com/teampro-ai/teampro/libs/config"
	"github.com/teampro-ai/teampro/libs/facilityclient"
	"github.com/teampro-ai/teampro/libs/runtime"
	"github.com/teampro-ai/teampro/tools/teampro/internal/history"
	"gopkg.in/yaml.v3"
)

var _ calendar.Collaborator = (*facilityclient.Client)(nil)

var (
	outputJSON    bool
	outputCompact bool
	configFile    string
	baseURLFlag   string
	cfg           Config
	stdout        io.Writer = os.Stdout
	logger                  = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

// Config is ~/.config/teampro/config.yaml. TEAMPRO_* environment variables
// override it.
type Config struct {
	BaseURL         string `yaml:"base_url"`
	Token           string `yaml:"token"`
	DefaultFacility string `yaml:"default_facility"`
	Timezone        string `yaml:"timezone"`
}

var rootCmd = &cobra.Command{
	Use:   "teampro",
	Short: "TeamPro facility calendar and bookings",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputJSON && outputCompact {
			return fmt.Errorf("choose either --json or --compact")
		}
		loaded, err := loadConfig(configFile)
		if err != nil {
			return err
		}
		cfg = loaded.withEnv()
		if baseURLFlag != "" {
			cfg.BaseURL = baseURLFlag
		}
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	_ = runtime.LoadDotEnv()
	rootCmd.AddCommand(configureCmd())
	rootCmd.AddCommand(facilitiesCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(bookCmd())
	rootCmd.AddCommand(conflictsCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(cancelCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output JSON")
	rootCmd.PersistentFlags().BoolVar(&outputCompact, "compact", false, "Output compact text")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.config/teampro/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Gateway URL")
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "teampro"), nil
}

func defaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// loadConfig reads path, or the default location when path is empty. A
// missing file is an empty config.
func loadConfig(path string) (Config, error) {
	if path == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func saveConfig(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func (c Config) withEnv() Config {
	c.BaseURL = config.String("TEAMPRO_BASE_URL", c.BaseURL)
	c.Token = config.String("TEAMPRO_TOKEN", c.Token)
	c.DefaultFacility = config.String("TEAMPRO_FACILITY", c.DefaultFacility)
	c.Timezone = config.String("TEAMPRO_TIMEZONE", c.Timezone)
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	return c
}

func newClient() *facilityclient.Client {
	return facilityclient.New(cfg.BaseURL, cfg.Token)
}

func openHistory() (*history.Store, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	return history.Open(filepath.Join(dir, "bookings.db"))
}

func resolveFacility(flag string) (string, error) {
	id := strings.TrimSpace(flag)
	if id == "" {
		id = cfg.DefaultFacility
	}
	if id == "" {
		return "", fmt.Errorf("--facility is required (or set default_facility in the config)")
	}
	return id, nil
}

// resolveLocation prefers the configured timezone over the facility's own.
func resolveLocation(facilityTZ string) *time.Location {
	for _, tz := range []string{cfg.Timezone, facilityTZ} {
		if tz == "" {
			continue
		}
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.Local
}

func writeJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
