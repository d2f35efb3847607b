package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"nura/go-api/internal/client"
)

var version = "dev"

var (
	apiURL   string
	apiToken string
	tzName   string
)

var rootCmd = &cobra.Command{
	Use:   "nura",
	Short: "NURA nutrition tracker",
	Long: `nura talks to a NURA API server.

QUICK START:

  $ nura login alice                         # Save a session token
  $ nura log "Chicken bowl" 650 -p 45 -c 70 -f 18
  $ nura analyze "two eggs and toast" --log  # Let the AI estimate it
  $ nura today                               # Flow score and meals
  $ nura targets --weight 70 --height 175 --age 30

CONFIGURATION:

  NURA_API_URL   API base URL (default http://localhost:3000)
  NURA_TOKEN     session or static token; falls back to the saved login
  NURA_TZ        IANA timezone for day boundaries (default: local)

MCP INTEGRATION:

  Run 'nura mcp' to expose NURA tools to MCP-compatible assistants:

  {
    "mcpServers": {
      "nura": { "command": "nura", "args": ["mcp"] }
    }
  }`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		if apiURL == "" {
			apiURL = os.Getenv("NURA_API_URL")
		}
		if apiToken == "" {
			apiToken = os.Getenv("NURA_TOKEN")
		}
		if tzName == "" {
			tzName = os.Getenv("NURA_TZ")
		}
		if tzName == "" && time.Local.String() != "Local" {
			tzName = time.Local.String()
		}
		if tzName != "" {
			if _, err := time.LoadLocation(tzName); err != nil {
				return fmt.Errorf("invalid timezone %q: %w", tzName, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (env NURA_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "auth token (env NURA_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&tzName, "tz", "", "IANA timezone (env NURA_TZ)")
	rootCmd.Version = version
}

// tokenPath is where login saves the session token.
func tokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nura", "token"), nil
}

func saveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

func loadToken() string {
	path, err := tokenPath()
	if err != nil {
		return ""
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// newClient builds an API client from flags, env and the saved login.
func newClient() *client.Client {
	token := apiToken
	if token == "" {
		token = loadToken()
	}
	return &client.Client{BaseURL: apiURL, Token: token, TZ: tzName}
}

// userLocation is --tz when set, otherwise the local zone.
func userLocation() *time.Location {
	if tzName != "" {
		if l, err := time.LoadLocation(tzName); err == nil {
			return l
		}
	}
	return time.Local
}

// parseTime accepts the formats people actually type. Times without a zone
// are in the user's location; a bare HH:MM means today.
func parseTime(s string) (time.Time, error) {
	loc := userLocation()
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"15:04",
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, f := range formats {
		t, err := time.ParseInLocation(f, s, loc)
		if err != nil {
			continue
		}
		if f == "15:04" {
			now := time.Now().In(loc)
			t = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}
