// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the drive-sync CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/drive-sync/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "drive-sync/0.1"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when non-empty, else the secret value
// for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// bearerTransport injects the access token into every request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	r.Header.Set("User-Agent", defaultUserAgent)
	return t.base.RoundTrip(r)
}

// apiClient builds the authorized HTTP client the REST clients share.
func apiClient(timeout time.Duration) (*http.Client, error) {
	token := secretDefault("drive-access-token", os.Getenv("DRIVE_SYNC_ACCESS_TOKEN"))
	if token == "" {
		return nil, fmt.Errorf("no access token: put one in .secrets/drive-access-token or set DRIVE_SYNC_ACCESS_TOKEN")
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &bearerTransport{token: token, base: http.DefaultTransport},
	}, nil
}

// rootCmd is the base command for the drive-sync CLI.
var rootCmd = &cobra.Command{
	Use:   "drive-sync",
	Short: "Sync local documents to Google Drive with rich conversion",
	Long: `drive-sync uploads a local directory of Markdown, CSV, and PDF files to
Google Drive, converting Markdown to Google Docs. Mermaid diagrams and local
images are rendered and embedded inline, and heading anchor links become
native document links.

Each operation is a subcommand: sync a directory, convert anchor links in an
existing document, render a single diagram, or inspect the sync cache.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./drive-sync.yaml or ~/.config/drive-sync/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("drive-sync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "drive-sync"))
		}
	}

	viper.SetEnvPrefix("DRIVE_SYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
