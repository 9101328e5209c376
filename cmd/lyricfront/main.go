package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"lyricfront/internal"
	"lyricfront/internal/config"
	"lyricfront/internal/log"
)

var BuildVersion = "dev"

func generateDefaultConfig(path string) error {
	defaultConfig := map[string]any{
		"version": "v0.0.1-DEV_EDITION_EXPECT_CHANGES",
		"server": map[string]any{
			"baseURL":         "https://lyrics.yourdomain.com",
			"addr":            ":8888",
			"failureRedirect": "/",
		},
		"spotify": map[string]any{
			"clientId":     map[string]string{"$env": "SPOTIFY_CLIENT_ID"},
			"clientSecret": map[string]string{"$env": "SPOTIFY_CLIENT_SECRET"},
			"callbackURL":  "https://lyrics.yourdomain.com/auth/callback",
		},
		"musixmatch": map[string]any{
			"apiKey": map[string]string{"$env": "MUSIXMATCH_API_KEY"},
		},
		"sessions": map[string]any{
			"storage":    "memory",
			"signingKey": map[string]string{"$env": "SESSION_SIGNING_KEY"},
			"ttl":        "24h",
		},
	}

	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func validateConfig(path string) error {
	fmt.Printf("Validating: %s\n", path)
	if _, err := config.Load(path); err != nil {
		fmt.Println("Result: FAIL")
		return err
	}
	fmt.Println("Result: PASS")
	return nil
}

func main() {
	conf := flag.String("config", "", "path to config file (required)")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	configInit := flag.String("config-init", "", "generate default config file at specified path")
	validate := flag.Bool("validate", false, "validate config file and exit")
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			log.LogError("Failed to generate config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default config at: %s\n", *configInit)
		return
	}

	if *validate {
		if *conf == "" {
			fmt.Fprintf(os.Stderr, "Error: -config flag is required for validation\n")
			os.Exit(1)
		}
		if err := validateConfig(*conf); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *conf == "" {
		fmt.Fprintf(os.Stderr, "Error: -config flag is required\n")
		fmt.Fprintf(os.Stderr, "Run with -help for usage information\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*conf)
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	log.LogInfoWithFields("main", "Starting lyricfront", map[string]any{
		"version": BuildVersion,
		"config":  *conf,
	})

	ctx := context.Background()
	app, err := internal.NewLyricFront(ctx, cfg)
	if err != nil {
		log.LogError("Failed to create application: %v", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		log.LogError("Server exited with error: %v", err)
		os.Exit(1)
	}
}
