package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-notemd/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // NOTEMD_CONFIG: config file name or path
	Theme      string        // NOTEMD_THEME: theme name
	Timeout    time.Duration // NOTEMD_TIMEOUT: conversion timeout
	Engine     string        // NOTEMD_ENGINE: notes or goldmark
	Diagrams   string        // NOTEMD_DIAGRAMS: diagram mode
	KrokiURL   string        // NOTEMD_KROKI_URL: Kroki server
	InputDir   string        // NOTEMD_INPUT_DIR: default input directory
	OutputDir  string        // NOTEMD_OUTPUT_DIR: default output directory
	Format     string        // NOTEMD_FORMAT: html, fragment or pdf
	Workers    int           // NOTEMD_WORKERS: parallel workers
}

// knownEnvVars lists valid NOTEMD_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"NOTEMD_CONFIG":     true,
	"NOTEMD_THEME":      true,
	"NOTEMD_TIMEOUT":    true,
	"NOTEMD_ENGINE":     true,
	"NOTEMD_DIAGRAMS":   true,
	"NOTEMD_KROKI_URL":  true,
	"NOTEMD_INPUT_DIR":  true,
	"NOTEMD_OUTPUT_DIR": true,
	"NOTEMD_FORMAT":     true,
	"NOTEMD_WORKERS":    true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed durations and counts are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("NOTEMD_CONFIG"),
		Theme:      os.Getenv("NOTEMD_THEME"),
		Engine:     os.Getenv("NOTEMD_ENGINE"),
		Diagrams:   os.Getenv("NOTEMD_DIAGRAMS"),
		KrokiURL:   os.Getenv("NOTEMD_KROKI_URL"),
		InputDir:   os.Getenv("NOTEMD_INPUT_DIR"),
		OutputDir:  os.Getenv("NOTEMD_OUTPUT_DIR"),
		Format:     os.Getenv("NOTEMD_FORMAT"),
	}

	if timeout := os.Getenv("NOTEMD_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("NOTEMD_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized NOTEMD_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "NOTEMD_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies set environment values over the loaded config.
// Precedence: CLI flags > env vars > config file > defaults. Config
// defaults are filled before this runs, so a set variable always wins over
// the file; flags are merged afterwards by mergeFlags.
// The timeout is resolved separately by resolveTimeoutWithEnv.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Theme != "" {
		cfg.Theme.Name = env.Theme
	}
	if env.Engine != "" {
		cfg.Render.Engine = env.Engine
	}
	if env.Diagrams != "" {
		cfg.Diagrams.Mode = env.Diagrams
	}
	if env.KrokiURL != "" {
		cfg.Diagrams.KrokiURL = env.KrokiURL
	}
	if env.InputDir != "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Format != "" {
		cfg.Output.Format = env.Format
	}
}
