// Package config resolves CLI defaults from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/roach88/aerbatch/internal/backend"
	"github.com/roach88/aerbatch/internal/policy"
)

// Environment variables read by Load.
const (
	EnvQubits   = "AERBATCH_QUBITS"
	EnvLedger   = "AERBATCH_LEDGER"
	EnvOptLevel = "AERBATCH_OPT_LEVEL"
	EnvTimeout  = "AERBATCH_TIMEOUT"
	EnvShots    = "AERBATCH_SHOTS"
)

// Config holds defaults that flags may override.
type Config struct {
	Qubits   int
	Ledger   string // empty keeps the ledger in memory
	OptLevel int
	Timeout  int
	Shots    *int
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Qubits:   backend.DefaultQubits,
		OptLevel: policy.DefaultLevel,
		Timeout:  policy.DefaultTimeout,
	}
}

// Load reads envFiles (missing files are skipped) and the process
// environment. Process variables take precedence over file entries.
func Load(envFiles ...string) (Config, error) {
	fileVars := map[string]string{}
	for _, path := range envFiles {
		vars, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("read env file %s: %w", path, err)
		}
		for k, v := range vars {
			if _, seen := fileVars[k]; !seen {
				fileVars[k] = v
			}
		}
	}

	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
}

// FromLookup builds a Config from lookup, starting from Defaults.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()

	if err := intVar(lookup, EnvQubits, &cfg.Qubits); err != nil {
		return Config{}, err
	}
	if cfg.Qubits < 0 {
		return Config{}, fmt.Errorf("%s must not be negative, got %d", EnvQubits, cfg.Qubits)
	}
	if v, ok := lookup(EnvLedger); ok {
		cfg.Ledger = v
	}
	if err := intVar(lookup, EnvOptLevel, &cfg.OptLevel); err != nil {
		return Config{}, err
	}
	if cfg.OptLevel < policy.MinLevel || cfg.OptLevel > policy.MaxLevel {
		return Config{}, fmt.Errorf("%s must be in [%d, %d], got %d", EnvOptLevel, policy.MinLevel, policy.MaxLevel, cfg.OptLevel)
	}
	if err := intVar(lookup, EnvTimeout, &cfg.Timeout); err != nil {
		return Config{}, err
	}
	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %d", EnvTimeout, cfg.Timeout)
	}
	if _, ok := lookup(EnvShots); ok {
		var shots int
		if err := intVar(lookup, EnvShots, &shots); err != nil {
			return Config{}, err
		}
		if shots < 0 {
			return Config{}, fmt.Errorf("%s must not be negative, got %d", EnvShots, shots)
		}
		cfg.Shots = &shots
	}
	return cfg, nil
}

func intVar(lookup func(string) (string, bool), key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}
