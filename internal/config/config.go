// Package config resolves the speech service credentials before any
// synthesis request is made.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

const (
	EnvSpeechKey    = "SPEECH_KEY"
	EnvSpeechRegion = "SPEECH_REGION"

	// DefaultEnvFile is read when present; its absence is not an error.
	DefaultEnvFile = ".env"
)

var (
	ErrMissingKey    = errors.New(EnvSpeechKey + " is not set")
	ErrMissingRegion = errors.New(EnvSpeechRegion + " is not set")
)

// Credentials authenticate against the speech service for a whole run.
type Credentials struct {
	Key    string
	Region string
}

// Options controls where credentials come from. Precedence, highest first:
// explicit Key/Region, the process environment, the env file, then Secrets
// Manager under SecretPrefix.
type Options struct {
	Key    string
	Region string

	// EnvFile is a dotenv file. When empty, DefaultEnvFile is tried.
	EnvFile string

	SecretPrefix string
	Secrets      SecretsAPI

	// Getenv defaults to os.LookupEnv.
	Getenv func(string) (string, bool)
	Fs     afero.Fs
}

// Load resolves credentials. A missing key or region is an error.
func Load(ctx context.Context, opts Options, logger *slog.Logger) (Credentials, error) {
	if logger == nil {
		logger = slog.Default()
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.LookupEnv
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	fileEnv, err := readEnvFile(fs, opts.EnvFile)
	if err != nil {
		return Credentials{}, err
	}

	lookup := func(name, override string) string {
		if override != "" {
			return override
		}
		if v, ok := getenv(name); ok && v != "" {
			return v
		}
		return fileEnv[name]
	}

	creds := Credentials{
		Key:    lookup(EnvSpeechKey, opts.Key),
		Region: lookup(EnvSpeechRegion, opts.Region),
	}

	if (creds.Key == "" || creds.Region == "") && opts.SecretPrefix != "" && opts.Secrets != nil {
		var missing []string
		if creds.Key == "" {
			missing = append(missing, EnvSpeechKey)
		}
		if creds.Region == "" {
			missing = append(missing, EnvSpeechRegion)
		}
		found := LoadSecrets(ctx, opts.Secrets, opts.SecretPrefix, missing, logger)
		if creds.Key == "" {
			creds.Key = found[EnvSpeechKey]
		}
		if creds.Region == "" {
			creds.Region = found[EnvSpeechRegion]
		}
	}

	return creds, creds.Validate()
}

// Validate reports the first missing field.
func (c Credentials) Validate() error {
	if c.Key == "" {
		return ErrMissingKey
	}
	if c.Region == "" {
		return ErrMissingRegion
	}
	return nil
}

func readEnvFile(fs afero.Fs, path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	f, err := fs.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open env file %s: %w", path, err)
	}
	defer f.Close()

	env, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}
	return env, nil
}
