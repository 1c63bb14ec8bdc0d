// Package config reads the command-line tools' settings from the
// environment. The tools take no flags; everything beyond the positional
// paths comes from HRTF_* variables, optionally set in a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvWorkers            = "HRTF_WORKERS"
	EnvMode               = "HRTF_MODE"
	EnvDuplicates         = "HRTF_DUPLICATES"
	EnvNormalizeElevation = "HRTF_NORMALIZE_ELEVATION"
	EnvDeclaration        = "HRTF_DECLARATION"
	EnvPreamble           = "HRTF_PREAMBLE"
	EnvVerbose            = "HRTF_VERBOSE"
)

// ErrInvalidValue is returned for a variable that is set but cannot be parsed.
var ErrInvalidValue = errors.New("invalid environment value")

// Env holds the raw settings. Zero values mean "use the library default".
type Env struct {
	Workers            int
	Mode               string
	Duplicates         string
	NormalizeElevation bool
	Declaration        string
	Preamble           string
	Verbose            bool
}

// Load reads files into the process environment (".env" when none are
// given) and then collects the HRTF_* variables. Variables already set in
// the environment take precedence over the files. A missing file is not an
// error.
func Load(files ...string) (*Env, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	workers, err := getEnvAsIntOrDefault(EnvWorkers, 0)
	if err != nil {
		return nil, err
	}
	normalize, err := getEnvAsBoolOrDefault(EnvNormalizeElevation, true)
	if err != nil {
		return nil, err
	}
	verbose, err := getEnvAsBoolOrDefault(EnvVerbose, false)
	if err != nil {
		return nil, err
	}

	return &Env{
		Workers:            workers,
		Mode:               getEnvOrDefault(EnvMode, "power"),
		Duplicates:         getEnvOrDefault(EnvDuplicates, "reject"),
		NormalizeElevation: normalize,
		Declaration:        os.Getenv(EnvDeclaration),
		Preamble:           os.Getenv(EnvPreamble),
		Verbose:            verbose,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) (int, error) {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s=%q is not a non-negative integer", ErrInvalidValue, key, valueStr)
	}
	return value, nil
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) (bool, error) {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidValue, key, valueStr)
	}
	return value, nil
}
