// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config reads the settings shared by the mutex binaries from
// command line flags, falling back to MUTEX_* environment variables and .env
// files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/mutex/internal/mutex"
	"github.com/googlegenomics/mutex/internal/source"
)

// Config holds the settings of a mutex binary.
type Config struct {
	Port   int
	Source string
	Path   string

	// Public reads GCS objects without credentials.
	Public bool

	Secure    bool
	HTTPSCert string
	HTTPSKey  string

	// TrackUsage enables anonymous usage tracking.
	//
	// If enabled, anonymous information about requests handled by the server
	// is logged to Google via Google Analytics.  No user identifying
	// information is ever sent.
	TrackUsage bool
	// AnalyticsProperty is the analytics property tracked usage is sent to.
	AnalyticsProperty string

	Profile       string
	LogLevel      log.Level
	ResizeTimeout time.Duration
}

// LoadEnv reads variables from files into the environment.  Variables that
// are already set are kept and missing files are ignored.
func LoadEnv(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("loading %s: %v", file, err)
		}
	}
	return nil
}

// Load registers the configuration flags on fs, parses args and validates
// the result.  Flag defaults come from the environment.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := environment{}
	var (
		config   Config
		logLevel string
	)
	fs.IntVar(&config.Port, "port", env.integer("MUTEX_PORT", 8080), "HTTP service port")
	fs.StringVar(&config.Source, "source", env.str("MUTEX_SOURCE", source.File), "association source: file, gcs, duckdb or postgres")
	fs.StringVar(&config.Path, "path", env.str("MUTEX_PATH", ""), "file path, bucket/object or database DSN of the associations")
	fs.BoolVar(&config.Public, "public", env.boolean("MUTEX_PUBLIC", false), "read publicly readable GCS objects without credentials")
	fs.BoolVar(&config.Secure, "secure", env.boolean("MUTEX_SECURE", false), "serve in HTTPS-only mode and forward client bearer tokens")
	fs.StringVar(&config.HTTPSCert, "https_cert", env.str("MUTEX_HTTPS_CERT", ""), "HTTPS certificate file")
	fs.StringVar(&config.HTTPSKey, "https_key", env.str("MUTEX_HTTPS_KEY", ""), "HTTPS key file")
	fs.BoolVar(&config.TrackUsage, "track_usage", env.boolean("MUTEX_TRACK_USAGE", false), "anonymous usage tracking")
	fs.StringVar(&config.AnalyticsProperty, "analytics_property", env.str("MUTEX_ANALYTICS_PROPERTY", ""), "analytics property ID usage is tracked under")
	fs.StringVar(&config.Profile, "profile", env.str("MUTEX_PROFILE", ""), "write a CPU profile to this directory")
	fs.StringVar(&logLevel, "log_level", env.str("MUTEX_LOG_LEVEL", "info"), "log level")
	fs.DurationVar(&config.ResizeTimeout, "resize_timeout", env.duration("MUTEX_RESIZE_TIMEOUT", mutex.DefaultResizeTimeout), "how long a resize waits for the table to load")

	if env.err != nil {
		return nil, env.err
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %v", err)
	}
	config.LogLevel = level

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	known := false
	for _, kind := range source.Kinds {
		known = known || c.Source == kind
	}
	if !known {
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if c.Path == "" && c.Source != source.DuckDB {
		return fmt.Errorf("-path is required for %s sources", c.Source)
	}
	if c.Secure && (c.HTTPSCert == "" || c.HTTPSKey == "") {
		return errors.New("you must specify both -https_cert and -https_key in secure mode")
	}
	if c.Secure && c.Source != source.GCS {
		return errors.New("secure mode forwards bearer tokens and requires a gcs source")
	}
	if c.Public && (c.Secure || c.Source != source.GCS) {
		return errors.New("-public applies to gcs sources outside secure mode")
	}
	if c.TrackUsage && c.AnalyticsProperty == "" {
		return errors.New("-track_usage requires -analytics_property")
	}
	if c.ResizeTimeout <= 0 {
		return fmt.Errorf("invalid resize timeout %v", c.ResizeTimeout)
	}
	return nil
}

// environment reads defaults from environment variables, remembering the
// first malformed value.
type environment struct {
	err error
}

func (e *environment) str(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func (e *environment) integer(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, err)
		return fallback
	}
	return n
}

func (e *environment) boolean(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(key, err)
		return fallback
	}
	return b
}

func (e *environment) duration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.fail(key, err)
		return fallback
	}
	return d
}

func (e *environment) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("parsing %s: %v", key, err)
	}
}
