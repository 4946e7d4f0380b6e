// Copyright 2017 Google Inc.
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

// This binary serves the mutual exclusivity table over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/mutex/api"
	"github.com/googlegenomics/mutex/internal/association"
	"github.com/googlegenomics/mutex/internal/config"
	"github.com/googlegenomics/mutex/internal/mutex"
	"github.com/googlegenomics/mutex/internal/source"
	"github.com/googlegenomics/mutex/internal/source/gcs"
	"github.com/googlegenomics/mutex/internal/usage"
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	if cfg.Profile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Profile)).Stop()
	}

	newSource, err := sourceFunc(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to open %s source %q: %v", cfg.Source, cfg.Path, err)
	}

	if cfg.LogLevel < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), api.RequestID())
	api.NewServer(newSource, mutex.WithResizeTimeout(cfg.ResizeTimeout)).Export(router)

	handler := http.Handler(router)
	if cfg.TrackUsage {
		log.Info("Enabling anonymous usage tracking")
		handler = usage.TrackingHandler(handler, usage.Track(usage.NewClient(cfg.AnalyticsProperty)))
	}

	address := fmt.Sprintf(":%d", cfg.Port)
	log.WithFields(log.Fields{"address": address, "source": cfg.Source, "secure": cfg.Secure}).Info("Serving associations")
	if cfg.Secure {
		if err := http.ListenAndServeTLS(address, cfg.HTTPSCert, cfg.HTTPSKey, handler); err != nil {
			log.Fatalf("HTTPS server returned an error: %v", err)
		}
	} else {
		if err := http.ListenAndServe(address, handler); err != nil {
			log.Fatalf("HTTP server returned an error: %v", err)
		}
	}
}

// sourceFunc preloads the configured source, except in secure mode where the
// object is read with the bearer token of each request.
func sourceFunc(ctx context.Context, cfg *config.Config) (api.NewSourceFunc, error) {
	if cfg.Secure {
		return source.PerRequest(cfg.Path)
	}
	src, err := source.Open(ctx, cfg.Source, cfg.Path, sourceOptions(cfg)...)
	if err != nil {
		return nil, err
	}
	dataset, err := association.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	log.WithField("records", dataset.Len()).Info("Loaded associations")
	return api.StaticSource(dataset), nil
}

func sourceOptions(cfg *config.Config) []source.Option {
	if cfg.Public {
		return []source.Option{source.WithGCSClient(gcs.NewPublicClient)}
	}
	return nil
}
