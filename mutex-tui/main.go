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

// This binary shows the mutual exclusivity table in a terminal.
package main

import (
	"context"
	"flag"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/mutex/internal/config"
	"github.com/googlegenomics/mutex/internal/mutex"
	"github.com/googlegenomics/mutex/internal/source"
	"github.com/googlegenomics/mutex/internal/source/gcs"
	"github.com/googlegenomics/mutex/internal/tui"
)

var (
	plain = flag.Bool("plain", false, "print the table once instead of starting the interactive view")
	logTo = flag.String("log_file", "", "write logs to this file; logs are discarded when empty")
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

	// Log lines would corrupt the terminal UI.
	if *logTo != "" {
		f, err := tea.LogToFile(*logTo, "mutex")
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else if !*plain {
		log.SetOutput(io.Discard)
	}

	ctx := context.Background()
	var opts []source.Option
	if cfg.Public {
		opts = append(opts, source.WithGCSClient(gcs.NewPublicClient))
	}
	src, err := source.Open(ctx, cfg.Source, cfg.Path, opts...)
	if err != nil {
		log.Fatalf("Failed to open %s source %q: %v", cfg.Source, cfg.Path, err)
	}

	if *plain {
		view, err := mutex.Open(ctx, src, mutex.WithResizeTimeout(cfg.ResizeTimeout))
		if err != nil {
			log.Fatalf("Failed to load associations: %v", err)
		}
		if err := tui.WritePlain(os.Stdout, view); err != nil {
			log.Fatalf("Failed to write table: %v", err)
		}
		return
	}

	model := tui.New(ctx, src, mutex.WithResizeTimeout(cfg.ResizeTimeout))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("Terminal UI returned an error: %v", err)
	}
}
