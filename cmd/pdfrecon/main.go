// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Command pdfrecon scans a PDF file or a directory of PDF files for
// technical indicators of alteration and prints a per-file summary.
// Prior revisions found inside incrementally-saved files are written next
// to the input under Altered_files/.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	pdfrecon "github.com/pdfrecon/pdfrecon"
	"github.com/pdfrecon/pdfrecon/logger"
	"github.com/pdfrecon/pdfrecon/tracer"
)

func main() {
	var (
		dir     = flag.String("dir", "", "scan every *.pdf in this directory")
		debug   = flag.Bool("debug", false, "print debug log")
		timeout = flag.Duration("timeout", 60*time.Second, "per-file scan timeout")
		workers = flag.Int("workers", 5, "max concurrent file scans")
		outDir  = flag.String("out", "./Altered_files/", "directory for extracted revisions")
		dpi     = flag.Int("dpi", 72, "DPI for the visual-identity check")
	)
	flag.Parse()

	cfg := pdfrecon.NewDefaultConfig()
	cfg.MaxConcurrentPDFs = *workers
	cfg.WorkerTimeout = *timeout
	cfg.RevisionOutputDir = *outDir
	cfg.VisualCheckDPI = *dpi
	cfg.DebugOn = *debug
	if *debug {
		cfg.Logger = func(level logger.LogLevel, msg string, keyvals ...interface{}) {
			fmt.Fprintf(os.Stderr, "[%s] %s %v\n", level, msg, keyvals)
		}
	}

	proc := pdfrecon.NewProcessor(cfg)
	ctx := context.Background()

	var reports []*pdfrecon.FileReport
	if *dir != "" {
		var err error
		reports, err = proc.ScanDir(ctx, *dir)
		if err != nil {
			tracer.Flush()
			fmt.Fprintln(os.Stderr, "scan failed:", err)
			os.Exit(1)
		}
	} else {
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "usage: pdfrecon [flags] file.pdf ...  |  pdfrecon -dir folder")
			os.Exit(2)
		}
		for _, path := range flag.Args() {
			report, err := proc.ScanFile(ctx, path)
			if err != nil {
				tracer.Flush()
				fmt.Fprintln(os.Stderr, "scan failed:", err)
				os.Exit(1)
			}
			reports = append(reports, report)
		}
	}

	exit := 0
	for _, r := range reports {
		printReport(r)
		if r.Classification == pdfrecon.Red {
			exit = 1
		}
	}
	os.Exit(exit)
}

func printReport(r *pdfrecon.FileReport) {
	fmt.Printf("%s  [%s]  %d bytes  md5=%s\n", r.Path, r.Classification, r.Size, r.MD5)
	for _, f := range r.Findings {
		fmt.Printf("  %-8s %-28s %s\n", f.Severity, f.Kind, f.Summary)
	}
	for _, rev := range r.Revisions {
		status := string(rev.Status)
		if rev.Reason != "" {
			status += " (" + rev.Reason + ")"
		}
		fmt.Printf("  revision %d  bytes [%d..%d)  %s  %s\n",
			rev.Index, rev.ByteRange[0], rev.ByteRange[1], status, rev.OutputPath)
	}
	for _, e := range r.Errors {
		fmt.Printf("  error: %s\n", e.Error())
	}
	if len(r.Timeline) > 0 {
		fmt.Println("  timeline:")
		for _, ev := range r.Timeline {
			fmt.Printf("    %s  %-12s %s\n", ev.When.UTC().Format(time.RFC3339), ev.Source, ev.Event)
		}
	}
}
