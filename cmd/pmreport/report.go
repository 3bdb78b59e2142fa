package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Strob0t/pmreport/internal/config"
	"github.com/Strob0t/pmreport/internal/domain/session"
	"github.com/Strob0t/pmreport/internal/logger"
)

// runReport submits project details once, waits for the result and writes the
// PDF report.
func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	details := fs.String("details", "", "project details (prompted or read from stdin when omitted)")
	out := fs.String("out", "", "output file (default from config, project_management_result.pdf)")
	configPath := fs.String("config", "", "path to YAML config")
	serviceURL := fs.String("service-url", "", "project-management service URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var flags config.CLIFlags
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config":
			flags.ConfigPath = configPath
		case "service-url":
			flags.ServiceURL = serviceURL
		}
	})
	cfg, _, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Logs go to stderr so that stdout stays clean for scripting.
	cfg.Logging.Async = false
	log, closeLog := logger.NewWithWriter(cfg.Logging, os.Stderr)
	defer closeLog.Close()
	slog.SetDefault(log)

	text := *details
	if !isFlagSet(fs, "details") {
		text, err = readDetails(os.Stdin, os.Stderr)
		if err != nil {
			return fmt.Errorf("read project details: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(cfg, nil, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	fmt.Fprintln(os.Stderr, "Processing...")
	st, err := svc.Sessions.SubmitAndWait(ctx, text)
	if err != nil {
		return err
	}
	if st.Phase != session.PhaseSuccess {
		return errors.New(session.ErrorMessage)
	}

	doc, err := svc.Reports.RenderResult(ctx, st.Result)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = doc.Filename
	}
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil { //nolint:gosec // report is meant to be readable
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%d pages)\n", path, doc.Pages)
	return nil
}

// readDetails prompts for a single line on a terminal, or reads all of a
// piped stdin.
func readDetails(in *os.File, prompt io.Writer) (string, error) {
	if term.IsTerminal(int(in.Fd())) { //nolint:gosec // fd fits in int
		fmt.Fprint(prompt, "Project details: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
