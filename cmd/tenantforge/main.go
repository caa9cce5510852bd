package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/fabworks/tenantforge/internal/config"
	"github.com/fabworks/tenantforge/internal/export"
	"github.com/fabworks/tenantforge/internal/jobs"
	"github.com/fabworks/tenantforge/internal/ledger"
	"github.com/fabworks/tenantforge/internal/log"
	"github.com/fabworks/tenantforge/internal/platform"
	"github.com/fabworks/tenantforge/internal/platformtest"
	"github.com/fabworks/tenantforge/internal/tenant"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	// --- NOUNS ---
	case "tenant":
		return runTenantNoun(args)
	case "workspace":
		return runWorkspaceNoun(args)

	// --- STANDALONE COMMANDS ---
	case "mock":
		return runMock(args)
	case "version", "--version":
		return runVersion()
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func runTenantNoun(args []string) int {
	if len(args) < 1 {
		printTenantNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printTenantNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "create":
		if hasHelpFlag(actionArgs) {
			printTenantCreateHelp()
			return 0
		}
		return runTenantCreate(actionArgs)
	case "help":
		printTenantNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown tenant action: %s\n", action)
		return 1
	}
}

func runWorkspaceNoun(args []string) int {
	if len(args) < 1 {
		printWorkspaceNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printWorkspaceNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "export":
		if hasHelpFlag(actionArgs) {
			printWorkspaceExportHelp()
			return 0
		}
		return runWorkspaceExport(actionArgs)
	case "clone":
		if hasHelpFlag(actionArgs) {
			printWorkspaceCloneHelp()
			return 0
		}
		return runWorkspaceClone(actionArgs)
	case "help":
		printWorkspaceNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown workspace action: %s\n", action)
		return 1
	}
}

// --- ACTION IMPLEMENTATIONS ---

func runTenantCreate(args []string) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	name := fs.String("name", "", "Display name of the new tenant workspace")
	kind := fs.String("kind", "lakehouse", "Tenant layout: lakehouse or warehouse")
	storageConnection := fs.String("storage-connection", "", "External storage connection ID for the staging copy pipeline")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if strings.TrimSpace(*name) == "" {
		fmt.Fprintln(os.Stderr, "Usage: tenantforge tenant create --name <workspace> [--kind lakehouse|warehouse]")
		return 1
	}

	ctx, stop := signalContext()
	defer stop()

	env, err := setupEnvironment(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up: %v\n", err)
		return 1
	}
	defer env.close()

	env.opts.StorageConnectionID = *storageConnection
	provisioner := tenant.NewProvisioner(env.client, env.runner, env.opts)

	var created tenant.Tenant
	switch *kind {
	case "lakehouse":
		created, err = provisioner.CreateLakehouseTenant(ctx, *name)
	case "warehouse":
		created, err = provisioner.CreateWarehouseTenant(ctx, *name)
	default:
		fmt.Fprintf(os.Stderr, "Unknown tenant kind: %s (expected lakehouse or warehouse)\n", *kind)
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Tenant provisioning failed: %v\n", err)
		return 1
	}

	fmt.Printf("Tenant %q provisioned (workspace %s)\n", created.Workspace.DisplayName, created.Workspace.ID)
	return 0
}

func runWorkspaceExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	name := fs.String("name", "", "Display name of the workspace to export")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if strings.TrimSpace(*name) == "" {
		fmt.Fprintln(os.Stderr, "Usage: tenantforge workspace export --name <workspace>")
		return 1
	}

	ctx, stop := signalContext()
	defer stop()

	env, err := setupEnvironment(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up: %v\n", err)
		return 1
	}
	defer env.close()

	ws, err := env.client.GetWorkspaceByName(ctx, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve workspace: %v\n", err)
		return 1
	}

	exporter, err := export.New(env.client, env.cfg.Export.Root, env.cfg.Export.ItemDelay)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up exporter: %v\n", err)
		return 1
	}

	report, err := exporter.ExportWorkspace(ctx, ws)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		return 1
	}

	fmt.Printf("Exported %d items (%d skipped, %d failed) to %s\n",
		report.Exported, report.Skipped, report.Failed, env.cfg.Export.Root)
	if report.Failed > 0 {
		return 1
	}
	return 0
}

func runWorkspaceClone(args []string) int {
	fs := flag.NewFlagSet("clone", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	source := fs.String("source", "", "Display name of the source workspace")
	target := fs.String("target", "", "Display name of the target workspace to create")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if strings.TrimSpace(*source) == "" || strings.TrimSpace(*target) == "" {
		fmt.Fprintln(os.Stderr, "Usage: tenantforge workspace clone --source <workspace> --target <workspace>")
		return 1
	}

	ctx, stop := signalContext()
	defer stop()

	env, err := setupEnvironment(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up: %v\n", err)
		return 1
	}
	defer env.close()

	provisioner := tenant.NewProvisioner(env.client, env.runner, env.opts)
	report, err := provisioner.CloneWorkspace(ctx, *source, *target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Clone failed: %v\n", err)
		return 1
	}

	fmt.Printf("Cloned %d items into %q (%d skipped, %d failed)\n",
		report.Cloned, report.Target.DisplayName, report.Skipped, len(report.Failures))
	for _, failure := range report.Failures {
		fmt.Fprintf(os.Stderr, "  - %v\n", failure)
	}
	if len(report.Failures) > 0 {
		return 1
	}
	return 0
}

func runMock(args []string) int {
	fs := flag.NewFlagSet("mock", flag.ContinueOnError)
	listen := fs.String("listen", "127.0.0.1:8181", "Address to serve the mock platform on")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	log.Setup("INFO")
	logger := log.WithComponent("mock")

	ctx, stop := signalContext()
	defer stop()

	srv := &http.Server{
		Addr:    *listen,
		Handler: platformtest.NewServer().Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mock platform listening", "addr", *listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		logger.Info("mock platform stopped")
		return 0
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "Mock platform failed: %v\n", err)
		return 1
	}
}

func runVersion() int {
	v := strings.TrimSpace(version)
	if info, ok := debug.ReadBuildInfo(); ok && v == "" {
		v = info.Main.Version
	}
	fmt.Printf("tenantforge %s\n", v)
	return 0
}

// --- WIRING ---

type environment struct {
	cfg    *config.Config
	client *platform.Client
	runner *jobs.Poller
	opts   tenant.Options
	ledger *ledger.Ledger
}

func (e *environment) close() {
	if err := e.ledger.Close(); err != nil {
		log.WithComponent("main").Warn("ledger close failed", "error", err)
	}
}

func setupEnvironment(ctx context.Context, configPath string) (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("tenantforge starting", "version", version, "config", configPath)

	client := platform.NewClient(cfg.Platform.BaseURL, cfg.Platform.Token, cfg.Platform.Timeout)
	runner := jobs.New(client, cfg.Jobs.PollInterval, cfg.Jobs.MaxWait)

	var db *ledger.Ledger
	if cfg.Ledger.Path != "" {
		db, err = ledger.Open(ctx, cfg.Ledger.Path)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		logger.Info("ledger opened", "path", cfg.Ledger.Path)
	}

	return &environment{
		cfg:    cfg,
		client: client,
		runner: runner,
		ledger: db,
		opts: tenant.Options{
			CapacityID: cfg.Platform.CapacityID,
			StepDelay:  cfg.Jobs.StepDelay,
			Ledger:     db,
		},
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// --- HELP ---

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printUsage() {
	fmt.Print(`tenantforge - Analytics tenant provisioning for the data platform

Usage:
  tenantforge <noun> <action> [flags]

Tenant Commands:
  tenant create       Provision a new tenant workspace from templates

Workspace Commands:
  workspace export    Export item definitions to the local filesystem
  workspace clone     Clone a workspace, rewriting item references

Utilities:
  mock                Run the in-memory mock platform server
  version             Show version information
  help                Show this help message

Use 'tenantforge <noun> help' for resource-specific flags.
`)
}

func printTenantNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: tenantforge tenant <action> [flags]")
	fmt.Fprintln(w, "Actions: create")
}

func printWorkspaceNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: tenantforge workspace <action> [flags]")
	fmt.Fprintln(w, "Actions: export, clone")
}

func printTenantCreateHelp() {
	fmt.Println("Usage: tenantforge tenant create --name <workspace> [--kind lakehouse|warehouse] [--config PATH]")
	fmt.Println("Provision a workspace with a lakehouse or warehouse layout, run the")
	fmt.Println("setup workloads, and bind a DirectLake model and report.")
}

func printWorkspaceExportHelp() {
	fmt.Println("Usage: tenantforge workspace export --name <workspace> [--config PATH]")
	fmt.Println("Export every item definition of the workspace under the configured export root.")
}

func printWorkspaceCloneHelp() {
	fmt.Println("Usage: tenantforge workspace clone --source <workspace> --target <workspace> [--config PATH]")
	fmt.Println("Create the target workspace and clone the source's items into it,")
	fmt.Println("rewriting cross-item references to point at the cloned siblings.")
}
