package main

import (
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fabworks/tenantforge/internal/platformtest"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func captureRunCLI(t *testing.T, args []string) (int, string, string) {
	t.Helper()
	return captureOutputWithExitCode(t, func() int {
		return runCLI(args)
	})
}

// writeTestConfig points the CLI at an in-process fake platform. Durations
// are integer nanoseconds, the form yaml decodes into time.Duration.
func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(`
platform:
  base_url: %s
  token: test-token
jobs:
  poll_interval: 1000000
`, baseURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func startFakePlatform(t *testing.T) (*platformtest.Server, string) {
	t.Helper()
	fake := platformtest.NewServer()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return fake, srv.URL
}

func TestRunCLINoArgsPrintsUsage(t *testing.T) {
	code, stdout, _ := captureRunCLI(t, nil)
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Fatalf("stdout missing usage: %s", stdout)
	}
}

func TestRunCLIUnknownCommand(t *testing.T) {
	code, _, stderr := captureRunCLI(t, []string{"bogus"})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Unknown command: bogus") {
		t.Fatalf("stderr missing unknown command message: %s", stderr)
	}
}

func TestRunCLIHelp(t *testing.T) {
	for _, args := range [][]string{{"help"}, {"--help"}, {"-h"}} {
		code, stdout, _ := captureRunCLI(t, args)
		if code != 0 {
			t.Fatalf("runCLI(%v) code = %d, want 0", args, code)
		}
		if !strings.Contains(stdout, "tenant create") || !strings.Contains(stdout, "workspace clone") {
			t.Fatalf("runCLI(%v) stdout missing command list: %s", args, stdout)
		}
	}
}

func TestRunCLIVersion(t *testing.T) {
	code, stdout, _ := captureRunCLI(t, []string{"version"})
	if code != 0 {
		t.Fatalf("runCLI() code = %d, want 0", code)
	}
	if !strings.Contains(stdout, "tenantforge "+version) {
		t.Fatalf("stdout missing version string: %s", stdout)
	}
}

func TestTenantNounWithoutAction(t *testing.T) {
	code, _, stderr := captureRunCLI(t, []string{"tenant"})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Usage: tenantforge tenant") {
		t.Fatalf("stderr missing noun usage: %s", stderr)
	}
}

func TestTenantNounHelp(t *testing.T) {
	code, stdout, _ := captureRunCLI(t, []string{"tenant", "help"})
	if code != 0 {
		t.Fatalf("runCLI() code = %d, want 0", code)
	}
	if !strings.Contains(stdout, "Actions: create") {
		t.Fatalf("stdout missing tenant actions: %s", stdout)
	}
}

func TestTenantUnknownAction(t *testing.T) {
	code, _, stderr := captureRunCLI(t, []string{"tenant", "destroy"})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Unknown tenant action: destroy") {
		t.Fatalf("stderr missing unknown action message: %s", stderr)
	}
}

func TestWorkspaceUnknownAction(t *testing.T) {
	code, _, stderr := captureRunCLI(t, []string{"workspace", "shred"})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Unknown workspace action: shred") {
		t.Fatalf("stderr missing unknown action message: %s", stderr)
	}
}

func TestTenantCreateHelpFlag(t *testing.T) {
	code, stdout, _ := captureRunCLI(t, []string{"tenant", "create", "--help"})
	if code != 0 {
		t.Fatalf("runCLI() code = %d, want 0", code)
	}
	if !strings.Contains(stdout, "Usage: tenantforge tenant create") {
		t.Fatalf("stdout missing create usage: %s", stdout)
	}
}

func TestTenantCreateRequiresName(t *testing.T) {
	code, _, stderr := captureRunCLI(t, []string{"tenant", "create"})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "--name") {
		t.Fatalf("stderr missing name hint: %s", stderr)
	}
}

func TestTenantCreateRejectsUnknownFlag(t *testing.T) {
	code, _, stderr := captureRunCLI(t, []string{"tenant", "create", "--bogus"})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Flag error") {
		t.Fatalf("stderr missing flag error: %s", stderr)
	}
}

func TestTenantCreateRejectsUnknownKind(t *testing.T) {
	_, baseURL := startFakePlatform(t)
	configPath := writeTestConfig(t, baseURL)

	code, _, stderr := captureRunCLI(t, []string{
		"tenant", "create", "--config", configPath, "--name", "Acme Corp", "--kind", "datamart",
	})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Unknown tenant kind: datamart") {
		t.Fatalf("stderr missing kind message: %s", stderr)
	}
}

func TestWorkspaceExportRequiresName(t *testing.T) {
	code, _, stderr := captureRunCLI(t, []string{"workspace", "export"})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "--name") {
		t.Fatalf("stderr missing name hint: %s", stderr)
	}
}

func TestWorkspaceCloneRequiresSourceAndTarget(t *testing.T) {
	for _, args := range [][]string{
		{"workspace", "clone"},
		{"workspace", "clone", "--source", "src"},
		{"workspace", "clone", "--target", "dst"},
	} {
		code, _, stderr := captureRunCLI(t, args)
		if code != 1 {
			t.Fatalf("runCLI(%v) code = %d, want 1", args, code)
		}
		if !strings.Contains(stderr, "--source <workspace> --target <workspace>") {
			t.Fatalf("runCLI(%v) stderr missing usage: %s", args, stderr)
		}
	}
}

func TestWorkspaceCloneAgainstFakePlatform(t *testing.T) {
	fake, baseURL := startFakePlatform(t)
	fake.AddWorkspace("Source Tenant")
	configPath := writeTestConfig(t, baseURL)

	code, stdout, stderr := captureRunCLI(t, []string{
		"workspace", "clone", "--config", configPath, "--source", "Source Tenant", "--target", "Target Tenant",
	})
	if code != 0 {
		t.Fatalf("runCLI() code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, `Cloned 0 items into "Target Tenant"`) {
		t.Fatalf("stdout missing clone summary: %s", stdout)
	}
}

func TestWorkspaceCloneUnknownSource(t *testing.T) {
	_, baseURL := startFakePlatform(t)
	configPath := writeTestConfig(t, baseURL)

	code, _, stderr := captureRunCLI(t, []string{
		"workspace", "clone", "--config", configPath, "--source", "No Such Tenant", "--target", "Target Tenant",
	})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Clone failed") {
		t.Fatalf("stderr missing clone failure: %s", stderr)
	}
}
