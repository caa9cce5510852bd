// Package export writes workspace item definitions to the local
// filesystem: one directory per item, one file per decoded part, plus a
// manifest recording part checksums. Exports are best-effort; a failing
// item or part is logged and the rest of the workspace still lands.
package export

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/fabworks/tenantforge/internal/definition"
	"github.com/fabworks/tenantforge/internal/log"
	"github.com/fabworks/tenantforge/internal/platform"
)

// ManifestName is the per-item manifest file written next to the parts.
const ManifestName = "manifest.yaml"

// API is the read-only platform surface the exporter needs.
type API interface {
	ListItems(ctx context.Context, workspaceID string, kind platform.ItemKind) ([]platform.Item, error)
	GetItemDefinition(ctx context.Context, workspaceID, itemID, format string) (definition.Definition, error)
}

// unsupportedKinds do not expose definitions; the exporter skips them.
var unsupportedKinds = map[platform.ItemKind]bool{
	platform.KindLakehouse:       true,
	platform.KindSQLEndpoint:     true,
	platform.KindWarehouse:       true,
	platform.KindDashboard:       true,
	platform.KindDatamart:        true,
	platform.KindPaginatedReport: true,
}

// Exporter exports item definitions under a local root directory.
type Exporter struct {
	api       API
	root      string
	itemDelay time.Duration
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// Report summarizes one export run.
type Report struct {
	Exported int
	Skipped  int
	Failed   int
}

// New creates an exporter rooted at root. itemDelay is the pause between
// per-item definition fetches so bulk exports stay under platform
// throttling limits; zero disables the pause.
func New(api API, root string, itemDelay time.Duration) (*Exporter, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, fmt.Errorf("export root directory is empty")
	}
	return &Exporter{
		api:       api,
		root:      filepath.Clean(trimmed),
		itemDelay: itemDelay,
		logger:    log.WithComponent("export"),
		sleep:     sleepContext,
	}, nil
}

// ExportWorkspace writes every exportable item definition of the workspace
// under <root>/<workspace name>. Any previous export tree for the same
// workspace name is removed first. Per-item failures are logged and
// counted, not fatal.
func (e *Exporter) ExportWorkspace(ctx context.Context, ws platform.Workspace) (Report, error) {
	wsDir := filepath.Join(e.root, ws.DisplayName)
	if err := os.RemoveAll(wsDir); err != nil {
		return Report{}, fmt.Errorf("clear previous export for workspace %q: %w", ws.DisplayName, err)
	}

	items, err := e.api.ListItems(ctx, ws.ID, "")
	if err != nil {
		return Report{}, fmt.Errorf("list items of workspace %q: %w", ws.DisplayName, err)
	}

	wsLogger := e.logger.With("workspace", ws.DisplayName)
	wsLogger.Info("exporting workspace items", "items", len(items))

	report := Report{}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if unsupportedKinds[item.Kind] {
			report.Skipped++
			continue
		}

		// Pause between definition fetches; the platform throttles bulk
		// definition reads well below normal API rates.
		if i > 0 && e.itemDelay > 0 {
			if err := e.sleep(ctx, e.itemDelay); err != nil {
				return report, err
			}
		}

		if err := e.exportItem(ctx, wsDir, ws, item); err != nil {
			wsLogger.Error("item export failed",
				"item_kind", string(item.Kind),
				"item_name", item.DisplayName,
				"error", err,
			)
			report.Failed++
			continue
		}
		report.Exported++
	}

	wsLogger.Info("export complete",
		"exported", report.Exported,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (e *Exporter) exportItem(ctx context.Context, wsDir string, ws platform.Workspace, item platform.Item) error {
	format := ExportFormat(item.Kind)
	def, err := e.api.GetItemDefinition(ctx, ws.ID, item.ID, format)
	if err != nil {
		return err
	}

	itemDir := filepath.Join(wsDir, item.DisplayName+"."+string(item.Kind))
	e.logger.Debug("exporting item", "dir", itemDir, "parts", len(def.Parts))

	// The manifest lands even when the definition has no parts.
	if err := os.MkdirAll(itemDir, 0o755); err != nil {
		return fmt.Errorf("create directory for item %q: %w", item.DisplayName, err)
	}

	m := manifest{
		Item:   item.DisplayName,
		Kind:   string(item.Kind),
		Format: format,
	}

	var firstErr error
	for _, part := range def.Parts {
		content, err := e.writePart(itemDir, part)
		if err != nil {
			// Best-effort: keep writing the remaining parts.
			e.logger.Error("part export failed", "part", part.Path, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sum := blake3.Sum256(content)
		m.Parts = append(m.Parts, manifestPart{
			Path:   part.Path,
			Size:   len(content),
			Blake3: hex.EncodeToString(sum[:]),
		})
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest for item %q: %w", item.DisplayName, err)
	}
	if err := os.WriteFile(filepath.Join(itemDir, ManifestName), data, 0o644); err != nil {
		return fmt.Errorf("write manifest for item %q: %w", item.DisplayName, err)
	}
	return firstErr
}

// writePart decodes one part and writes it under itemDir, translating the
// part's forward-slash path to the host separator. Returns the decoded
// content for checksumming.
func (e *Exporter) writePart(itemDir string, part definition.Part) ([]byte, error) {
	if err := validatePartPath(part.Path); err != nil {
		return nil, err
	}

	content, err := part.Decode()
	if err != nil {
		return nil, err
	}

	fullPath := filepath.Join(itemDir, filepath.FromSlash(part.Path))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for part %q: %w", part.Path, err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return nil, fmt.Errorf("write part %q: %w", part.Path, err)
	}
	return content, nil
}

func validatePartPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("part path is empty")
	}
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("part path %q is absolute", path)
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return fmt.Errorf("part path %q escapes the item directory", path)
		}
	}
	return nil
}

// ExportFormat returns the preferred interchange format for exporting a
// kind, or empty for the platform default.
func ExportFormat(kind platform.ItemKind) string {
	switch kind {
	case platform.KindReport:
		return "PBIR-Legacy"
	case platform.KindSemanticModel:
		return "TMSL"
	case platform.KindNotebook:
		return "ipynb"
	default:
		return ""
	}
}

type manifest struct {
	Item   string         `yaml:"item"`
	Kind   string         `yaml:"kind"`
	Format string         `yaml:"format,omitempty"`
	Parts  []manifestPart `yaml:"parts"`
}

type manifestPart struct {
	Path   string `yaml:"path"`
	Size   int    `yaml:"size"`
	Blake3 string `yaml:"blake3"`
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
