package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/fabworks/tenantforge/internal/definition"
	"github.com/fabworks/tenantforge/internal/export"
	"github.com/fabworks/tenantforge/internal/platform"
)

// cloneOrder lists the per-kind clone passes. Referenced kinds come before
// referencing kinds so their new IDs are in the redirect map when the
// referencing definitions are rewritten: lakehouses before models (SQL
// endpoints), models before reports (model bindings).
var cloneOrder = []platform.ItemKind{
	platform.KindLakehouse,
	platform.KindSemanticModel,
	platform.KindNotebook,
	platform.KindReport,
}

// rewritePartByKind names the one definition part per kind that embeds
// references to other items.
var rewritePartByKind = map[platform.ItemKind]string{
	platform.KindSemanticModel: "model.bim",
	platform.KindNotebook:      "notebook-content.ipynb",
	platform.KindReport:        "definition.pbir",
}

// ItemOperationFailed wraps a per-item failure during a bulk workflow. The
// workflow logs it and moves on; the caller gets the collected failures in
// the clone report.
type ItemOperationFailed struct {
	Op   string
	Item platform.Item
	Err  error
}

func (e *ItemOperationFailed) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Op, e.Item.Kind, e.Item.DisplayName, e.Err)
}

func (e *ItemOperationFailed) Unwrap() error { return e.Err }

// CloneReport is the outcome of one CloneWorkspace run.
type CloneReport struct {
	Source   platform.Workspace
	Target   platform.Workspace
	Cloned   int
	Skipped  int
	Failures []error
}

// CloneWorkspace copies the items of the source workspace into a freshly
// created target workspace, rewriting cross-item references so clones
// point at their cloned siblings instead of the source items. Items are
// cloned kind by kind in dependency order; per-item failures are logged
// and collected, not fatal. The redirect map lives only for the duration
// of this call.
func (p *Provisioner) CloneWorkspace(ctx context.Context, sourceName, targetName string) (CloneReport, error) {
	source, err := p.api.GetWorkspaceByName(ctx, sourceName)
	if err != nil {
		return CloneReport{}, fmt.Errorf("resolve source workspace %q: %w", sourceName, err)
	}

	target, err := p.createWorkspace(ctx, targetName, "clone of "+sourceName)
	if err != nil {
		return CloneReport{}, err
	}

	report := CloneReport{Source: source, Target: target}
	cloneLogger := p.logger.With("source", sourceName, "target", targetName)

	redirects := definition.Redirects{}
	redirects.Add(source.ID, target.ID)

	// Display names of cloned lakehouses; a semantic model carrying one of
	// these names is the platform's auto-generated default model for that
	// lakehouse and must not be cloned as well.
	lakehouseNames := make(map[string]bool)

	for _, kind := range cloneOrder {
		items, err := p.api.ListItems(ctx, source.ID, kind)
		if err != nil {
			return report, fmt.Errorf("list %s items of workspace %q: %w", kind, sourceName, err)
		}

		for _, item := range items {
			if kind == platform.KindSemanticModel && lakehouseNames[item.DisplayName] {
				cloneLogger.Info("skipping default semantic model", "item_name", item.DisplayName)
				report.Skipped++
				continue
			}

			if err := p.cloneItem(ctx, source, target, item, &redirects, lakehouseNames); err != nil {
				failure := &ItemOperationFailed{Op: "clone", Item: item, Err: err}
				cloneLogger.Error("item clone failed",
					"item_kind", string(item.Kind),
					"item_name", item.DisplayName,
					"error", err,
				)
				report.Failures = append(report.Failures, failure)
				continue
			}
			report.Cloned++
		}
	}

	cloneLogger.Info("workspace clone complete",
		"cloned", report.Cloned,
		"skipped", report.Skipped,
		"failed", len(report.Failures),
	)
	return report, nil
}

// cloneItem copies one item into the target workspace and extends the
// redirect map with the identifiers the clone produced.
func (p *Provisioner) cloneItem(ctx context.Context, source, target platform.Workspace, item platform.Item, redirects *definition.Redirects, lakehouseNames map[string]bool) error {
	if item.Kind == platform.KindLakehouse {
		return p.cloneLakehouse(ctx, source, target, item, redirects, lakehouseNames)
	}

	def, err := p.api.GetItemDefinition(ctx, source.ID, item.ID, export.ExportFormat(item.Kind))
	if err != nil {
		return err
	}

	def, err = rewriteKnownPart(def, item.Kind, *redirects)
	if err != nil {
		return err
	}

	clone, err := p.createItem(ctx, target, platform.CreateItemRequest{
		DisplayName: item.DisplayName,
		Description: item.Description,
		Kind:        item.Kind,
		Definition:  &def,
	}, item.ID)
	if err != nil {
		return err
	}

	redirects.Add(item.ID, clone.ID)
	return nil
}

// cloneLakehouse creates an empty lakehouse in the target and maps the
// source lakehouse's ID, SQL endpoint ID, and connection string to the
// clone's, so later passes rewrite model and notebook bindings correctly.
func (p *Provisioner) cloneLakehouse(ctx context.Context, source, target platform.Workspace, item platform.Item, redirects *definition.Redirects, lakehouseNames map[string]bool) error {
	clone, err := p.createItem(ctx, target, platform.CreateItemRequest{
		DisplayName: item.DisplayName,
		Description: item.Description,
		Kind:        platform.KindLakehouse,
	}, item.ID)
	if err != nil {
		return err
	}
	redirects.Add(item.ID, clone.ID)
	lakehouseNames[item.DisplayName] = true

	sourceLakehouse, err := p.api.GetLakehouse(ctx, source.ID, item.ID)
	if err != nil {
		return fmt.Errorf("read source lakehouse %q: %w", item.DisplayName, err)
	}

	targetEndpoint, err := p.WaitForSQLEndpoint(ctx, target.ID, clone.ID)
	if err != nil {
		return err
	}

	sourceEndpoint := sourceLakehouse.Properties.SQLEndpointProperties
	if sourceEndpoint.ConnectionString != "" {
		redirects.Add(sourceEndpoint.ConnectionString, targetEndpoint.ConnectionString)
	}
	if sourceEndpoint.ID != "" {
		redirects.Add(sourceEndpoint.ID, targetEndpoint.ID)
	}
	return nil
}

// rewriteKnownPart applies the redirect map to the kind's reference-bearing
// part. Kinds without one, and definitions missing the expected part, pass
// through unchanged.
func rewriteKnownPart(def definition.Definition, kind platform.ItemKind, redirects definition.Redirects) (definition.Definition, error) {
	path, ok := rewritePartByKind[kind]
	if !ok {
		return def, nil
	}
	rewritten, err := definition.RewritePart(def, path, redirects)
	if errors.Is(err, definition.ErrPartNotFound) {
		return def, nil
	}
	if err != nil {
		return definition.Definition{}, err
	}
	return rewritten, nil
}
