package tenant_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabworks/tenantforge/internal/definition"
	"github.com/fabworks/tenantforge/internal/jobs"
	"github.com/fabworks/tenantforge/internal/platform"
	"github.com/fabworks/tenantforge/internal/platformtest"
	"github.com/fabworks/tenantforge/internal/tenant"
)

func newCloneFixture(t *testing.T) (*tenant.Provisioner, *platform.Client, *platformtest.Server) {
	t.Helper()
	fake := platformtest.NewServer()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	client := platform.NewClient(srv.URL, "test-token", 5*time.Second)
	runner := jobs.New(client, time.Millisecond, time.Second)
	p := tenant.NewProvisioner(client, runner, tenant.Options{
		EndpointPollInterval: time.Millisecond,
		EndpointMaxWait:      time.Second,
	})
	return p, client, fake
}

func singleDef(path, content string) *definition.Definition {
	return &definition.Definition{Parts: []definition.Part{
		definition.NewInlineBase64Part(path, []byte(content)),
	}}
}

func decodedTargetPart(t *testing.T, fake *platformtest.Server, itemID, path string) string {
	t.Helper()
	def, ok := fake.ItemDefinition(itemID)
	require.True(t, ok, "item %q has no stored definition", itemID)
	part, err := def.FindPart(path)
	require.NoError(t, err)
	content, err := part.Decode()
	require.NoError(t, err)
	return string(content)
}

func findTargetItem(t *testing.T, fake *platformtest.Server, workspaceID string, kind platform.ItemKind, name string) platform.Item {
	t.Helper()
	for _, item := range fake.Items(workspaceID) {
		if item.Kind == kind && item.DisplayName == name {
			return item
		}
	}
	t.Fatalf("no %s named %q in workspace %q", kind, name, workspaceID)
	return platform.Item{}
}

func TestCloneWorkspaceRewritesReferences(t *testing.T) {
	t.Parallel()
	p, client, fake := newCloneFixture(t)
	ctx := context.Background()

	source := fake.AddWorkspace("source")
	lakehouse := fake.AddItem(source.ID, platform.KindLakehouse, "sales", nil)

	sourceLakehouse, err := client.GetLakehouse(ctx, source.ID, lakehouse.ID)
	require.NoError(t, err)
	sourceEndpoint := sourceLakehouse.Properties.SQLEndpointProperties

	// The platform generates a default model named after the lakehouse; it
	// must not be cloned.
	fake.AddItem(source.ID, platform.KindSemanticModel, "sales",
		singleDef("model.bim", `{"name": "sales default model"}`))

	model := fake.AddItem(source.ID, platform.KindSemanticModel, "Product Sales",
		singleDef("model.bim", `{"server": "`+sourceEndpoint.ConnectionString+`", "workspace": "`+source.ID+`"}`))

	fake.AddItem(source.ID, platform.KindNotebook, "Create Lakehouse Tables",
		singleDef("notebook-content.ipynb", `{"default_lakehouse": "`+lakehouse.ID+`", "workspace": "`+source.ID+`"}`))

	fake.AddItem(source.ID, platform.KindReport, "Sales Report",
		singleDef("definition.pbir", `{"pbiModelDatabaseName": "`+model.ID+`"}`))

	report, err := p.CloneWorkspace(ctx, "source", "target")
	require.NoError(t, err)
	require.Empty(t, report.Failures)
	assert.Equal(t, 4, report.Cloned)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, "target", report.Target.DisplayName)

	// Exactly one semantic model reaches the target: the default model was
	// skipped by name collision with the cloned lakehouse.
	var targetModels []platform.Item
	for _, item := range fake.Items(report.Target.ID) {
		if item.Kind == platform.KindSemanticModel {
			targetModels = append(targetModels, item)
		}
	}
	require.Len(t, targetModels, 1)
	assert.Equal(t, "Product Sales", targetModels[0].DisplayName)

	targetLakehouse := findTargetItem(t, fake, report.Target.ID, platform.KindLakehouse, "sales")
	clonedTarget, err := client.GetLakehouse(ctx, report.Target.ID, targetLakehouse.ID)
	require.NoError(t, err)
	targetEndpoint := clonedTarget.Properties.SQLEndpointProperties

	modelContent := decodedTargetPart(t, fake, targetModels[0].ID, "model.bim")
	assert.Contains(t, modelContent, targetEndpoint.ConnectionString)
	assert.NotContains(t, modelContent, sourceEndpoint.ConnectionString)
	assert.Contains(t, modelContent, report.Target.ID)
	assert.NotContains(t, modelContent, source.ID)

	targetNotebook := findTargetItem(t, fake, report.Target.ID, platform.KindNotebook, "Create Lakehouse Tables")
	notebookContent := decodedTargetPart(t, fake, targetNotebook.ID, "notebook-content.ipynb")
	assert.Contains(t, notebookContent, targetLakehouse.ID)
	assert.NotContains(t, notebookContent, lakehouse.ID)

	targetReport := findTargetItem(t, fake, report.Target.ID, platform.KindReport, "Sales Report")
	reportContent := decodedTargetPart(t, fake, targetReport.ID, "definition.pbir")
	assert.Contains(t, reportContent, targetModels[0].ID)
	assert.NotContains(t, reportContent, model.ID)
}

func TestCloneWorkspaceContinuesPastItemFailures(t *testing.T) {
	t.Parallel()
	p, _, fake := newCloneFixture(t)
	ctx := context.Background()

	source := fake.AddWorkspace("source")
	// No definition stored, so fetching it fails with a 400.
	fake.AddItem(source.ID, platform.KindNotebook, "broken", nil)
	fake.AddItem(source.ID, platform.KindNotebook, "working",
		singleDef("notebook-content.ipynb", `{"cells": []}`))

	report, err := p.CloneWorkspace(ctx, "source", "target")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Cloned)
	require.Len(t, report.Failures, 1)

	var opErr *tenant.ItemOperationFailed
	require.True(t, errors.As(report.Failures[0], &opErr))
	assert.Equal(t, "broken", opErr.Item.DisplayName)
	assert.Equal(t, "clone", opErr.Op)

	findTargetItem(t, fake, report.Target.ID, platform.KindNotebook, "working")
}

func TestCloneWorkspaceUnknownSource(t *testing.T) {
	t.Parallel()
	p, _, _ := newCloneFixture(t)

	_, err := p.CloneWorkspace(context.Background(), "missing", "target")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestCloneWorkspacePreservesPartsWithoutKnownRewrite(t *testing.T) {
	t.Parallel()
	p, _, fake := newCloneFixture(t)
	ctx := context.Background()

	source := fake.AddWorkspace("source")
	// A report without the reference-bearing part clones as-is.
	fake.AddItem(source.ID, platform.KindReport, "static",
		singleDef("report.json", `{"sections": []}`))

	report, err := p.CloneWorkspace(ctx, "source", "target")
	require.NoError(t, err)
	require.Empty(t, report.Failures)

	cloned := findTargetItem(t, fake, report.Target.ID, platform.KindReport, "static")
	assert.Equal(t, `{"sections": []}`, decodedTargetPart(t, fake, cloned.ID, "report.json"))
}
