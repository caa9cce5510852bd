package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fabworks/tenantforge/internal/jobs"
	"github.com/fabworks/tenantforge/internal/ledger"
	"github.com/fabworks/tenantforge/internal/log"
	"github.com/fabworks/tenantforge/internal/platform"
)

// Display names used when provisioning tenants from templates.
const (
	lakehouseName       = "sales"
	stagingName         = "staging"
	warehouseName       = "sales"
	setupNotebookName   = "Create Lakehouse Tables"
	directLakeModelName = "Product Sales DirectLake"
	warehouseModelName  = "Product Sales"
)

// warehousePipelines are created and run in order when provisioning a
// warehouse tenant. Later scripts assume the earlier ones have finished.
var warehousePipelines = []struct {
	displayName string
	script      string
}{
	{"Create Warehouse Tables", "EXEC create_all_tables"},
	{"Create Warehouse Stored Procedures", "EXEC create_stored_procedures"},
	{"Refresh All Warehouse Tables", "EXEC refresh_products; EXEC refresh_customers; EXEC refresh_sales; EXEC refresh_calendar"},
}

// Options configures a Provisioner.
type Options struct {
	// CapacityID assigns new workspaces to a capacity when non-empty.
	CapacityID string

	// StorageConnectionID names the external storage connection used by
	// the staging copy pipeline.
	StorageConnectionID string

	// StepDelay is an optional pause between consecutive platform calls,
	// the throttling guard for bulk workflows. Zero disables it.
	StepDelay time.Duration

	// EndpointPollInterval and EndpointMaxWait bound the wait for a
	// lakehouse SQL endpoint to finish provisioning.
	EndpointPollInterval time.Duration
	EndpointMaxWait      time.Duration

	// Ledger records provisioned items and job outcomes; nil disables
	// bookkeeping.
	Ledger *ledger.Ledger
}

// Tenant is the outcome of one provisioning workflow.
type Tenant struct {
	Workspace platform.Workspace
	Lakehouse platform.Item
	Warehouse platform.Item
	Notebook  platform.Item
	Pipelines []platform.Item
	Model     platform.Item
	Report    platform.Item
}

// Provisioner runs multi-step tenant workflows. Steps within one workflow
// execute strictly in order; there is no concurrency inside a workflow.
type Provisioner struct {
	api    ItemAPI
	runner JobRunner
	opts   Options
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewProvisioner creates a provisioner over the given platform surface and
// job runner.
func NewProvisioner(api ItemAPI, runner JobRunner, opts Options) *Provisioner {
	if opts.EndpointPollInterval <= 0 {
		opts.EndpointPollInterval = 10 * time.Second
	}
	if opts.EndpointMaxWait <= 0 {
		opts.EndpointMaxWait = 10 * time.Minute
	}
	return &Provisioner{
		api:    api,
		runner: runner,
		opts:   opts,
		logger: log.WithComponent("tenant"),
		sleep:  sleepContext,
	}
}

// CreateLakehouseTenant provisions a workspace with a lakehouse, a setup
// notebook (run to completion), a DirectLake semantic model bound to the
// lakehouse SQL endpoint, and a report bound to the model.
func (p *Provisioner) CreateLakehouseTenant(ctx context.Context, name string) (Tenant, error) {
	ws, err := p.createWorkspace(ctx, name, "analytics tenant")
	if err != nil {
		return Tenant{}, err
	}
	tenant := Tenant{Workspace: ws}
	wsLogger := p.logger.With("workspace", ws.DisplayName)

	tenant.Lakehouse, err = p.createItem(ctx, ws, platform.CreateItemRequest{
		DisplayName: lakehouseName,
		Kind:        platform.KindLakehouse,
	}, "")
	if err != nil {
		return tenant, err
	}

	tenant.Notebook, err = p.createItem(ctx, ws,
		NotebookCreateRequest(ws.ID, tenant.Lakehouse, setupNotebookName, notebookTemplate), "")
	if err != nil {
		return tenant, err
	}

	params := jobs.NotebookParameters(map[string]string{
		"lakehouse_id":   tenant.Lakehouse.ID,
		"lakehouse_name": tenant.Lakehouse.DisplayName,
	})
	if err := p.runJob(ctx, ws, tenant.Notebook, jobs.KindRunNotebook, params); err != nil {
		return tenant, err
	}

	endpoint, err := p.WaitForSQLEndpoint(ctx, ws.ID, tenant.Lakehouse.ID)
	if err != nil {
		return tenant, err
	}
	wsLogger.Info("lakehouse SQL endpoint provisioned",
		"server", endpoint.ConnectionString,
		"database", endpoint.ID,
	)

	tenant.Model, err = p.createItem(ctx, ws,
		DirectLakeModelCreateRequest(directLakeModelName, endpoint.ConnectionString, endpoint.ID), "")
	if err != nil {
		return tenant, err
	}

	tenant.Report, err = p.createItem(ctx, ws,
		ReportCreateRequest(tenant.Model.ID, directLakeModelName), "")
	if err != nil {
		return tenant, err
	}

	wsLogger.Info("lakehouse tenant provisioning complete")
	return tenant, nil
}

// CreateWarehouseTenant provisions a workspace with a staging lakehouse,
// a copy pipeline that loads it, a warehouse, the warehouse setup
// pipelines (run in order), a DirectLake model bound to the warehouse, and
// a report bound to the model.
func (p *Provisioner) CreateWarehouseTenant(ctx context.Context, name string) (Tenant, error) {
	ws, err := p.createWorkspace(ctx, name, "analytics tenant")
	if err != nil {
		return Tenant{}, err
	}
	tenant := Tenant{Workspace: ws}
	wsLogger := p.logger.With("workspace", ws.DisplayName)

	staging, err := p.createItem(ctx, ws, platform.CreateItemRequest{
		DisplayName: stagingName,
		Kind:        platform.KindLakehouse,
	}, "")
	if err != nil {
		return tenant, err
	}
	tenant.Lakehouse = staging

	copyPipeline, err := p.createItem(ctx, ws,
		LakehousePipelineCreateRequest("Copy Data Files To Staging Lakehouse",
			copyDataPipelineTemplate, ws.ID, staging.ID, p.opts.StorageConnectionID), "")
	if err != nil {
		return tenant, err
	}
	tenant.Pipelines = append(tenant.Pipelines, copyPipeline)

	if err := p.runJob(ctx, ws, copyPipeline, jobs.KindPipeline, nil); err != nil {
		return tenant, err
	}

	endpoint, err := p.WaitForSQLEndpoint(ctx, ws.ID, staging.ID)
	if err != nil {
		return tenant, err
	}
	wsLogger.Info("staging lakehouse SQL endpoint provisioned",
		"server", endpoint.ConnectionString,
		"database", endpoint.ID,
	)

	tenant.Warehouse, err = p.createItem(ctx, ws, platform.CreateItemRequest{
		DisplayName: warehouseName,
		Kind:        platform.KindWarehouse,
	}, "")
	if err != nil {
		return tenant, err
	}

	warehouse, err := p.api.GetWarehouse(ctx, ws.ID, tenant.Warehouse.ID)
	if err != nil {
		return tenant, fmt.Errorf("read connection string of warehouse %q: %w", warehouseName, err)
	}
	wsLogger.Info("warehouse created", "server", warehouse.Properties.ConnectionString)

	for _, spec := range warehousePipelines {
		pipeline, err := p.createItem(ctx, ws,
			WarehousePipelineCreateRequest(spec.displayName, WarehouseScriptContent(spec.script),
				ws.ID, tenant.Warehouse.ID, warehouse.Properties.ConnectionString), "")
		if err != nil {
			return tenant, err
		}
		tenant.Pipelines = append(tenant.Pipelines, pipeline)

		if err := p.runJob(ctx, ws, pipeline, jobs.KindPipeline, nil); err != nil {
			return tenant, err
		}
	}

	tenant.Model, err = p.createItem(ctx, ws,
		DirectLakeModelCreateRequest(warehouseModelName, warehouse.Properties.ConnectionString, warehouseName), "")
	if err != nil {
		return tenant, err
	}

	tenant.Report, err = p.createItem(ctx, ws,
		ReportCreateRequest(tenant.Model.ID, warehouseModelName), "")
	if err != nil {
		return tenant, err
	}

	wsLogger.Info("warehouse tenant provisioning complete")
	return tenant, nil
}

// WaitForSQLEndpoint polls the lakehouse until its SQL endpoint reports
// provisioning success, honoring the configured interval and max wait.
func (p *Provisioner) WaitForSQLEndpoint(ctx context.Context, workspaceID, lakehouseID string) (platform.SQLEndpointProperties, error) {
	deadline := time.Now().Add(p.opts.EndpointMaxWait)

	for {
		lakehouse, err := p.api.GetLakehouse(ctx, workspaceID, lakehouseID)
		if err != nil {
			return platform.SQLEndpointProperties{}, fmt.Errorf("read lakehouse %q: %w", lakehouseID, err)
		}

		endpoint := lakehouse.Properties.SQLEndpointProperties
		if endpoint.ProvisioningStatus == "Success" {
			return endpoint, nil
		}

		p.logger.Debug("SQL endpoint still provisioning",
			"lakehouse_id", lakehouseID,
			"status", endpoint.ProvisioningStatus,
		)

		if time.Now().After(deadline) {
			return platform.SQLEndpointProperties{}, fmt.Errorf(
				"SQL endpoint of lakehouse %q not provisioned after %s", lakehouseID, p.opts.EndpointMaxWait)
		}
		if err := p.sleep(ctx, p.opts.EndpointPollInterval); err != nil {
			return platform.SQLEndpointProperties{}, err
		}
	}
}

// createWorkspace creates a workspace and assigns it to the configured
// capacity when one is set.
func (p *Provisioner) createWorkspace(ctx context.Context, name, description string) (platform.Workspace, error) {
	ws, err := p.api.CreateWorkspace(ctx, name, description)
	if err != nil {
		return platform.Workspace{}, fmt.Errorf("create workspace %q: %w", name, err)
	}
	p.logger.Info("workspace created", "workspace", ws.DisplayName, "workspace_id", ws.ID)

	if p.opts.CapacityID != "" {
		if err := p.api.AssignWorkspaceToCapacity(ctx, ws.ID, p.opts.CapacityID); err != nil {
			return ws, fmt.Errorf("assign workspace %q to capacity: %w", name, err)
		}
	}
	return ws, nil
}

// createItem creates one item, records it in the ledger, and applies the
// inter-call step delay. sourceItemID is non-empty for clones.
func (p *Provisioner) createItem(ctx context.Context, ws platform.Workspace, req platform.CreateItemRequest, sourceItemID string) (platform.Item, error) {
	if err := p.pause(ctx); err != nil {
		return platform.Item{}, err
	}

	item, err := p.api.CreateItem(ctx, ws.ID, req)
	if err != nil {
		return platform.Item{}, fmt.Errorf("create %s %q in workspace %q: %w", req.Kind, req.DisplayName, ws.DisplayName, err)
	}

	p.logger.Info("item created",
		"workspace", ws.DisplayName,
		"item_kind", string(item.Kind),
		"item_name", item.DisplayName,
		"item_id", item.ID,
	)

	if err := p.opts.Ledger.RecordItem(ctx, ws, item, sourceItemID); err != nil {
		p.logger.Warn("ledger write failed", "item_id", item.ID, "error", err)
	}
	return item, nil
}

// runJob runs one workload to a terminal state and treats any non-success
// terminal status as a workflow error.
func (p *Provisioner) runJob(ctx context.Context, ws platform.Workspace, item platform.Item, kind jobs.Kind, payload any) error {
	if err := p.pause(ctx); err != nil {
		return err
	}

	job, err := p.runner.Run(ctx, ws.ID, item.ID, kind, payload)
	if err != nil {
		return fmt.Errorf("run %s against %q: %w", kind, item.DisplayName, err)
	}

	if recErr := p.opts.Ledger.RecordJob(ctx, job); recErr != nil {
		p.logger.Warn("ledger write failed", "job_instance_id", job.InstanceID, "error", recErr)
	}

	if !job.Status.Succeeded() {
		if job.FailureReason != "" {
			return fmt.Errorf("%s against %q ended %s: %s", kind, item.DisplayName, job.Status, job.FailureReason)
		}
		return fmt.Errorf("%s against %q ended %s", kind, item.DisplayName, job.Status)
	}
	return nil
}

func (p *Provisioner) pause(ctx context.Context) error {
	if p.opts.StepDelay <= 0 {
		return nil
	}
	return p.sleep(ctx, p.opts.StepDelay)
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
