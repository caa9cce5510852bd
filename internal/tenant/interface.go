// Package tenant orchestrates multi-step provisioning workflows against
// the platform: creating analytics tenants from templates and cloning
// whole workspaces with identifier redirection.
package tenant

import (
	"context"

	"github.com/fabworks/tenantforge/internal/definition"
	"github.com/fabworks/tenantforge/internal/jobs"
	"github.com/fabworks/tenantforge/internal/platform"
)

//go:generate mockgen -source=interface.go -destination=mocks/mock_platform.go -package=mocks

// ItemAPI is the platform surface the provisioner drives. Implemented by
// the platform client; mocked in tests.
type ItemAPI interface {
	CreateWorkspace(ctx context.Context, name, description string) (platform.Workspace, error)
	GetWorkspaceByName(ctx context.Context, name string) (platform.Workspace, error)
	AssignWorkspaceToCapacity(ctx context.Context, workspaceID, capacityID string) error
	CreateItem(ctx context.Context, workspaceID string, req platform.CreateItemRequest) (platform.Item, error)
	ListItems(ctx context.Context, workspaceID string, kind platform.ItemKind) ([]platform.Item, error)
	GetItemDefinition(ctx context.Context, workspaceID, itemID, format string) (definition.Definition, error)
	GetLakehouse(ctx context.Context, workspaceID, lakehouseID string) (platform.Lakehouse, error)
	GetWarehouse(ctx context.Context, workspaceID, warehouseID string) (platform.Warehouse, error)
}

// JobRunner submits one workload and blocks until its job instance reaches
// a terminal status. Implemented by jobs.Poller.
type JobRunner interface {
	Run(ctx context.Context, workspaceID, itemID string, kind jobs.Kind, payload any) (jobs.Job, error)
}
