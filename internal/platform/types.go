package platform

import (
	"fmt"

	"github.com/fabworks/tenantforge/internal/definition"
)

// ItemKind names a platform item type.
type ItemKind string

const (
	KindLakehouse       ItemKind = "Lakehouse"
	KindNotebook        ItemKind = "Notebook"
	KindSemanticModel   ItemKind = "SemanticModel"
	KindReport          ItemKind = "Report"
	KindWarehouse       ItemKind = "Warehouse"
	KindDataPipeline    ItemKind = "DataPipeline"
	KindSQLEndpoint     ItemKind = "SQLEndpoint"
	KindDashboard       ItemKind = "Dashboard"
	KindDatamart        ItemKind = "Datamart"
	KindPaginatedReport ItemKind = "PaginatedReport"
)

// Workspace is a platform workspace (one analytics tenant).
type Workspace struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
}

// Item is a named resource within a workspace. ID, Kind, and WorkspaceID
// are immutable once the platform has assigned them.
type Item struct {
	ID          string   `json:"id"`
	WorkspaceID string   `json:"workspaceId"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description,omitempty"`
	Kind        ItemKind `json:"type"`
}

// CreateWorkspaceRequest creates a workspace.
type CreateWorkspaceRequest struct {
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
}

// CreateItemRequest creates an item, optionally with an initial definition.
type CreateItemRequest struct {
	DisplayName string                 `json:"displayName"`
	Description string                 `json:"description,omitempty"`
	Kind        ItemKind               `json:"type"`
	Definition  *definition.Definition `json:"definition,omitempty"`
}

// UpdateItemRequest renames or re-describes an item.
type UpdateItemRequest struct {
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
}

// SQLEndpointProperties is the connection info a lakehouse exposes once its
// SQL endpoint has finished provisioning.
type SQLEndpointProperties struct {
	ConnectionString   string `json:"connectionString"`
	ID                 string `json:"id"`
	ProvisioningStatus string `json:"provisioningStatus"`
}

// Lakehouse is the kind-specific view of a lakehouse item.
type Lakehouse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Properties  struct {
		SQLEndpointProperties SQLEndpointProperties `json:"sqlEndpointProperties"`
	} `json:"properties"`
}

// Warehouse is the kind-specific view of a warehouse item.
type Warehouse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Properties  struct {
		ConnectionString string `json:"connectionString"`
	} `json:"properties"`
}

// APIError is a non-success platform response.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"errorCode"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("platform API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("platform API error %d: %s", e.StatusCode, e.Message)
}
