// Package platform is a typed client for the analytics platform REST APIs:
// workspaces, items, item definitions, the job scheduler, and the
// kind-specific lakehouse/warehouse reads the provisioning workflows need.
//
// The client is constructed explicitly and passed to its consumers; there
// is no process-wide client or credential state.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fabworks/tenantforge/internal/definition"
	"github.com/fabworks/tenantforge/internal/jobs"
	"github.com/fabworks/tenantforge/internal/log"
)

// Client talks to one platform API endpoint with one bearer token.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *slog.Logger
}

// NewClient creates a platform client. timeout guards each individual HTTP
// call; job polling and endpoint provisioning waits are the caller's
// concern.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
		logger:  log.WithComponent("platform"),
	}
}

var _ jobs.API = (*Client)(nil)

// ListWorkspaces returns all workspaces visible to the token.
func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	var out listResponse[Workspace]
	if err := c.doJSON(ctx, http.MethodGet, "/workspaces", nil, &out); err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return out.Value, nil
}

// GetWorkspaceByName returns the workspace with the exact display name, or
// an error naming the workspace when none matches.
func (c *Client) GetWorkspaceByName(ctx context.Context, name string) (Workspace, error) {
	workspaces, err := c.ListWorkspaces(ctx)
	if err != nil {
		return Workspace{}, err
	}
	for _, ws := range workspaces {
		if ws.DisplayName == name {
			return ws, nil
		}
	}
	return Workspace{}, fmt.Errorf("workspace %q not found", name)
}

// CreateWorkspace creates a workspace.
func (c *Client) CreateWorkspace(ctx context.Context, name, description string) (Workspace, error) {
	req := CreateWorkspaceRequest{DisplayName: name, Description: description}
	var ws Workspace
	if err := c.doJSON(ctx, http.MethodPost, "/workspaces", req, &ws); err != nil {
		return Workspace{}, fmt.Errorf("create workspace %q: %w", name, err)
	}
	c.logger.Info("workspace created", "workspace", name, "workspace_id", ws.ID)
	return ws, nil
}

// DeleteWorkspace deletes a workspace and everything in it.
func (c *Client) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/workspaces/"+workspaceID, nil, nil); err != nil {
		return fmt.Errorf("delete workspace %q: %w", workspaceID, err)
	}
	return nil
}

// AssignWorkspaceToCapacity attaches the workspace to a capacity.
func (c *Client) AssignWorkspaceToCapacity(ctx context.Context, workspaceID, capacityID string) error {
	body := map[string]string{"capacityId": capacityID}
	path := "/workspaces/" + workspaceID + "/assignToCapacity"
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("assign workspace %q to capacity %q: %w", workspaceID, capacityID, err)
	}
	return nil
}

// CreateItem creates an item, optionally with an initial definition.
func (c *Client) CreateItem(ctx context.Context, workspaceID string, req CreateItemRequest) (Item, error) {
	var item Item
	path := "/workspaces/" + workspaceID + "/items"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &item); err != nil {
		return Item{}, fmt.Errorf("create %s %q in workspace %q: %w", req.Kind, req.DisplayName, workspaceID, err)
	}
	c.logger.Info("item created",
		"workspace_id", workspaceID,
		"item_kind", string(item.Kind),
		"item_name", item.DisplayName,
		"item_id", item.ID,
	)
	return item, nil
}

// ListItems lists the items in a workspace, optionally filtered by kind
// (empty kind means all).
func (c *Client) ListItems(ctx context.Context, workspaceID string, kind ItemKind) ([]Item, error) {
	path := "/workspaces/" + workspaceID + "/items"
	if kind != "" {
		path += "?type=" + url.QueryEscape(string(kind))
	}
	var out listResponse[Item]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list items in workspace %q: %w", workspaceID, err)
	}
	return out.Value, nil
}

// UpdateItem changes an item's display name and description.
func (c *Client) UpdateItem(ctx context.Context, workspaceID, itemID string, req UpdateItemRequest) (Item, error) {
	var item Item
	path := "/workspaces/" + workspaceID + "/items/" + itemID
	if err := c.doJSON(ctx, http.MethodPatch, path, req, &item); err != nil {
		return Item{}, fmt.Errorf("update item %q: %w", itemID, err)
	}
	return item, nil
}

// GetItemDefinition fetches an item's multi-part definition. format selects
// the interchange format ("TMSL", "PBIR-Legacy", "ipynb", ...); empty means
// the platform default.
func (c *Client) GetItemDefinition(ctx context.Context, workspaceID, itemID, format string) (definition.Definition, error) {
	path := "/workspaces/" + workspaceID + "/items/" + itemID + "/getDefinition"
	if format != "" {
		path += "?format=" + url.QueryEscape(format)
	}
	var out struct {
		Definition definition.Definition `json:"definition"`
	}
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &out); err != nil {
		return definition.Definition{}, fmt.Errorf("get definition of item %q: %w", itemID, err)
	}
	return out.Definition, nil
}

// UpdateItemDefinition replaces an item's definition wholesale.
func (c *Client) UpdateItemDefinition(ctx context.Context, workspaceID, itemID string, def definition.Definition) error {
	path := "/workspaces/" + workspaceID + "/items/" + itemID + "/updateDefinition"
	body := map[string]definition.Definition{"definition": def}
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("update definition of item %q: %w", itemID, err)
	}
	return nil
}

// GetLakehouse reads the lakehouse view of an item, including its SQL
// endpoint provisioning state.
func (c *Client) GetLakehouse(ctx context.Context, workspaceID, lakehouseID string) (Lakehouse, error) {
	var lh Lakehouse
	path := "/workspaces/" + workspaceID + "/lakehouses/" + lakehouseID
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &lh); err != nil {
		return Lakehouse{}, fmt.Errorf("get lakehouse %q: %w", lakehouseID, err)
	}
	return lh, nil
}

// GetWarehouse reads the warehouse view of an item, including its SQL
// connection string.
func (c *Client) GetWarehouse(ctx context.Context, workspaceID, warehouseID string) (Warehouse, error) {
	var wh Warehouse
	path := "/workspaces/" + workspaceID + "/warehouses/" + warehouseID
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &wh); err != nil {
		return Warehouse{}, fmt.Errorf("get warehouse %q: %w", warehouseID, err)
	}
	return wh, nil
}

// SubmitItemJob starts a workload against an item. Anything other than an
// accepted (202) response is reported as jobs.ErrSubmissionRejected.
func (c *Client) SubmitItemJob(ctx context.Context, workspaceID, itemID string, kind jobs.Kind, payload any) (jobs.Submission, error) {
	path := fmt.Sprintf("%s/workspaces/%s/items/%s/jobs/instances?jobType=%s",
		c.baseURL, workspaceID, itemID, url.QueryEscape(string(kind)))

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return jobs.Submission{}, fmt.Errorf("encode job payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, body)
	if err != nil {
		return jobs.Submission{}, err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return jobs.Submission{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		apiErr := readAPIError(resp)
		return jobs.Submission{}, fmt.Errorf("%w: %v", jobs.ErrSubmissionRejected, apiErr)
	}

	location := resp.Header.Get("Location")
	instanceID := location[strings.LastIndex(location, "/")+1:]
	if instanceID == "" {
		return jobs.Submission{}, fmt.Errorf("%w: accepted response carried no job instance location", jobs.ErrSubmissionRejected)
	}

	submission := jobs.Submission{JobInstanceID: instanceID}
	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
		submission.RetryAfter = time.Duration(seconds) * time.Second
	}
	return submission, nil
}

// GetJobInstance re-reads the state of a job instance.
func (c *Client) GetJobInstance(ctx context.Context, workspaceID, itemID, jobInstanceID string) (jobs.Job, error) {
	var out struct {
		ID            string `json:"id"`
		ItemID        string `json:"itemId"`
		JobType       string `json:"jobType"`
		Status        string `json:"status"`
		FailureReason *struct {
			Message string `json:"message"`
		} `json:"failureReason"`
	}
	path := "/workspaces/" + workspaceID + "/items/" + itemID + "/jobs/instances/" + jobInstanceID
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return jobs.Job{}, fmt.Errorf("get job instance %q: %w", jobInstanceID, err)
	}

	job := jobs.Job{
		InstanceID:  out.ID,
		WorkspaceID: workspaceID,
		ItemID:      out.ItemID,
		Kind:        jobs.Kind(out.JobType),
		Status:      jobs.Status(out.Status),
	}
	if out.FailureReason != nil {
		job.FailureReason = out.FailureReason.Message
	}
	return job, nil
}

type listResponse[T any] struct {
	Value []T `json:"value"`
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// doJSON performs one request with an optional JSON body, decoding a JSON
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && len(data) > 0 {
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
