// Package platformtest is an in-process implementation of the platform
// REST surface the client talks to: workspaces, items, definitions, the
// job scheduler, and lakehouse/warehouse reads. Job instances walk through
// scriptable status sequences so polling behavior can be exercised without
// a live platform. Used by tests and by the `tenantforge mock` command.
package platformtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fabworks/tenantforge/internal/definition"
	"github.com/fabworks/tenantforge/internal/jobs"
	"github.com/fabworks/tenantforge/internal/platform"
)

// Server holds the in-memory platform state behind a chi router.
type Server struct {
	mu sync.Mutex

	workspaces     map[string]*workspaceState
	workspaceOrder []string
	jobInstances   map[string]*jobInstance

	// RetryAfterSeconds is advertised on accepted job submissions when
	// positive.
	RetryAfterSeconds int

	router chi.Router
}

type workspaceState struct {
	workspace platform.Workspace
	items     map[string]*itemState
	itemOrder []string
}

type itemState struct {
	item       platform.Item
	definition *definition.Definition

	// lakehouse/warehouse connection info
	sqlEndpoint      platform.SQLEndpointProperties
	connectionString string
	// endpointPendingReads returns a provisioning status of "InProgress"
	// for this many lakehouse reads before flipping to "Success".
	endpointPendingReads int

	// jobScript drives job instances started against this item; empty
	// means instant completion. rejectMessage rejects submissions outright.
	jobScript     []jobs.Status
	failureReason string
	rejectMessage string
}

type jobInstance struct {
	id            string
	workspaceID   string
	itemID        string
	kind          jobs.Kind
	script        []jobs.Status
	failureReason string
	reads         int
}

// NewServer creates an empty fake platform.
func NewServer() *Server {
	s := &Server{
		workspaces:   make(map[string]*workspaceState),
		jobInstances: make(map[string]*jobInstance),
	}
	s.router = s.setupRoutes()
	return s
}

// Handler returns the HTTP handler implementing the platform surface.
func (s *Server) Handler() http.Handler { return s.router }

// --- test seeding helpers ---

// AddWorkspace seeds a workspace and returns it.
func (s *Server) AddWorkspace(name string) platform.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addWorkspaceLocked(name, "")
}

// AddItem seeds an item, optionally with a definition, and returns it.
func (s *Server) AddItem(workspaceID string, kind platform.ItemKind, name string, def *definition.Definition) platform.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws := s.workspaces[workspaceID]
	if ws == nil {
		panic(fmt.Sprintf("platformtest: unknown workspace %q", workspaceID))
	}
	return s.addItemLocked(ws, kind, name, "", def)
}

// ScriptJob makes job instances started against itemID walk the given
// status sequence, one status per read, with the last status repeating.
// failureReason is reported when the script reaches StatusFailed.
func (s *Server) ScriptJob(itemID, failureReason string, statuses ...jobs.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.findItemLocked(itemID)
	item.jobScript = statuses
	item.failureReason = failureReason
}

// RejectJobs makes submissions against itemID fail with a 400.
func (s *Server) RejectJobs(itemID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findItemLocked(itemID).rejectMessage = message
}

// DelaySQLEndpoint makes the lakehouse report an in-progress SQL endpoint
// for the next reads lakehouse fetches.
func (s *Server) DelaySQLEndpoint(itemID string, reads int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findItemLocked(itemID).endpointPendingReads = reads
}

// ItemDefinition returns the stored definition for assertions.
func (s *Server) ItemDefinition(itemID string) (definition.Definition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.findItemLocked(itemID)
	if item.definition == nil {
		return definition.Definition{}, false
	}
	return *item.definition, true
}

// Items returns the items of a workspace in creation order.
func (s *Server) Items(workspaceID string) []platform.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws := s.workspaces[workspaceID]
	if ws == nil {
		return nil
	}
	out := make([]platform.Item, 0, len(ws.itemOrder))
	for _, id := range ws.itemOrder {
		out = append(out, ws.items[id].item)
	}
	return out
}

func (s *Server) addWorkspaceLocked(name, description string) platform.Workspace {
	ws := &workspaceState{
		workspace: platform.Workspace{
			ID:          uuid.NewString(),
			DisplayName: name,
			Description: description,
		},
		items: make(map[string]*itemState),
	}
	s.workspaces[ws.workspace.ID] = ws
	s.workspaceOrder = append(s.workspaceOrder, ws.workspace.ID)
	return ws.workspace
}

func (s *Server) addItemLocked(ws *workspaceState, kind platform.ItemKind, name, description string, def *definition.Definition) platform.Item {
	item := &itemState{
		item: platform.Item{
			ID:          uuid.NewString(),
			WorkspaceID: ws.workspace.ID,
			DisplayName: name,
			Description: description,
			Kind:        kind,
		},
	}
	if def != nil {
		copied := *def
		copied.Parts = append([]definition.Part(nil), def.Parts...)
		item.definition = &copied
	}

	switch kind {
	case platform.KindLakehouse:
		item.sqlEndpoint = platform.SQLEndpointProperties{
			ConnectionString:   item.item.ID[:8] + "-lakehouse.sql.fakeplatform.test",
			ID:                 uuid.NewString(),
			ProvisioningStatus: "Success",
		}
	case platform.KindWarehouse:
		item.connectionString = item.item.ID[:8] + "-warehouse.sql.fakeplatform.test"
	}

	ws.items[item.item.ID] = item
	ws.itemOrder = append(ws.itemOrder, item.item.ID)
	return item.item
}

func (s *Server) findItemLocked(itemID string) *itemState {
	for _, ws := range s.workspaces {
		if item, ok := ws.items[itemID]; ok {
			return item
		}
	}
	panic(fmt.Sprintf("platformtest: unknown item %q", itemID))
}

// --- HTTP surface ---

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Route("/workspaces", func(r chi.Router) {
		r.Get("/", s.handleListWorkspaces)
		r.Post("/", s.handleCreateWorkspace)
		r.Route("/{workspaceID}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteWorkspace)
			r.Post("/assignToCapacity", s.handleAssignCapacity)
			r.Get("/items", s.handleListItems)
			r.Post("/items", s.handleCreateItem)
			r.Patch("/items/{itemID}", s.handleUpdateItem)
			r.Post("/items/{itemID}/getDefinition", s.handleGetDefinition)
			r.Post("/items/{itemID}/updateDefinition", s.handleUpdateDefinition)
			r.Post("/items/{itemID}/jobs/instances", s.handleSubmitJob)
			r.Get("/items/{itemID}/jobs/instances/{jobInstanceID}", s.handleGetJobInstance)
			r.Get("/lakehouses/{lakehouseID}", s.handleGetLakehouse)
			r.Get("/warehouses/{warehouseID}", s.handleGetWarehouse)
		})
	})

	return r
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]platform.Workspace, 0, len(s.workspaceOrder))
	for _, id := range s.workspaceOrder {
		out = append(out, s.workspaces[id].workspace)
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": out})
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var req platform.CreateWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid JSON body")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "displayName is required")
		return
	}
	s.mu.Lock()
	ws := s.addWorkspaceLocked(req.DisplayName, req.Description)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, ws)
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workspaceID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workspaces[id]; !ok {
		writeError(w, http.StatusNotFound, "WorkspaceNotFound", "workspace not found")
		return
	}
	delete(s.workspaces, id)
	for i, wsID := range s.workspaceOrder {
		if wsID == id {
			s.workspaceOrder = append(s.workspaceOrder[:i], s.workspaceOrder[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleAssignCapacity(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.lockedWorkspace(w, r); !ok {
		return
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.lockedWorkspace(w, r)
	if !ok {
		return
	}
	defer s.mu.Unlock()

	kindFilter := platform.ItemKind(r.URL.Query().Get("type"))
	out := make([]platform.Item, 0, len(ws.itemOrder))
	for _, id := range ws.itemOrder {
		item := ws.items[id].item
		if kindFilter != "" && item.Kind != kindFilter {
			continue
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": out})
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req platform.CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid JSON body")
		return
	}
	ws, ok := s.lockedWorkspace(w, r)
	if !ok {
		return
	}
	defer s.mu.Unlock()

	item := s.addItemLocked(ws, req.Kind, req.DisplayName, req.Description, req.Definition)
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req platform.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid JSON body")
		return
	}
	item, ok := s.lockedItem(w, r)
	if !ok {
		return
	}
	defer s.mu.Unlock()

	item.item.DisplayName = req.DisplayName
	item.item.Description = req.Description
	writeJSON(w, http.StatusOK, item.item)
}

func (s *Server) handleGetDefinition(w http.ResponseWriter, r *http.Request) {
	item, ok := s.lockedItem(w, r)
	if !ok {
		return
	}
	defer s.mu.Unlock()

	if item.definition == nil {
		writeError(w, http.StatusBadRequest, "UnsupportedItemType", "item has no definition")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"definition": item.definition})
}

func (s *Server) handleUpdateDefinition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Definition definition.Definition `json:"definition"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid JSON body")
		return
	}
	item, ok := s.lockedItem(w, r)
	if !ok {
		return
	}
	defer s.mu.Unlock()

	item.definition = &req.Definition
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	item, ok := s.lockedItem(w, r)
	if !ok {
		return
	}
	defer s.mu.Unlock()

	if item.rejectMessage != "" {
		writeError(w, http.StatusBadRequest, "JobNotAccepted", item.rejectMessage)
		return
	}

	script := item.jobScript
	if len(script) == 0 {
		script = []jobs.Status{jobs.StatusCompleted}
	}

	ji := &jobInstance{
		id:            uuid.NewString(),
		workspaceID:   chi.URLParam(r, "workspaceID"),
		itemID:        item.item.ID,
		kind:          jobs.Kind(r.URL.Query().Get("jobType")),
		script:        script,
		failureReason: item.failureReason,
	}
	s.jobInstances[ji.id] = ji

	w.Header().Set("Location", r.URL.Path+"/"+ji.id)
	if s.RetryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(s.RetryAfterSeconds))
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGetJobInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobInstanceID")
	s.mu.Lock()
	defer s.mu.Unlock()

	ji, ok := s.jobInstances[id]
	if !ok {
		writeError(w, http.StatusNotFound, "JobInstanceNotFound", "job instance not found")
		return
	}

	idx := ji.reads
	if idx >= len(ji.script) {
		idx = len(ji.script) - 1
	}
	ji.reads++
	status := ji.script[idx]

	resp := map[string]any{
		"id":      ji.id,
		"itemId":  ji.itemID,
		"jobType": string(ji.kind),
		"status":  string(status),
	}
	if status == jobs.StatusFailed {
		resp["failureReason"] = map[string]any{"message": ji.failureReason}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLakehouse(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.lockedWorkspace(w, r)
	if !ok {
		return
	}
	defer s.mu.Unlock()

	item, ok := ws.items[chi.URLParam(r, "lakehouseID")]
	if !ok || item.item.Kind != platform.KindLakehouse {
		writeError(w, http.StatusNotFound, "ItemNotFound", "lakehouse not found")
		return
	}

	endpoint := item.sqlEndpoint
	if item.endpointPendingReads > 0 {
		item.endpointPendingReads--
		endpoint.ProvisioningStatus = "InProgress"
		endpoint.ConnectionString = ""
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          item.item.ID,
		"displayName": item.item.DisplayName,
		"properties":  map[string]any{"sqlEndpointProperties": endpoint},
	})
}

func (s *Server) handleGetWarehouse(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.lockedWorkspace(w, r)
	if !ok {
		return
	}
	defer s.mu.Unlock()

	item, ok := ws.items[chi.URLParam(r, "warehouseID")]
	if !ok || item.item.Kind != platform.KindWarehouse {
		writeError(w, http.StatusNotFound, "ItemNotFound", "warehouse not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          item.item.ID,
		"displayName": item.item.DisplayName,
		"properties":  map[string]any{"connectionString": item.connectionString},
	})
}

// lockedWorkspace resolves the workspace URL param and returns with s.mu
// held on success. On failure it writes the error and releases the lock.
func (s *Server) lockedWorkspace(w http.ResponseWriter, r *http.Request) (*workspaceState, bool) {
	s.mu.Lock()
	ws, ok := s.workspaces[chi.URLParam(r, "workspaceID")]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "WorkspaceNotFound", "workspace not found")
		return nil, false
	}
	return ws, true
}

// lockedItem resolves the item URL param and returns with s.mu held on
// success.
func (s *Server) lockedItem(w http.ResponseWriter, r *http.Request) (*itemState, bool) {
	ws, ok := s.lockedWorkspace(w, r)
	if !ok {
		return nil, false
	}
	item, ok := ws.items[chi.URLParam(r, "itemID")]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "ItemNotFound", "item not found")
		return nil, false
	}
	return item, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"errorCode": code, "message": message})
}
