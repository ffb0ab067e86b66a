// Package api is the HTTP client for a modhub server. The TUI and the
// scriptable subcommands both talk to the backend through it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"modhub/internal/model"
)

// RequestError is a non-2xx response, carrying the server's reason when it
// sent one. Status 0 means the request never reached the server.
type RequestError struct {
	Method string
	Path   string
	Status int
	Reason string
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Reason)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// do runs one JSON round-trip. in and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Debug().Str("method", method).Str("path", path).Err(err).Msg("request failed")
		return &RequestError{Method: method, Path: path, Reason: err.Error()}
	}
	defer resp.Body.Close()
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Method: method, Path: path, Status: resp.StatusCode, Reason: readReason(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func readReason(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}

// Workspaces

func (c *Client) ListWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	var out []model.Workspace
	err := c.do(ctx, http.MethodGet, "/api/workspaces", nil, &out)
	return out, err
}

func (c *Client) CreateWorkspace(ctx context.Context, name, slug, createdBy string) (*model.Workspace, error) {
	in := map[string]string{"name": name, "slug": slug, "createdBy": createdBy}
	var out model.Workspace
	if err := c.do(ctx, http.MethodPost, "/api/workspaces", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetWorkspace(ctx context.Context, id int64) (*model.Workspace, error) {
	var out model.Workspace
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/workspaces/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ArchiveWorkspace(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/workspaces/%d", id), nil, nil)
}

// Modules

// FetchTree loads the workspace's full module tree as a flat slice ordered by
// (parentId, orderIndex), ready for tree.Load.
func (c *Client) FetchTree(ctx context.Context, workspaceID int64) ([]model.ModuleNode, error) {
	var out []model.ModuleNode
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/workspaces/%d/modules", workspaceID), nil, &out)
	return out, err
}

func (c *Client) CreateModule(ctx context.Context, workspaceID int64, parentID *int64, name string, isLeafContent bool) (*model.ModuleNode, error) {
	in := map[string]any{"name": name, "parentId": parentID, "isLeafContent": isLeafContent}
	var out model.ModuleNode
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/workspaces/%d/modules", workspaceID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteModule(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/modules/%d", id), nil, nil)
}

func (c *Client) SetModuleContent(ctx context.Context, id int64, content string) error {
	in := map[string]string{"content": content}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/modules/%d/content", id), in, nil)
}

// PersistSiblingOrder applies one sibling-group reorder. The endpoint is
// idempotent, so retrying after an ambiguous failure is safe.
func (c *Client) PersistSiblingOrder(ctx context.Context, workspaceID int64, updates []model.OrderUpdate) error {
	in := map[string]any{"updates": updates}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/workspaces/%d/modules/reorder", workspaceID), in, nil)
}

// Tables

func (c *Client) ListTables(ctx context.Context, moduleID int64) ([]model.TableDef, error) {
	var out []model.TableDef
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/modules/%d/tables", moduleID), nil, &out)
	return out, err
}

// ImportTables sends raw CREATE TABLE DDL; the server parses it and attaches
// the resulting table definitions to the module.
func (c *Client) ImportTables(ctx context.Context, moduleID int64, ddl string) ([]model.TableDef, error) {
	in := map[string]string{"ddl": ddl}
	var out []model.TableDef
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/modules/%d/tables/import", moduleID), in, &out)
	return out, err
}

// Interfaces

func (c *Client) ListInterfaces(ctx context.Context, moduleID int64) ([]model.InterfaceDef, error) {
	var out []model.InterfaceDef
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/modules/%d/interfaces", moduleID), nil, &out)
	return out, err
}

func (c *Client) CreateInterface(ctx context.Context, moduleID int64, def model.InterfaceDef) (*model.InterfaceDef, error) {
	var out model.InterfaceDef
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/modules/%d/interfaces", moduleID), def, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Members

func (c *Client) ListMembers(ctx context.Context, workspaceID int64) ([]model.Member, error) {
	var out []model.Member
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/workspaces/%d/members", workspaceID), nil, &out)
	return out, err
}

func (c *Client) InviteMember(ctx context.Context, workspaceID int64, name, email string, role model.MemberRole) (*model.Member, error) {
	in := map[string]any{"name": name, "email": email, "role": role}
	var out model.Member
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/workspaces/%d/members", workspaceID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveMember(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/members/%d", id), nil, nil)
}
