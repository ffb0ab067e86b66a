package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modhub/internal/model"
	"modhub/internal/store"
)

type testEnv struct {
	srv *httptest.Server
	st  *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "modhub.sqlite"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv := httptest.NewServer(New(st, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, st: st}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// seedBilling creates a workspace with Billing -> Invoices, Refunds, Reports.
func seedBilling(t *testing.T, e *testEnv) (int64, map[string]int64) {
	t.Helper()
	ctx := context.Background()
	ws, err := e.st.CreateWorkspace(ctx, "Platform Docs", "platform", "ada")
	require.NoError(t, err)

	ids := map[string]int64{}
	billing, err := e.st.CreateModule(ctx, ws.ID, nil, "Billing", false)
	require.NoError(t, err)
	ids["Billing"] = billing.ID
	for _, name := range []string{"Invoices", "Refunds", "Reports"} {
		m, err := e.st.CreateModule(ctx, ws.ID, &billing.ID, name, false)
		require.NoError(t, err)
		ids[name] = m.ID
	}
	return ws.ID, ids
}

func TestWorkspaceAndModuleLifecycle(t *testing.T) {
	e := newTestEnv(t)

	resp := e.request(t, http.MethodPost, "/api/workspaces", map[string]string{"name": "Platform Docs"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ws := decode[model.Workspace](t, resp)
	require.NotZero(t, ws.ID)

	resp = e.request(t, http.MethodPost, "/api/workspaces/"+itoa(ws.ID)+"/modules",
		map[string]any{"name": "Billing"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	billing := decode[model.ModuleNode](t, resp)
	assert.Equal(t, 10, billing.OrderIndex)

	resp = e.request(t, http.MethodGet, "/api/workspaces/"+itoa(ws.ID)+"/modules", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mods := decode[[]model.ModuleNode](t, resp)
	require.Len(t, mods, 1)
	assert.Equal(t, "Billing", mods[0].Name)
}

func TestReorderEndpoint(t *testing.T) {
	e := newTestEnv(t)
	wsID, ids := seedBilling(t, e)

	payload := map[string]any{"updates": []model.OrderUpdate{
		{NodeID: ids["Reports"], OrderIndex: 10},
		{NodeID: ids["Invoices"], OrderIndex: 20},
		{NodeID: ids["Refunds"], OrderIndex: 30},
	}}
	resp := e.request(t, http.MethodPost, "/api/workspaces/"+itoa(wsID)+"/modules/reorder", payload)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.request(t, http.MethodGet, "/api/workspaces/"+itoa(wsID)+"/modules", nil)
	mods := decode[[]model.ModuleNode](t, resp)
	var children []string
	for _, m := range mods {
		if m.ParentID != nil {
			children = append(children, m.Name)
		}
	}
	assert.Equal(t, []string{"Reports", "Invoices", "Refunds"}, children)
}

func TestReorderEndpoint_CrossParentIs409(t *testing.T) {
	e := newTestEnv(t)
	wsID, ids := seedBilling(t, e)

	payload := map[string]any{"updates": []model.OrderUpdate{
		{NodeID: ids["Billing"], OrderIndex: 10},
		{NodeID: ids["Invoices"], OrderIndex: 20},
	}}
	resp := e.request(t, http.MethodPost, "/api/workspaces/"+itoa(wsID)+"/modules/reorder", payload)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Contains(t, body["error"], "sibling groups")
}

func TestReorderEndpoint_PartialGroupIs400(t *testing.T) {
	e := newTestEnv(t)
	wsID, ids := seedBilling(t, e)

	payload := map[string]any{"updates": []model.OrderUpdate{
		{NodeID: ids["Refunds"], OrderIndex: 10},
		{NodeID: ids["Invoices"], OrderIndex: 20},
	}}
	resp := e.request(t, http.MethodPost, "/api/workspaces/"+itoa(wsID)+"/modules/reorder", payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Contains(t, body["error"], "whole sibling group")
}

func TestErrorTaxonomy(t *testing.T) {
	e := newTestEnv(t)
	wsID, _ := seedBilling(t, e)

	// 404 unknown ids.
	resp := e.request(t, http.MethodDelete, "/api/modules/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = e.request(t, http.MethodGet, "/api/workspaces/999/modules", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// 400 malformed bodies.
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/api/workspaces/"+itoa(wsID)+"/modules",
		strings.NewReader("{not json"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	// 400 invalid ids in the path.
	resp = e.request(t, http.MethodGet, "/api/workspaces/zero/modules", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTableImportEndpoint(t *testing.T) {
	e := newTestEnv(t)
	_, ids := seedBilling(t, e)

	ddlText := "CREATE TABLE invoice (\n  id bigint NOT NULL,\n  amount decimal(10,2) NOT NULL DEFAULT '0.00'\n);"
	resp := e.request(t, http.MethodPost, "/api/modules/"+itoa(ids["Invoices"])+"/tables/import",
		map[string]string{"ddl": ddlText})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tables := decode[[]model.TableDef](t, resp)
	require.Len(t, tables, 1)
	assert.Equal(t, "invoice", tables[0].Name)
	require.Len(t, tables[0].Columns, 2)

	// Garbage DDL is a client error.
	resp = e.request(t, http.MethodPost, "/api/modules/"+itoa(ids["Invoices"])+"/tables/import",
		map[string]string{"ddl": "SELECT 1;"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMemberEndpoints(t *testing.T) {
	e := newTestEnv(t)
	wsID, _ := seedBilling(t, e)

	resp := e.request(t, http.MethodPost, "/api/workspaces/"+itoa(wsID)+"/members",
		map[string]string{"name": "Grace", "email": "grace@example.com", "role": "editor"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	m := decode[model.Member](t, resp)
	require.NotEmpty(t, m.InviteToken)

	resp = e.request(t, http.MethodPost, "/api/invites/"+m.InviteToken+"/accept", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	joined := decode[model.Member](t, resp)
	assert.Empty(t, joined.InviteToken)

	resp = e.request(t, http.MethodPost, "/api/workspaces/"+itoa(wsID)+"/members",
		map[string]string{"name": "Eve", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEventsStream_SendsInitialVersion(t *testing.T) {
	e := newTestEnv(t)
	wsID, _ := seedBilling(t, e)

	// The SSE handler needs Flush (and the ws handler Hijack) to survive the
	// request-logging wrapper, so this must go through Handler(), not the mux.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		e.srv.URL+"/api/workspaces/"+itoa(wsID)+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	found := false
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "treeVersion") {
			found = true
			break
		}
	}
	require.True(t, found, "expected a treeVersion signal on the events stream")
}

func TestWSRefreshFeed_SignalsOnMutation(t *testing.T) {
	e := newTestEnv(t)
	wsID, ids := seedBilling(t, e)

	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/api/workspaces/" + itoa(wsID) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	payload := map[string]any{"updates": []model.OrderUpdate{
		{NodeID: ids["Invoices"], OrderIndex: 10},
		{NodeID: ids["Refunds"], OrderIndex: 20},
		{NodeID: ids["Reports"], OrderIndex: 30},
	}}
	resp := e.request(t, http.MethodPost, "/api/workspaces/"+itoa(wsID)+"/modules/reorder", payload)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	mt, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
	assert.Equal(t, "1", string(data))
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
