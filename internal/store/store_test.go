package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modhub/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "modhub.sqlite"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// billingWorkspace seeds Billing with children Invoices(10), Refunds(20),
// Reports(30) and returns the workspace id plus name->id lookups.
func billingWorkspace(t *testing.T, s *Store) (int64, map[string]int64) {
	t.Helper()
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "Platform Docs", "platform", "ada")
	require.NoError(t, err)

	ids := map[string]int64{}
	billing, err := s.CreateModule(ctx, ws.ID, nil, "Billing", false)
	require.NoError(t, err)
	ids["Billing"] = billing.ID
	for _, name := range []string{"Invoices", "Refunds", "Reports"} {
		m, err := s.CreateModule(ctx, ws.ID, &billing.ID, name, false)
		require.NoError(t, err)
		ids[name] = m.ID
	}
	return ws.ID, ids
}

func childNamesInOrder(t *testing.T, s *Store, wsID int64, parentID int64) []string {
	t.Helper()
	mods, err := s.ModulesForWorkspace(context.Background(), wsID)
	require.NoError(t, err)
	var out []string
	for _, m := range mods {
		if m.ParentID != nil && *m.ParentID == parentID {
			out = append(out, m.Name)
		}
	}
	return out
}

func TestCreateModule_AppendsWithStepTen(t *testing.T) {
	s := newTestStore(t)
	wsID, ids := billingWorkspace(t, s)

	mods, err := s.ModulesForWorkspace(context.Background(), wsID)
	require.NoError(t, err)
	require.Len(t, mods, 4)

	byName := map[string]model.ModuleNode{}
	for _, m := range mods {
		byName[m.Name] = m
	}
	assert.Equal(t, 10, byName["Billing"].OrderIndex)
	assert.Equal(t, 10, byName["Invoices"].OrderIndex)
	assert.Equal(t, 20, byName["Refunds"].OrderIndex)
	assert.Equal(t, 30, byName["Reports"].OrderIndex)
	_ = ids
}

func TestCreateModule_RejectsLeafContentParent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "w", "", "")
	require.NoError(t, err)
	leaf, err := s.CreateModule(ctx, ws.ID, nil, "Overview", true)
	require.NoError(t, err)

	_, err = s.CreateModule(ctx, ws.ID, &leaf.ID, "child", false)
	require.ErrorIs(t, err, ErrLeafParent)
}

func TestReorderModules_AppliesPairsAndIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	wsID, ids := billingWorkspace(t, s)

	updates := []model.OrderUpdate{
		{NodeID: ids["Reports"], OrderIndex: 10},
		{NodeID: ids["Invoices"], OrderIndex: 20},
		{NodeID: ids["Refunds"], OrderIndex: 30},
	}
	require.NoError(t, s.ReorderModules(ctx, wsID, updates))
	assert.Equal(t, []string{"Reports", "Invoices", "Refunds"},
		childNamesInOrder(t, s, wsID, ids["Billing"]))

	// Replaying the same pairs is a successful no-op.
	require.NoError(t, s.ReorderModules(ctx, wsID, updates))
	assert.Equal(t, []string{"Reports", "Invoices", "Refunds"},
		childNamesInOrder(t, s, wsID, ids["Billing"]))
}

func TestReorderModules_RejectsCrossParentPayload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	wsID, ids := billingWorkspace(t, s)

	updates := []model.OrderUpdate{
		{NodeID: ids["Billing"], OrderIndex: 10},
		{NodeID: ids["Invoices"], OrderIndex: 20},
	}
	err := s.ReorderModules(ctx, wsID, updates)
	require.ErrorIs(t, err, ErrCrossParent)

	// Nothing was written.
	assert.Equal(t, []string{"Invoices", "Refunds", "Reports"},
		childNamesInOrder(t, s, wsID, ids["Billing"]))
}

func TestReorderModules_RejectsPartialGroup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	wsID, ids := billingWorkspace(t, s)

	// Omitting Reports could collide its order index with a listed sibling.
	updates := []model.OrderUpdate{
		{NodeID: ids["Refunds"], OrderIndex: 10},
		{NodeID: ids["Invoices"], OrderIndex: 20},
	}
	err := s.ReorderModules(ctx, wsID, updates)
	require.ErrorIs(t, err, ErrIncompleteGroup)

	// Nothing was written.
	assert.Equal(t, []string{"Invoices", "Refunds", "Reports"},
		childNamesInOrder(t, s, wsID, ids["Billing"]))
}

func TestReorderModules_UnknownModule(t *testing.T) {
	s := newTestStore(t)
	wsID, _ := billingWorkspace(t, s)

	err := s.ReorderModules(context.Background(), wsID, []model.OrderUpdate{{NodeID: 999, OrderIndex: 10}})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "module", nf.Kind)
}

func TestDeleteModule_RemovesSubtree(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	wsID, ids := billingWorkspace(t, s)

	invoices := ids["Invoices"]
	nested, err := s.CreateModule(ctx, wsID, &invoices, "Drafts", false)
	require.NoError(t, err)

	require.NoError(t, s.DeleteModule(ctx, ids["Billing"]))

	mods, err := s.ModulesForWorkspace(ctx, wsID)
	require.NoError(t, err)
	assert.Empty(t, mods)

	_, err = s.GetModule(ctx, nested.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSetModuleContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ids := billingWorkspace(t, s)

	require.NoError(t, s.SetModuleContent(ctx, ids["Invoices"], "# Invoices\n\nHow billing invoices work."))
	m, err := s.GetModule(ctx, ids["Invoices"])
	require.NoError(t, err)
	assert.Contains(t, m.Content, "How billing invoices work")

	err = s.SetModuleContent(ctx, 999, "x")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestReplaceTables_FullRefresh(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ids := billingWorkspace(t, s)

	first := []model.TableDef{{
		Name:    "invoice",
		Comment: "customer invoices",
		Columns: []model.ColumnDef{
			{Name: "id", Type: "bigint"},
			{Name: "amount", Type: "decimal(10,2)", Nullable: true, Default: "0.00"},
		},
	}}
	stored, err := s.ReplaceTables(ctx, ids["Invoices"], first)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	got, err := s.ListTables(ctx, ids["Invoices"])
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "invoice", got[0].Name)
	require.Len(t, got[0].Columns, 2)
	assert.Equal(t, "decimal(10,2)", got[0].Columns[1].Type)

	// Re-import replaces, never accumulates.
	second := []model.TableDef{{Name: "invoice_line", Columns: []model.ColumnDef{{Name: "id", Type: "bigint"}}}}
	_, err = s.ReplaceTables(ctx, ids["Invoices"], second)
	require.NoError(t, err)
	got, err = s.ListTables(ctx, ids["Invoices"])
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "invoice_line", got[0].Name)
}

func TestInterfaces_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, ids := billingWorkspace(t, s)

	def := model.InterfaceDef{
		Method:  "POST",
		Path:    "/v1/invoices",
		Summary: "create an invoice",
		Params: []model.InterfaceParam{
			{Name: "customerId", In: "body", Type: "int64", Required: true},
		},
	}
	created, err := s.CreateInterface(ctx, ids["Invoices"], def)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := s.ListInterfaces(ctx, ids["Invoices"])
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "POST", got[0].Method)
	require.Len(t, got[0].Params, 1)
	assert.True(t, got[0].Params[0].Required)
}

func TestMembers_InviteAcceptRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	wsID, _ := billingWorkspace(t, s)

	m, err := s.InviteMember(ctx, wsID, "Grace", "grace@example.com", model.MemberRoleEditor)
	require.NoError(t, err)
	require.NotEmpty(t, m.InviteToken)

	joined, err := s.AcceptInvite(ctx, m.InviteToken)
	require.NoError(t, err)
	assert.Empty(t, joined.InviteToken)
	assert.Equal(t, model.MemberRoleEditor, joined.Role)

	_, err = s.AcceptInvite(ctx, m.InviteToken)
	require.Error(t, err)

	require.NoError(t, s.RemoveMember(ctx, m.ID))
	members, err := s.ListMembers(ctx, wsID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestWorkspaces_ArchiveHidesFromListing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ws, err := s.CreateWorkspace(ctx, "w", "", "")
	require.NoError(t, err)

	require.NoError(t, s.ArchiveWorkspace(ctx, ws.ID))
	list, err := s.ListWorkspaces(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Still addressable directly.
	got, err := s.GetWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived)
}
