package repository

import (
	"context"
	"testing"

	"funnel-engine/internal/model"
	"funnel-engine/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedFlow(t *testing.T, repo FlowRepository) {
	t.Helper()
	ctx := context.Background()

	flow := testutil.Flow("flow-1",
		testutil.Node("flow-1", "cross", model.NodeKindCrossSell, 0, "5.00"),
		testutil.Node("flow-1", "down", model.NodeKindDownsell, 0, "9.00"),
		testutil.Node("flow-1", "up1", model.NodeKindUpsell, 1, "19.00"),
		testutil.Node("flow-1", "up0", model.NodeKindUpsell, 0, "29.00"),
	)
	require.NoError(t, repo.Create(ctx, flow))
	require.NoError(t, repo.CreateEdges(ctx, []*model.FlowEdge{
		testutil.NodeEdge("flow-1", "e1", "up0", model.ActionAccept, "cross"),
		testutil.NodeEdge("flow-1", "e2", "up0", model.ActionDecline, "down"),
		testutil.NodeEdge("flow-1", "e3", "down", model.ActionDecline, "up0"),
		testutil.URLEdge("flow-1", "e4", "cross", model.ActionAccept, model.TargetConfirmation, ""),
	}))
}

func TestFlowRepository_GetFlowOrdersNodes(t *testing.T) {
	repo := NewFlowRepository(testutil.NewTestDB(t))
	seedFlow(t, repo)

	flow, err := repo.GetFlow(context.Background(), "flow-1")
	require.NoError(t, err)

	var ids []string
	for _, n := range flow.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"up0", "up1", "down", "cross"}, ids)
	assert.Equal(t, "29", flow.Nodes[0].Price.String())
	assert.Equal(t, "https://shop.example.com/thanks", flow.ConfirmationPageURL)
}

func TestFlowRepository_GetFlowNotFound(t *testing.T) {
	repo := NewFlowRepository(testutil.NewTestDB(t))

	_, err := repo.GetFlow(context.Background(), "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFlowRepository_ListEdges(t *testing.T) {
	repo := NewFlowRepository(testutil.NewTestDB(t))
	seedFlow(t, repo)

	edges, err := repo.ListEdges(context.Background(), "flow-1")
	require.NoError(t, err)

	var ids []string
	for _, e := range edges {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"e1", "e2", "e3", "e4"}, ids)

	none, err := repo.ListEdges(context.Background(), "flow-404")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFlowRepository_DeleteNodeCascadesEdges(t *testing.T) {
	repo := NewFlowRepository(testutil.NewTestDB(t))
	seedFlow(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.DeleteNode(ctx, "flow-1", "down"))

	flow, err := repo.GetFlow(ctx, "flow-1")
	require.NoError(t, err)
	assert.Len(t, flow.Nodes, 3)

	edges, err := repo.ListEdges(ctx, "flow-1")
	require.NoError(t, err)
	var ids []string
	for _, e := range edges {
		ids = append(ids, e.ID)
	}
	// e2 pointed at down, e3 left from it
	assert.Equal(t, []string{"e1", "e4"}, ids)

	assert.ErrorIs(t, repo.DeleteNode(ctx, "flow-1", "down"), gorm.ErrRecordNotFound)
}
