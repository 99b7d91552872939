// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"funnel-engine/internal/client"
	"funnel-engine/internal/config"
	"funnel-engine/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewTestDB opens a private in-memory sqlite database with the schema migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := client.OpenDatabase(config.Database{Driver: "sqlite", URL: dsn})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var Epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Node builds an offer node for flowID hosted at https://pay.example.com.
func Node(flowID, id string, kind model.NodeKind, order int, price string) model.FlowNode {
	return model.FlowNode{
		ID:          id,
		FlowID:      flowID,
		Kind:        kind,
		Title:       "Offer " + id,
		PlanID:      "plan_" + id,
		Price:       decimal.RequireFromString(price),
		RedirectURL: "https://pay.example.com/offer/" + id,
		OrderIndex:  order,
		CreatedAt:   Epoch,
		UpdatedAt:   Epoch,
	}
}

// Flow builds a flow owned by company co-1.
func Flow(id string, nodes ...model.FlowNode) *model.Flow {
	return &model.Flow{
		ID:                  id,
		CompanyID:           "co-1",
		Name:                "Flow " + id,
		InitialPlanID:       "plan_initial",
		InitialProductName:  "Starter Course",
		InitialPrice:        decimal.RequireFromString("49.00"),
		Currency:            "USD",
		ConfirmationPageURL: "https://shop.example.com/thanks",
		Nodes:               nodes,
		CreatedAt:           Epoch,
		UpdatedAt:           Epoch,
	}
}

func NodeEdge(flowID, id, source string, action model.Action, target string) *model.FlowEdge {
	return &model.FlowEdge{
		ID:           id,
		FlowID:       flowID,
		SourceNodeID: source,
		Action:       action,
		TargetKind:   model.TargetNode,
		TargetNodeID: target,
		CreatedAt:    Epoch,
	}
}

func URLEdge(flowID, id, source string, action model.Action, kind model.TargetKind, url string) *model.FlowEdge {
	return &model.FlowEdge{
		ID:           id,
		FlowID:       flowID,
		SourceNodeID: source,
		Action:       action,
		TargetKind:   kind,
		TargetURL:    url,
		CreatedAt:    Epoch,
	}
}
