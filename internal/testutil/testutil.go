// Package testutil holds fixtures shared by service and handler tests.
package testutil

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/authorization"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/migration"
	"github.com/smallbiznis/talentlink/pkg/db"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// Epoch is the fixed start time of every fake clock.
var Epoch = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// NewDB opens an isolated in-memory database with the full schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := migration.AutoMigrate(conn); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func NewNode(t testing.TB) *snowflake.Node {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	return node
}

func NewClock() *clock.FakeClock {
	return clock.NewFakeClock(Epoch)
}

// NewAuthorizer returns a membership authorizer backed by conn and the in-memory policy set.
func NewAuthorizer(t testing.TB, conn *gorm.DB) authorization.MembershipAuthorizer {
	t.Helper()

	enforcer, err := authorization.NewMemoryEnforcer()
	if err != nil {
		t.Fatalf("failed to build enforcer: %v", err)
	}
	return authorization.New(authorization.Params{
		DB:       conn,
		Log:      zaptest.NewLogger(t),
		Enforcer: enforcer,
	})
}
