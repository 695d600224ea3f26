package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/internal/migration"
	"github.com/smallbiznis/talentlink/internal/observability"
	"github.com/smallbiznis/talentlink/internal/server"
	"github.com/smallbiznis/talentlink/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// server.Module pulls in every domain module and starts the HTTP listener.
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
