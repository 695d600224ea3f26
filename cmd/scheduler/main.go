package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/audit"
	"github.com/smallbiznis/talentlink/internal/authorization"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/internal/emailinvitation"
	"github.com/smallbiznis/talentlink/internal/observability"
	"github.com/smallbiznis/talentlink/internal/providers"
	"github.com/smallbiznis/talentlink/internal/ratelimit"
	"github.com/smallbiznis/talentlink/internal/scheduler"
	"github.com/smallbiznis/talentlink/internal/team"
	"github.com/smallbiznis/talentlink/internal/user"
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
		ratelimit.Module,

		// Domain services required by the cleanup job
		authorization.Module,
		audit.Module,
		user.Module,
		team.Module,
		providers.Module,
		emailinvitation.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
