package team

import (
	"github.com/smallbiznis/talentlink/internal/team/repository"
	"github.com/smallbiznis/talentlink/internal/team/service"
	"go.uber.org/fx"
)

var Module = fx.Module("team.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
