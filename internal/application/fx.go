package application

import (
	"github.com/smallbiznis/talentlink/internal/application/repository"
	"github.com/smallbiznis/talentlink/internal/application/service"
	"go.uber.org/fx"
)

var Module = fx.Module("application.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
