package collaboration

import (
	"github.com/smallbiznis/talentlink/internal/collaboration/repository"
	"github.com/smallbiznis/talentlink/internal/collaboration/service"
	"go.uber.org/fx"
)

var Module = fx.Module("collaboration.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
