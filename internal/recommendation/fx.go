package recommendation

import (
	"github.com/smallbiznis/talentlink/internal/recommendation/repository"
	"github.com/smallbiznis/talentlink/internal/recommendation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recommendation.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
