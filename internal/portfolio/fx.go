package portfolio

import (
	"github.com/smallbiznis/talentlink/internal/portfolio/repository"
	"github.com/smallbiznis/talentlink/internal/portfolio/service"
	"go.uber.org/fx"
)

var Module = fx.Module("portfolio.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
