package audit

import (
	"github.com/smallbiznis/talentlink/internal/audit/repository"
	"github.com/smallbiznis/talentlink/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
