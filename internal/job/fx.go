package job

import (
	"github.com/smallbiznis/talentlink/internal/job/repository"
	"github.com/smallbiznis/talentlink/internal/job/service"
	"go.uber.org/fx"
)

var Module = fx.Module("job.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
