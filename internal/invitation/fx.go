package invitation

import (
	"github.com/smallbiznis/talentlink/internal/invitation/repository"
	"github.com/smallbiznis/talentlink/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
