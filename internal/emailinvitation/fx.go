package emailinvitation

import (
	"github.com/smallbiznis/talentlink/internal/emailinvitation/repository"
	"github.com/smallbiznis/talentlink/internal/emailinvitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("emailinvitation.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
