package inviteduser

import (
	"github.com/smallbiznis/courier/internal/inviteduser/repository"
	"github.com/smallbiznis/courier/internal/inviteduser/service"
	"go.uber.org/fx"
)

var Module = fx.Module("inviteduser.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
