package rate

import (
	"github.com/smallbiznis/courier/internal/rate/repository"
	"github.com/smallbiznis/courier/internal/rate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
