package ingest

import (
	"github.com/smallbiznis/aquabill/internal/ingest/repository"
	"github.com/smallbiznis/aquabill/internal/ingest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ingest.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
