package catalog

import (
	"github.com/almubaDev/apiTN/internal/catalog/repository"
	catalogservice "github.com/almubaDev/apiTN/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(catalogservice.NewService),
)
