package modules

import (
	"github.com/archmarket/platform/modules/access"
	"github.com/archmarket/platform/modules/fulfillment"
	"github.com/archmarket/platform/modules/moderation"
	"github.com/archmarket/platform/modules/notifications"
	"github.com/archmarket/platform/pkg/application"
)

var (
	BuiltInModules = []application.Module{
		moderation.NewModule(),
		access.NewModule(),
		fulfillment.NewModule(),
		notifications.NewModule(),
	}
)

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
