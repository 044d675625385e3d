package app

import (
	"github.com/vk/svcstorego/internal/registry"
	"github.com/vk/svcstorego/internal/service"
	"github.com/vk/svcstorego/modules/admin"
	"github.com/vk/svcstorego/modules/echo"
	"github.com/vk/svcstorego/modules/httpcheck"
)

// coreModules is the definitive list of service modules compiled into the
// svcstore binary.
var coreModules = []registry.Module{
	&echo.Module{},
	&httpcheck.Module{},
	&admin.Module{},
}

// registerBaseHandlers installs the shared no-op handlers backing the
// sentinel identities. Manifests may alias them, but the sentinel identity
// check keeps them out of every deployment.
func registerBaseHandlers(reg *registry.Registry) {
	reg.RegisterHandler("ServiceBase", &registry.RegisteredHandler{
		New: func() any { return &service.Base{} },
	})
	reg.RegisterHandler("AdminServiceBase", &registry.RegisteredHandler{
		New: func() any { return &service.Base{} },
	})
}
