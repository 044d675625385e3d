package registry

import (
	"context"

	"github.com/vk/svcstorego/internal/ctxlog"
	"github.com/vk/svcstorego/internal/service"
)

type hookName string

const (
	hookBeforeDeploy hookName = "before-deploy"
	hookAfterDeploy  hookName = "after-deploy"
)

// invokeHook runs an optional lifecycle hook on a probe instance. Hook
// failures are logged with the failing identity and swallowed; deployment
// always continues.
func (r *Registry) invokeHook(ctx context.Context, identity string, probe any, name hookName) {
	logger := ctxlog.FromContext(ctx)

	var err error
	switch name {
	case hookBeforeDeploy:
		hook, ok := probe.(service.BeforeDeployHook)
		if !ok {
			return
		}
		err = hook.BeforeDeploy(ctx)
	case hookAfterDeploy:
		hook, ok := probe.(service.AfterDeployHook)
		if !ok {
			return
		}
		err = hook.AfterDeploy(ctx)
	}

	if err != nil {
		logger.Error("Error while invoking service hook.", "hook", string(name), "identity", identity, "error", err)
	}
}
