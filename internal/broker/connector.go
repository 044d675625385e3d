package broker

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/vk/svcstorego/internal/ctxlog"
)

// Environment variables handed to spawned connector processes.
const (
	EnvRepoLocation   = "SVCSTORE_REPO_LOCATION"
	EnvConnectorDefID = "SVCSTORE_CONNECTOR_DEF_ID"
)

// StartConnector spawns a standalone connector process. The repo location
// and the connector definition id travel through the environment so the
// child can bootstrap its own configuration without arguments.
//
// envItemName/itemID name the concrete channel or outgoing connection the
// connector should serve. The child is left running; the returned PID is
// for diagnostics only.
func StartConnector(ctx context.Context, repoLocation, binary string, defID int64, envItemName string, itemID int64) (int, error) {
	logger := ctxlog.FromContext(ctx)

	cmd := exec.Command(binary)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("%s=%s", EnvRepoLocation, repoLocation),
		fmt.Sprintf("%s=%d", EnvConnectorDefID, defID),
		fmt.Sprintf("%s=%d", envItemName, itemID),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start connector %s: %w", binary, err)
	}

	pid := cmd.Process.Pid
	logger.Info("Started connector process.", "binary", binary, "pid", pid, "def_id", defID)

	// Reap the child when it exits so it never lingers as a zombie.
	go func() {
		_ = cmd.Wait()
	}()

	return pid, nil
}
