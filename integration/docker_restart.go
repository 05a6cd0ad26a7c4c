//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

func restartPricesContainer(t *testing.T, ctx context.Context) {
	t.Helper()

	cmd := exec.CommandContext(ctx, "docker", "compose", "restart", "prices")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose restart prices failed: %v\n%s", err, string(out))
	}
}
