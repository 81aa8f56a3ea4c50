package workflow

import (
	"context"

	"github.com/sysup-io/sysup/internal/logging"
)

// StandardPhases returns the phase sequence of the in-place upgrade
// pipeline. The bodies here are the orchestration-side hooks; the actual
// upgrade payload (package resolution, repository rewriting and so on) is
// registered onto these phases out of tree.
func StandardPhases() *Registry {
	reg := NewRegistry()

	phases := []Phase{
		{
			Name: "FactsCollection",
			Tags: []string{"checks", "facts"},
			Run: func(ctx context.Context, rc *RunContext) error {
				logging.Info("collecting system facts")
				return nil
			},
		},
		{
			Name: "Checks",
			Tags: []string{"checks"},
			Run: func(ctx context.Context, rc *RunContext) error {
				logging.Info("running pre-upgrade checks")
				return nil
			},
		},
		{
			Name: "Reports",
			Tags: []string{"checks", "report"},
			Run: func(ctx context.Context, rc *RunContext) error {
				logging.Info("rendering pre-upgrade report")
				return nil
			},
		},
		{
			Name: "Download",
			Tags: []string{"download"},
			Run: func(ctx context.Context, rc *RunContext) error {
				logging.Info("downloading target packages")
				return nil
			},
		},
		{
			Name: "InterimPreparation",
			Tags: []string{"interim"},
			Run: func(ctx context.Context, rc *RunContext) error {
				logging.Info("preparing interim system, reboot required to continue")
				rc.RequestReboot()
				return nil
			},
		},
		{
			Name: "Applications",
			Tags: []string{"apps"},
			Run: func(ctx context.Context, rc *RunContext) error {
				logging.Info("migrating applications")
				return nil
			},
		},
		{
			Name: "Finalization",
			Tags: []string{"finalization"},
			Run: func(ctx context.Context, rc *RunContext) error {
				logging.Info("finalizing upgrade")
				return nil
			},
		},
		{
			Name: "FirstBoot",
			Tags: []string{"firstboot"},
			Run: func(ctx context.Context, rc *RunContext) error {
				logging.Info("running first boot tasks")
				return nil
			},
		},
	}

	for _, p := range phases {
		// Names are unique by construction.
		_ = reg.Register(p)
	}
	return reg
}
