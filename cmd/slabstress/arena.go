package main

import (
	"errors"

	"github.com/hupe1980/slabkit"
	"github.com/hupe1980/slabkit/arena"
	"github.com/hupe1980/slabkit/internal/stress"
	"github.com/spf13/cobra"
)

func newArenaCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "arena",
		Short: "Store, retain, release and free through a thread-safe arena",
		Long: `The arena command sizes a thread-safe arena to workers x objects slots and
has every worker cycle its own objects through it.

Example:
  slabstress arena
  slabstress arena --workers 8 --objects 1024 --iterations 64 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArena(cmd, opts)
		},
	}
}

func runArena(cmd *cobra.Command, opts *globalOptions) (err error) {
	e, err := opts.setup()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, e.close()) }()

	m, err := slabkit.NewArena[stress.Payload](e.rt, opts.workers*opts.objects, arena.WithName("stress"))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, m.Close()) }()

	r, runErr := stress.RunArena(cmd.Context(), m, e.rc, opts.config())
	if err := printReport(cmd.OutOrStdout(), r, opts.jsonOut); err != nil {
		return err
	}
	return runErr
}
