package main

import (
	"errors"

	"github.com/hupe1980/slabkit/internal/stress"
	"github.com/spf13/cobra"
)

func newAllocCmd(opts *globalOptions) *cobra.Command {
	var maxSize int

	cmd := &cobra.Command{
		Use:   "alloc",
		Short: "Allocate, reallocate and free mixed sizes",
		Long: `The alloc command has every worker allocate random sizes up to --max-size,
resize half of them, verify their contents and free them again. Sizes above
2048 bytes exercise the large-object path.

Example:
  slabstress alloc --max-size 65536
  slabstress alloc --memory-limit 67108864 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlloc(cmd, opts, maxSize)
		},
	}
	cmd.Flags().IntVar(&maxSize, "max-size", stress.DefaultConfig.MaxSize, "Largest request in bytes")
	return cmd
}

func runAlloc(cmd *cobra.Command, opts *globalOptions, maxSize int) (err error) {
	e, err := opts.setup()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, e.close()) }()

	cfg := opts.config()
	cfg.MaxSize = maxSize

	r, runErr := stress.RunAlloc(cmd.Context(), e.rt.Alloc(), e.rc, cfg)
	if err := printReport(cmd.OutOrStdout(), r, opts.jsonOut); err != nil {
		return err
	}
	return runErr
}
