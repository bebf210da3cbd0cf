package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/vkres/backend"
	"github.com/gogpu/vkres/internal/config"
	"github.com/gogpu/vkres/internal/scenario"
)

func newRunCmd(opts *options, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run scenarios, all of them by default",
		Example: `  vkrestrace run
  vkrestrace run upload descriptors --frames 8
  vkrestrace run lineloop --trace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts, v)
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				for _, s := range scenario.All() {
					names = append(names, s.Name)
				}
			}
			for _, name := range names {
				if err := runOne(cmd, name, cfg); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func runOne(cmd *cobra.Command, name string, cfg *config.Config) error {
	if _, err := scenario.Lookup(name); err != nil {
		return err
	}
	r, err := backend.Get(cfg.Backend)
	if err != nil {
		return err
	}
	defer r.Close()

	rep, err := scenario.Run(cmd.Context(), name, r, cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printReport(out, rep)
	if tr, ok := r.(*backend.TestRenderer); ok && cfg.Trace {
		printTrace(out, tr)
	}
	return nil
}

func printReport(w io.Writer, rep *scenario.Report) {
	fmt.Fprintf(w, "== %s on %s, %d frames\n", rep.Scenario, rep.Backend, rep.Frames)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range rep.Stats {
		fmt.Fprintf(tw, "  %s\t%v\n", s.Key, s.Value)
	}
	tw.Flush()
}

func printTrace(w io.Writer, r *backend.TestRenderer) {
	trace := r.Trace()
	fmt.Fprintf(w, "  trace (%d commands)\n", len(trace))
	for i, c := range trace {
		fmt.Fprintf(w, "  %4d %s\n", i, c)
	}
}
