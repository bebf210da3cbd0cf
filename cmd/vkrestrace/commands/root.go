package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/vkres"
	"github.com/gogpu/vkres/internal/config"
)

// Version is the vkrestrace version.
const Version = "0.1.0"

type options struct {
	cfgFile string
	verbose bool
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	v := viper.New()

	root := &cobra.Command{
		Use:   "vkrestrace",
		Short: "Replay vkres workloads and inspect resource recycling",
		Long: `vkrestrace drives the vkres resource helpers through canned per-frame
workloads on a backend and reports the recorded commands, pool rollovers
and deferred releases.

The in-memory nativetest backend needs no GPU.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./vkrestrace.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().String("backend", "", "backend to run on")
	root.PersistentFlags().Int("frames", 0, "frames per scenario")
	root.PersistentFlags().Bool("trace", false, "print the recorded commands")

	_ = v.BindPFlag("backend", root.PersistentFlags().Lookup("backend"))
	_ = v.BindPFlag("frames", root.PersistentFlags().Lookup("frames"))
	_ = v.BindPFlag("trace", root.PersistentFlags().Lookup("trace"))

	root.AddCommand(newRunCmd(opts, v), newListCmd(), newVersionCmd())
	return root
}

// loadConfig reads the configuration and installs the vkres logger.
func loadConfig(cmd *cobra.Command, opts *options, v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v, opts.cfgFile)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel()
	if opts.verbose {
		level = slog.LevelDebug
	}
	vkres.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return cfg, nil
}
