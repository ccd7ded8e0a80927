package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/smart-home/internal/config"
	client "github.com/oshokin/smart-home/internal/service/client"
	"github.com/oshokin/smart-home/internal/version"
)

// passwordEnv supplies the password without putting it on the command line.
const passwordEnv = "HOUSE_CTL_PASSWORD"

var (
	// options collects the persistent flags shared by every subcommand.
	options = new(client.Options)

	// rootCmd represents the base command of the house client.
	rootCmd = &cobra.Command{
		Use:   "house-ctl",
		Short: "Query and command a smart-home server.",
		Long: `Talks to a house-server over gRPC.

The server address is taken from the configuration file unless --server is given.
Credentials are sent when --user is set; the password comes from --password or
the ` + passwordEnv + ` environment variable.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			options.Out = cmd.OutOrStdout()

			if options.Password == "" {
				options.Password = os.Getenv(passwordEnv)
			}
		},
	}

	housesCmd = &cobra.Command{
		Use:   "houses",
		Short: "List the houses managed by the server.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := notifyContext()
			defer stop()

			return client.ListHouses(ctx, options)
		},
	}

	getCmd = &cobra.Command{
		Use:   "get <house>",
		Short: "Print the current state of a house.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := notifyContext()
			defer stop()

			return client.GetState(ctx, options, args[0])
		},
	}

	setCmd = &cobra.Command{
		Use:   "set <house> key=value...",
		Short: "Change a house and print the evaluated state.",
		Long: `Sends a command to a house. Keys use the user vocabulary, for example:

  house-ctl set lake door=open light=on
  house-ctl set lake alarm_passcode=1234
  house-ctl set lake lock_request=unlock lock_passcode=0000
  house-ctl set lake hvac_mode=cool hvac_state=on target_temp=70`,
		Args: cobra.MinimumNArgs(2), //nolint:mnd // House name plus at least one assignment.
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := notifyContext()
			defer stop()

			return client.SetState(ctx, options, args[0], args[1:])
		},
	}
)

func notifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// Execute runs the house-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&options.ServerAddress, "server", "s", "", "server address, overrides the configuration")
	flags.StringVarP(&options.User, "user", "u", "", "user name for basic authentication")
	flags.StringVarP(&options.Password, "password", "p", "", "password for basic authentication")

	rootCmd.AddCommand(housesCmd, getCmd, setCmd)
}
