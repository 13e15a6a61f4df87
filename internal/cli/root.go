// Package cli implements envmonctl, the administration command line for the
// environment monitor.
package cli

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the resolved settings shared by every subcommand
type app struct {
	v *viper.Viper
}

func (a *app) client() *APIClient {
	return NewAPIClient(a.v.GetString("server_url"), a.v.GetDuration("timeout"))
}

// NewRootCommand builds the envmonctl command tree. Settings come from
// flags, then ENVMON_* environment variables.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("ENVMON")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "envmonctl",
		Short:        "Administer the environment monitor",
		Long:         `Manage registered sensors, submit readings and query aggregated temperature and humidity.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("server", "http://localhost:8080", "service base URL (ENVMON_SERVER_URL)")
	flags.Duration("timeout", 10*time.Second, "request timeout (ENVMON_TIMEOUT)")
	_ = a.v.BindPFlag("server_url", flags.Lookup("server"))
	_ = a.v.BindPFlag("timeout", flags.Lookup("timeout"))

	root.AddCommand(
		a.devicesCommand(),
		a.metricsCommand(),
		a.statsCommand(),
	)
	return root
}

// Execute runs envmonctl
func Execute() error {
	return NewRootCommand().Execute()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
