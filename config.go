package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the process-level flags for the serve command (SPEC_FULL.md
// §4.2), following the partner example's flat-struct-plus-validate shape.
type Config struct {
	bind              string
	port              int
	settingsFile      string
	tickRateMs        int64
	countdownSeconds  int
	goDelayMs         int64
	disconnectGraceMs int64
	readyDelayMs      int64
	verbose           bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.tickRateMs <= 0 {
		return fmt.Errorf("invalid tick-rate-ms (must be positive): %d", c.tickRateMs)
	}
	if c.countdownSeconds < 0 {
		return fmt.Errorf("invalid countdown-seconds (must be non-negative): %d", c.countdownSeconds)
	}
	if c.goDelayMs < 0 || c.disconnectGraceMs < 0 || c.readyDelayMs < 0 {
		return fmt.Errorf("delay flags must be non-negative durations")
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("JOUST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "jsjoust-server",
		Short:         "Location-free motion-party-game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: JOUST_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: JOUST_PORT)")
	fs.StringVar(&cfg.settingsFile, "settings-file", "./joust-settings.json", "path to persisted settings blob (env: JOUST_SETTINGS_FILE)")
	fs.Int64Var(&cfg.tickRateMs, "tick-rate-ms", 100, "game tick interval in milliseconds (env: JOUST_TICK_RATE_MS)")
	fs.IntVar(&cfg.countdownSeconds, "countdown-seconds", 5, "countdown length before a round goes active (env: JOUST_COUNTDOWN_SECONDS)")
	fs.Int64Var(&cfg.goDelayMs, "go-delay-ms", 800, "pause after the final countdown tick before GO (env: JOUST_GO_DELAY_MS)")
	fs.Int64Var(&cfg.disconnectGraceMs, "disconnect-grace-ms", 10000, "lobby disconnect grace period in milliseconds (env: JOUST_DISCONNECT_GRACE_MS)")
	fs.Int64Var(&cfg.readyDelayMs, "ready-delay-ms", 1500, "ready-input lockout after death/round-end in milliseconds (env: JOUST_READY_DELAY_MS)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: JOUST_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
