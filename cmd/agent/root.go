package main

import (
	"fmt"
	"io"
	"os"

	"neoagent/internal/config"
	"neoagent/internal/pkg/logger"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd is the base command when neoagent is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "neoagent",
	Short: "neoagent network discovery agent",
	Long: `neoagent sweeps address ranges for live hosts and reports what it finds
to an inventory server.

Examples:
  1. Run one discovery pass over a range and report it
     neoagent discover --range 192.168.1.1-192.168.1.254 --entity site-a

  2. Serve the local status/health API
     neoagent serve --config ./configs/config.yaml
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initCLILogger(cmd)
	},
}

// Execute runs the root command, recovering from any panic so a crash never
// leaves a bare Go stack trace in front of the operator.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n[FATAL] agent crashed unexpectedly: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads the config file and environment variables viper sees
// before any subcommand's RunE executes.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// initCLILogger wires up logrus plus pterm's console output, gated by the
// --log-level flag so scripted invocations stay quiet by default.
func initCLILogger(cmd *cobra.Command) {
	flag := cmd.Flags().Lookup("log-level")
	level := "fatal"
	if flag != nil && flag.Changed {
		level = flag.Value.String()
	}

	switch level {
	case "debug":
		pterm.EnableDebugMessages()
	case "info":
		pterm.DisableDebugMessages()
	case "warn", "error", "fatal":
		pterm.DisableDebugMessages()
		pterm.Info = *pterm.Info.WithWriter(io.Discard)
	}

	logConfig := &config.LogConfig{
		Level:  level,
		Format: "text",
		Output: "stdout",
		Caller: false,
	}

	if _, err := logger.InitLogger(logConfig); err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
	}
}
