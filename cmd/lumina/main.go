package main

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/lumina-photos/lumina/internal/auth"
	"github.com/lumina-photos/lumina/internal/config"
	"github.com/lumina-photos/lumina/internal/lightroom"
	"github.com/lumina-photos/lumina/internal/logger"
	"github.com/lumina-photos/lumina/internal/server"
	"github.com/lumina-photos/lumina/internal/session"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lumina",
	Short: "A web gallery for Adobe Lightroom albums",
	Long: `Lumina is a small web application that authenticates against Adobe
Lightroom via OAuth2 and lets you browse your albums and photos.`,
	Run: runServer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags()
	rootCmd.PersistentFlags().AddFlagSet(pflag.CommandLine)
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
}

func runServer(cmd *cobra.Command, args []string) {
	// Configuration problems are fatal before any listener is opened
	cfg, err := config.Load()
	if err != nil {
		pterm.Error.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(&cfg.Logging); err != nil {
		pterm.Error.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	app := fx.New(
		fx.Supply(cfg),
		fx.NopLogger,
		config.Module,
		session.Module,
		auth.Module,
		lightroom.Module,
		server.Module,
	)

	app.Run()
}
