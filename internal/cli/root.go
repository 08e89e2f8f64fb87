// Package cli is the lifeos command line: the server itself, local user
// administration and a thin API client for everyday use.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"life-os/internal/client"
	"life-os/internal/config"
	"life-os/internal/database"
	"life-os/internal/services"
)

const Version = "0.1.0"

type options struct {
	configPath string
	server     string
	token      string
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌ "+err.Error())
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "lifeos",
		Short:         "Personal life dashboard backend",
		Long:          "lifeos stores tasks, habits, goals, planners and finances, serves them over HTTP and sends reminders over Telegram.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultFile+" if present)")
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("LIFEOS_SERVER", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("LIFEOS_TOKEN"), "API token (LIFEOS_TOKEN)")

	root.AddCommand(
		newServeCmd(opts),
		newUserCmd(opts),
		newTokenCmd(opts),
		newUpcomingCmd(opts),
		newTasksCmd(opts),
		newHabitsCmd(opts),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (o *options) client() (*client.Client, error) {
	if o.token == "" {
		return nil, fmt.Errorf("no token: pass --token or set LIFEOS_TOKEN (see `lifeos token`)")
	}
	return client.New(o.server, o.token), nil
}

// openServices opens the local database for admin commands.
func (o *options) openServices() (*services.ServiceManager, *config.Config, func(), error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.New(cfg.Database.Path, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	sm := services.NewServiceManager(db, services.Options{
		Location: cfg.Location(),
		Secret:   []byte(cfg.Auth.Secret),
		TokenTTL: cfg.Auth.TokenTTL,
	}, nil)
	return sm, cfg, func() { _ = db.Close() }, nil
}
