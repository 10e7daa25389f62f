package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"leaguelink/internal/billing"
	"leaguelink/internal/config"
	"leaguelink/internal/gateway"
	"leaguelink/internal/league"
	"leaguelink/internal/oauth"
	"leaguelink/internal/platform"
	"leaguelink/internal/platform/espn"
	"leaguelink/internal/platform/sleeper"
	"leaguelink/internal/platform/yahoo"
	"leaguelink/internal/store"
	"leaguelink/internal/trust"
	"leaguelink/internal/vault"
	"leaguelink/pkg/logging"
)

var (
	serveDebug      bool
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway server",
	Long: `Starts the gateway: the MCP tool endpoint, the credential and league
REST surface, the OAuth 2.1 authorization endpoints and the billing webhook.

Configuration is read from config.yaml in the configuration directory
(default ~/.config/leaguelink). Secret material comes from the environment:
` + config.EnvVaultKey + ` (hex, 32 bytes), ` + config.EnvWebhookSecret + ` and
` + config.EnvYahooSecret + `.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	level := logging.LevelInfo
	if serveDebug {
		level = logging.LevelDebug
	}
	logging.Init(level, logging.FormatText, os.Stderr)

	configPath := serveConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	vaultKey, err := config.VaultKey()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.NewMemoryStore()
	defer st.Stop()

	v, err := vault.New(st, vaultKey)
	if err != nil {
		return fmt.Errorf("initializing credential vault: %w", err)
	}

	ring, err := trust.NewKeyring(ctx, st)
	if err != nil {
		return fmt.Errorf("initializing signing keyring: %w", err)
	}
	tr := trust.New(ring, cfg.Trust.Issuer, cfg.Trust.Audience, trust.NopNotifier{})

	adapters := platform.NewRegistry()
	adapters.Register(espn.New(v, ""))
	adapters.Register(yahoo.New(v, cfg.Yahoo.ClientID, config.YahooClientSecret(), ""))
	adapters.Register(sleeper.New(v, ""))

	leagues := league.NewRegistry(st)

	subscriptions := billing.NewCache(st)
	planFor := func(ctx context.Context, userID string) trust.Plan {
		if subscriptions.IsActive(ctx, userID) {
			return trust.PlanPaid
		}
		return trust.PlanFree
	}

	manager := oauth.NewManager(st, tr, planFor)
	oauthHandler := oauth.NewHandler(manager, bearerAuth(tr))

	var webhook *billing.WebhookHandler
	if cfg.Billing.WebhookEnabled {
		secret, err := config.WebhookSecret()
		if err != nil {
			return err
		}
		webhook = billing.NewWebhookHandler(subscriptions, secret)
	}

	gw := gateway.New(gateway.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, tr, adapters, leagues, v, oauthHandler, webhook)

	if err := gw.Start(ctx); err != nil {
		return fmt.Errorf("starting gateway: %w", err)
	}

	<-ctx.Done()
	logging.Info("Serve", "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return gw.Stop(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Custom configuration directory path")
}
