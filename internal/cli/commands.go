package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"aitrader/internal/config"
	"aitrader/internal/session"
	"aitrader/internal/strategy"
)

const version = "1.0.0"

// NewRootCmd creates the root command. Running it with no subcommand starts
// the interactive analysis flow.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aitrader",
		Short: "AI-Trader - trading signal analysis client",
		Long: `AI-Trader asks the analysis backend for a trade plan on a currency pair
and strategy of your choice, shows a live queue estimate while the
analysis runs, and keeps a history of your past signals.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, mgr, err := buildApp(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			// External config edits take effect on the next start; say so
			// instead of silently ignoring them.
			_ = mgr.Watch(ctx, func(config.Config) {
				fmt.Println(mutedStyle.Render("⚙ Config file changed; restart to apply."))
			})

			return app.Run(ctx)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Configuration file path")
	rootCmd.PersistentFlags().String("base-url", "", "Backend base URL (overrides config)")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// buildApp resolves config (file, then flags) and composes the client stack.
func buildApp(cmd *cobra.Command) (*App, *config.Manager, error) {
	var opts []config.ManagerOption
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}
	mgr, err := config.NewManager(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	cfg := mgr.Get()
	if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	app, err := NewApp(cfg)
	if err != nil {
		return nil, nil, err
	}
	return app, mgr, nil
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := buildApp(cmd)
			if err != nil {
				return err
			}
			if app.Gateway().IsAuthenticated() {
				fmt.Println(mutedStyle.Render("Already logged in. Run 'aitrader logout' first to switch accounts."))
				return nil
			}
			return app.EnsureLoggedIn(cmd.Context())
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := buildApp(cmd)
			if err != nil {
				return err
			}
			if err := app.Gateway().ClearToken(); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("✅ Logged out."))
			return nil
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [PAIR]",
		Short: "Run one analysis without the interactive flow",
		Long: `Run a single analysis for a trading pair and print the trade plan.
Example: aitrader analyze BTC/USDT --strategy swing`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategyFlag, _ := cmd.Flags().GetString("strategy")
			key := strategy.Key(strategyFlag)
			if _, ok := strategy.Lookup(key); !ok {
				return fmt.Errorf("unknown strategy %q (swing, intraday, scalping)", strategyFlag)
			}

			app, _, err := buildApp(cmd)
			if err != nil {
				return err
			}
			return runSingleAnalysis(cmd.Context(), app, args[0], key)
		},
	}

	cmd.Flags().String("strategy", string(strategy.Swing), "Strategy key: swing, intraday or scalping")

	return cmd
}

// runSingleAnalysis drives the session controller through one full request.
func runSingleAnalysis(ctx context.Context, app *App, pair string, key strategy.Key) error {
	if err := app.EnsureLoggedIn(ctx); err != nil {
		return err
	}

	controller := app.Controller()
	if !controller.SubmitPair(pair) {
		return fmt.Errorf("trading pair must not be empty")
	}
	if !controller.SelectStrategy(ctx, key) {
		return fmt.Errorf("could not start the analysis")
	}

	app.waitForSettlement()

	snap := controller.Snapshot()
	switch snap.Stage {
	case session.StageResult:
		fmt.Println(renderOutcome(snap.Outcome))
		return nil
	case session.StageError:
		fmt.Println(renderError(snap.ErrorMessage))
		return errors.New(snap.ErrorMessage)
	default:
		return fmt.Errorf("analysis ended in unexpected stage %s", snap.Stage)
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [N]",
		Short: "Show your past signals",
		Long: `Show the list of your past signals, or the full card for signal number N
as listed (1 is the most recent).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := buildApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := app.EnsureLoggedIn(ctx); err != nil {
				return err
			}
			signals, err := app.History().Signals(ctx)
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}

			if len(args) == 0 {
				fmt.Println(renderHistory(signals))
				return nil
			}

			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 || n > len(signals) {
				return fmt.Errorf("signal number must be between 1 and %d", len(signals))
			}
			fmt.Println(renderHistoryDetail(signals[n-1]))
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []config.ManagerOption
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				opts = append(opts, config.WithConfigPath(path))
			}
			mgr, err := config.NewManager(opts...)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(mgr.Get(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(labelStyle.Render("Config file: ") + mgr.Path())
			fmt.Println(string(data))
			return nil
		},
	})

	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("AI-Trader client v%s\n", version)
		},
	}
}
