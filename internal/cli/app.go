package cli

import (
	"context"
	"fmt"
	"time"

	"aitrader/internal/api"
	"aitrader/internal/auth"
	"aitrader/internal/config"
	"aitrader/internal/history"
	"aitrader/internal/session"
)

// App wires the session core together for the terminal frontend.
type App struct {
	cfg        config.Config
	gateway    *auth.Gateway
	client     *api.Client
	controller *session.Controller
	history    *history.Store
}

// NewApp composes the client stack from a validated config.
func NewApp(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := auth.NewStore(cfg.CredentialsDir)
	if err != nil {
		return nil, err
	}
	gateway, err := auth.NewGateway(store)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.BaseURL, time.Duration(cfg.RequestTimeoutSeconds)*time.Second, gateway)
	orchestrator := session.NewOrchestrator(client)
	controller := session.NewController(orchestrator, session.WithSessionExpiredHook(func() {
		_ = gateway.ClearToken()
	}))

	return &App{
		cfg:        cfg,
		gateway:    gateway,
		client:     client,
		controller: controller,
		history:    history.NewStore(client),
	}, nil
}

func (a *App) Gateway() *auth.Gateway   { return a.gateway }
func (a *App) Client() *api.Client      { return a.client }
func (a *App) History() *history.Store  { return a.history }
func (a *App) Controller() *session.Controller {
	return a.controller
}

// Run drives the interactive journey: login, pair entry, strategy choice,
// waiting, then result or error, looping until the user quits.
func (a *App) Run(ctx context.Context) error {
	displayWelcomeBanner()

	if err := a.EnsureLoggedIn(ctx); err != nil {
		return err
	}

	for {
		snap := a.controller.Snapshot()

		switch snap.Stage {
		case session.StagePairEntry:
			if !a.gateway.IsAuthenticated() {
				if err := a.EnsureLoggedIn(ctx); err != nil {
					return err
				}
			}
			a.showHistory(ctx)
			pair, err := promptForPair()
			if err != nil {
				return err
			}
			a.controller.SubmitPair(pair)

		case session.StageStrategySelection:
			key, err := promptForStrategy(snap.Pair)
			if err != nil {
				return err
			}
			a.controller.SelectStrategy(ctx, key)

		case session.StageWaiting:
			a.waitForSettlement()

		case session.StageResult:
			fmt.Println(renderOutcome(snap.Outcome))
			fmt.Println()
			a.history.Refresh()
			done, err := a.promptNext()
			if err != nil || done {
				return err
			}

		case session.StageError:
			fmt.Println(renderError(snap.ErrorMessage))
			fmt.Println()
			if !a.gateway.IsAuthenticated() {
				if err := a.EnsureLoggedIn(ctx); err != nil {
					return err
				}
			}
			done, err := a.promptNext()
			if err != nil || done {
				return err
			}
		}
	}
}

// promptNext routes the post-settlement choice back into the controller.
// Returns true when the user wants out.
func (a *App) promptNext() (bool, error) {
	choice, err := promptAfterSettlement()
	if err != nil {
		return false, err
	}
	switch choice {
	case choiceAnalyzeAgain:
		a.controller.AnalyzeAgain()
	case choiceBackToStrategies:
		a.controller.BackToStrategies()
	case choiceLogout:
		if err := a.gateway.ClearToken(); err != nil {
			return false, err
		}
		a.controller.Reset()
		a.history.Refresh()
		fmt.Println(mutedStyle.Render("Logged out."))
	default:
		fmt.Println(mutedStyle.Render("👋 Good luck out there."))
		return true, nil
	}
	return false, nil
}

// EnsureLoggedIn loops the login prompt until a token is held.
func (a *App) EnsureLoggedIn(ctx context.Context) error {
	for !a.gateway.IsAuthenticated() {
		fmt.Println(labelStyle.Render("Log in or register to continue."))
		username, password, err := promptForLogin()
		if err != nil {
			return err
		}

		token, err := a.client.Login(ctx, username, password)
		if err != nil {
			fmt.Println(renderError(loginFailureMessage(err)))
			continue
		}
		if err := a.gateway.SetToken(token); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✅ Logged in."))
		fmt.Println()
	}
	return nil
}

// waitForSettlement repaints the countdown line until the orchestrator
// settles the request one way or the other.
func (a *App) waitForSettlement() {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		snap := a.controller.Snapshot()
		if snap.Stage != session.StageWaiting {
			fmt.Print("\r\033[2K")
			return
		}
		fmt.Printf("\r\033[2K%s", renderWaiting(snap.Estimate))
		<-ticker.C
	}
}

// showHistory renders past signals above the pair prompt, the way the
// original start screen did. A failed fetch never blocks a new analysis.
func (a *App) showHistory(ctx context.Context) {
	signals, err := a.history.Signals(ctx)
	if err != nil {
		fmt.Println(mutedStyle.Render("Could not load history."))
		fmt.Println()
		return
	}
	fmt.Println(renderHistory(signals))
	fmt.Println()
}

// loginFailureMessage maps a login error onto the user-facing text.
func loginFailureMessage(err error) string {
	if apiErr, ok := api.AsError(err); ok {
		switch apiErr.Kind {
		case api.KindConnectivity:
			return session.MsgUnreachable
		default:
			if apiErr.Detail != "" {
				return apiErr.Detail
			}
		}
	}
	return fmt.Sprintf("Login failed: %v", err)
}
