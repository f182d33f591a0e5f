package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"aitrader/internal/strategy"
)

// promptForPair asks for a trading pair. Validation only rejects blank
// input; the backend owns pair semantics.
func promptForPair() (string, error) {
	var pair string
	prompt := &survey.Input{
		Message: "Enter the trading pair:",
		Help:    "For example BTC/USDT. The value is sent uppercased.",
	}

	err := survey.AskOne(prompt, &pair, survey.WithValidator(func(val interface{}) error {
		str, _ := val.(string)
		if strings.TrimSpace(str) == "" {
			return fmt.Errorf("trading pair cannot be empty")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}

	return strings.ToUpper(strings.TrimSpace(pair)), nil
}

// promptForStrategy lets the user pick one catalog strategy for the pair.
func promptForStrategy(pair string) (strategy.Key, error) {
	catalog := strategy.Catalog()

	options := make([]string, len(catalog))
	for i, s := range catalog {
		options[i] = fmt.Sprintf("%s - %s", s.Name, s.Description)
	}

	var selected string
	prompt := &survey.Select{
		Message: fmt.Sprintf("Choose a strategy for %s:", pair),
		Options: options,
		Help:    "Each strategy targets a different holding window.",
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}

	for i, option := range options {
		if option == selected {
			return catalog[i].Key, nil
		}
	}
	return "", fmt.Errorf("unknown strategy selection %q", selected)
}

// promptForLogin collects credentials for the login endpoint.
func promptForLogin() (string, string, error) {
	var username string
	if err := survey.AskOne(&survey.Input{
		Message: "Username:",
	}, &username, survey.WithValidator(survey.Required)); err != nil {
		return "", "", err
	}

	var password string
	if err := survey.AskOne(&survey.Password{
		Message: "Password:",
	}, &password, survey.WithValidator(survey.Required)); err != nil {
		return "", "", err
	}

	return username, password, nil
}

// What the user can do once a request has settled.
const (
	choiceAnalyzeAgain     = "Analyze another pair"
	choiceBackToStrategies = "Try another strategy for the same pair"
	choiceLogout           = "Log out"
	choiceQuit             = "Quit"
)

// promptAfterSettlement asks where to go from a result or error view.
func promptAfterSettlement() (string, error) {
	var choice string
	prompt := &survey.Select{
		Message: "What next?",
		Options: []string{choiceAnalyzeAgain, choiceBackToStrategies, choiceLogout, choiceQuit},
		Default: choiceAnalyzeAgain,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", err
	}
	return choice, nil
}
