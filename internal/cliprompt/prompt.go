// Package cliprompt provides interactive terminal prompts for CLI commands.
package cliprompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return ErrAborted
	}
	return err
}

// Input prompts for text input, falling back to defaultValue on empty entry.
func Input(label, defaultValue string) (string, error) {
	prompt := promptui.Prompt{Label: label, Default: defaultValue}
	result, err := prompt.Run()
	return result, wrapError(err)
}

// InputInt prompts for integer input with validation.
func InputInt(label string, defaultValue int) (int, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: strconv.Itoa(defaultValue),
		Validate: func(input string) error {
			if _, err := strconv.Atoi(input); err != nil {
				return fmt.Errorf("must be a valid integer")
			}
			return nil
		},
	}
	result, err := prompt.Run()
	if err != nil {
		return 0, wrapError(err)
	}
	value, _ := strconv.Atoi(result)
	return value, nil
}

// Confirm prompts for yes/no confirmation, defaulting to defaultYes on
// empty entry.
func Confirm(label string, defaultYes bool) (bool, error) {
	defaultStr := "y/N"
	if defaultYes {
		defaultStr = "Y/n"
	}
	prompt := promptui.Prompt{Label: fmt.Sprintf("%s [%s]", label, defaultStr), IsConfirm: true}
	result, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrAbort {
			if result == "" {
				return defaultYes, nil
			}
			return false, nil
		}
		return false, wrapError(err)
	}
	return strings.EqualFold(result, "y") || strings.EqualFold(result, "yes"), nil
}
