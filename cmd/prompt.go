package cmd

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/spigell/career-path/internal/catalog"
)

const (
	PromptBack      = "back"
	PromptSubmit    = "Submit"
	PromptCancel    = "Cancel"
	PromptTypeOwn   = "Something else (type it)"

	selectPageSize = 10
)

// prompter is the interactive surface of the wizard command.
type prompter interface {
	Select(label string, items []string, searchable bool) (string, error)
	Input(label string) (string, error)
}

type promptUI struct{}

func (promptUI) Select(label string, items []string, searchable bool) (string, error) {
	sel := promptui.Select{
		Label: label,
		Items: items,
		Size:  selectPageSize,
	}

	if searchable {
		sel.Searcher = func(input string, index int) bool {
			// Navigation entries stay visible while searching.
			if items[index] == PromptBack || items[index] == PromptTypeOwn {
				return true
			}
			return len(catalog.Search(items[index:index+1], input)) == 1
		}
	}

	_, value, err := sel.Run()
	return value, err
}

func (promptUI) Input(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("must not be empty")
			}
			return nil
		},
	}
	return p.Run()
}
