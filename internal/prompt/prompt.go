// Package prompt asks the user for feature selections with huh forms.
package prompt

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/tstack-labs/tstack/internal/feature"
)

// ErrAborted is returned when the user cancels a form.
var ErrAborted = errors.New("selection cancelled")

// Prompter collects feature choices. Options passed in are already filtered
// for compatibility.
type Prompter interface {
	Addons(options, preselected []feature.ID) ([]feature.ID, error)
	Examples(options []feature.ID) ([]feature.ID, error)
	Auth(options []feature.ID) (feature.ID, error)
	Confirm(title string) (bool, error)
}

// Form is the interactive Prompter.
type Form struct {
	Accessible bool
	theme      *huh.Theme
}

// NewForm returns a Prompter rendering huh forms.
func NewForm(accessible bool) *Form {
	return &Form{Accessible: accessible, theme: huh.ThemeBase()}
}

// Addons asks for any number of addons.
func (f *Form) Addons(options, preselected []feature.ID) ([]feature.ID, error) {
	if len(options) == 0 {
		return nil, nil
	}
	selected := append([]feature.ID(nil), preselected...)
	field := huh.NewMultiSelect[feature.ID]().
		Title("Select addons").
		Description("Space to toggle, enter to confirm").
		Options(Options(options)...).
		Value(&selected)
	if err := f.run(field); err != nil {
		return nil, err
	}
	return selected, nil
}

// Examples asks for any number of examples.
func (f *Form) Examples(options []feature.ID) ([]feature.ID, error) {
	if len(options) == 0 {
		return nil, nil
	}
	var selected []feature.ID
	field := huh.NewMultiSelect[feature.ID]().
		Title("Include examples").
		Options(Options(options)...).
		Value(&selected)
	if err := f.run(field); err != nil {
		return nil, err
	}
	return selected, nil
}

// Auth asks for one auth provider or none.
func (f *Form) Auth(options []feature.ID) (feature.ID, error) {
	if len(options) == 0 {
		return feature.None, nil
	}
	choice := feature.None
	opts := append(Options(options), huh.NewOption("None", feature.None))
	field := huh.NewSelect[feature.ID]().
		Title("Select an authentication provider").
		Options(opts...).
		Value(&choice)
	if err := f.run(field); err != nil {
		return feature.None, err
	}
	return choice, nil
}

// Confirm asks a yes/no question.
func (f *Form) Confirm(title string) (bool, error) {
	ok := true
	field := huh.NewConfirm().Title(title).Value(&ok)
	if err := f.run(field); err != nil {
		return false, err
	}
	return ok, nil
}

func (f *Form) run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(f.theme).
		WithAccessible(f.Accessible)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return fmt.Errorf("running prompt: %w", err)
	}
	return nil
}

// Options turns feature ids into labeled options, "Label - hint".
func Options(ids []feature.ID) []huh.Option[feature.ID] {
	opts := make([]huh.Option[feature.ID], 0, len(ids))
	for _, id := range ids {
		info, ok := feature.Lookup(id)
		label := string(id)
		if ok {
			label = info.Label
			if info.Hint != "" {
				label += " - " + info.Hint
			}
		}
		opts = append(opts, huh.NewOption(label, id))
	}
	return opts
}

// Static answers every question with fixed values. It backs --yes and tests.
type Static struct {
	AddonChoice   []feature.ID
	ExampleChoice []feature.ID
	AuthChoice    feature.ID
	ConfirmChoice bool
}

func (s Static) Addons(options, preselected []feature.ID) ([]feature.ID, error) {
	if s.AddonChoice == nil {
		return preselected, nil
	}
	return filter(s.AddonChoice, options), nil
}

func (s Static) Examples(options []feature.ID) ([]feature.ID, error) {
	return filter(s.ExampleChoice, options), nil
}

func (s Static) Auth(options []feature.ID) (feature.ID, error) {
	for _, o := range options {
		if o == s.AuthChoice {
			return o, nil
		}
	}
	return feature.None, nil
}

func (s Static) Confirm(string) (bool, error) { return s.ConfirmChoice, nil }

func filter(choice, options []feature.ID) []feature.ID {
	allowed := make(map[feature.ID]bool, len(options))
	for _, o := range options {
		allowed[o] = true
	}
	var out []feature.ID
	for _, c := range choice {
		if allowed[c] {
			out = append(out, c)
		}
	}
	return out
}
