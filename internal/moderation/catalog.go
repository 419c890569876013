// Package moderation runs the confirm-then-mutate flow shared by the block, ban, unban
// and delete actions.
package moderation

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed actions.yaml
var actionsYAML []byte

// Effect is what a list does after a confirmed action.
type Effect string

const (
	EffectRefetch Effect = "refetch"
	EffectRemove  Effect = "remove"
)

// Action names.
const (
	ActionBlock  = "block"
	ActionBan    = "ban"
	ActionUnban  = "unban"
	ActionDelete = "delete"
)

// Action describes one moderation action and its dialog texts.
type Action struct {
	Name         string `yaml:"name"`
	Endpoint     string `yaml:"endpoint"`
	Title        string `yaml:"title"`
	Prompt       string `yaml:"prompt"`
	ConfirmLabel string `yaml:"confirm_label"`
	CancelLabel  string `yaml:"cancel_label"`
	SuccessTitle string `yaml:"success_title"`
	SuccessText  string `yaml:"success_text"`
	FailureText  string `yaml:"failure_text"`
	Effect       Effect `yaml:"effect"`
}

// PromptFor renders the confirmation question for a user.
func (a Action) PromptFor(userID int64) Prompt {
	return Prompt{
		Action:       a.Name,
		UserID:       userID,
		Title:        a.Title,
		Text:         strings.ReplaceAll(a.Prompt, "{user_id}", strconv.FormatInt(userID, 10)),
		ConfirmLabel: a.ConfirmLabel,
		CancelLabel:  a.CancelLabel,
	}
}

// Catalog indexes actions by name.
type Catalog map[string]Action

// LoadCatalog parses an action catalog document.
func LoadCatalog(data []byte) (Catalog, error) {
	var doc struct {
		Actions []Action `yaml:"actions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse moderation actions: %w", err)
	}
	c := make(Catalog, len(doc.Actions))
	for _, a := range doc.Actions {
		if a.Name == "" || a.Endpoint == "" {
			return nil, fmt.Errorf("moderation action %q has no name or endpoint", a.Name)
		}
		switch a.Effect {
		case EffectRefetch, EffectRemove:
		default:
			return nil, fmt.Errorf("moderation action %q has unknown effect %q", a.Name, a.Effect)
		}
		c[a.Name] = a
	}
	return c, nil
}

// DefaultCatalog returns the embedded action catalog.
func DefaultCatalog() Catalog {
	c, err := LoadCatalog(actionsYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the named action.
func (c Catalog) Lookup(name string) (Action, bool) {
	a, ok := c[name]
	return a, ok
}

// ActionFor picks the toggle action for a user row: unban when blocked, otherwise block
// (ban on the reported users list).
func ActionFor(blocked, reportedList bool) string {
	switch {
	case blocked:
		return ActionUnban
	case reportedList:
		return ActionBan
	default:
		return ActionBlock
	}
}
