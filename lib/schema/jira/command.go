// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package jira

import (
	"errors"
	"fmt"
	"strings"
)

// Command is a change sent to Jira. The set of implementations is
// closed: MoveCommand, AssignCommand, CommentCommand, EditCommand, and
// CreateCommand.
type Command interface {
	// TicketKey returns the key the command changes. Empty for
	// CreateCommand, which has no key until Jira assigns one.
	TicketKey() string

	// Describe returns a short human-readable description for
	// notices ("move AMP-3 to In Review").
	Describe() string

	// Validate checks the command before it is applied or sent.
	Validate() error

	command()
}

// MoveCommand transitions a ticket to a new status. Resolution is
// optional and only meaningful for done statuses.
type MoveCommand struct {
	Key        string
	Status     Status
	Resolution string
}

func (c MoveCommand) TicketKey() string { return c.Key }

func (c MoveCommand) Describe() string {
	return fmt.Sprintf("move %s to %s", c.Key, c.Status)
}

func (c MoveCommand) Validate() error {
	if c.Key == "" {
		return errors.New("move: key is required")
	}
	if c.Status.IsZero() {
		return fmt.Errorf("move %s: target status is required", c.Key)
	}
	return nil
}

func (MoveCommand) command() {}

// AssignCommand changes the assignee. The zero Assignee unassigns.
type AssignCommand struct {
	Key      string
	Assignee TeamMember
}

func (c AssignCommand) TicketKey() string { return c.Key }

func (c AssignCommand) Describe() string {
	if c.Assignee.IsZero() {
		return "unassign " + c.Key
	}
	return fmt.Sprintf("assign %s to %s", c.Key, c.Assignee)
}

func (c AssignCommand) Validate() error {
	if c.Key == "" {
		return errors.New("assign: key is required")
	}
	if !c.Assignee.IsZero() && c.Assignee.Email == "" {
		return fmt.Errorf("assign %s: assignee %q has no email", c.Key, c.Assignee.Name)
	}
	return nil
}

func (AssignCommand) command() {}

// CommentCommand appends a comment.
type CommentCommand struct {
	Key  string
	Body string
}

func (c CommentCommand) TicketKey() string { return c.Key }

func (c CommentCommand) Describe() string { return "comment on " + c.Key }

func (c CommentCommand) Validate() error {
	if c.Key == "" {
		return errors.New("comment: key is required")
	}
	if strings.TrimSpace(c.Body) == "" {
		return fmt.Errorf("comment on %s: body is empty", c.Key)
	}
	return nil
}

func (CommentCommand) command() {}

// EditCommand replaces a ticket's summary and label set.
// PreviousLabels is the label set being replaced; the adapter needs it
// to compute removals.
type EditCommand struct {
	Key            string
	Summary        string
	Labels         []string
	PreviousLabels []string
}

func (c EditCommand) TicketKey() string { return c.Key }

func (c EditCommand) Describe() string { return "edit " + c.Key }

func (c EditCommand) Validate() error {
	if c.Key == "" {
		return errors.New("edit: key is required")
	}
	if strings.TrimSpace(c.Summary) == "" {
		return fmt.Errorf("edit %s: summary is empty", c.Key)
	}
	for _, label := range c.Labels {
		if strings.ContainsAny(label, " \t\n") {
			return fmt.Errorf("edit %s: label %q contains whitespace", c.Key, label)
		}
	}
	return nil
}

func (EditCommand) command() {}

// CreateCommand files a new ticket.
type CreateCommand struct {
	Project     string
	Type        string
	Summary     string
	Assignee    TeamMember
	EpicKey     string
	Description string
	Labels      []string
}

func (CreateCommand) TicketKey() string { return "" }

func (c CreateCommand) Describe() string {
	return fmt.Sprintf("create %s %q", c.Type, c.Summary)
}

func (c CreateCommand) Validate() error {
	if c.Project == "" {
		return errors.New("create: project is required")
	}
	if strings.TrimSpace(c.Summary) == "" {
		return errors.New("create: summary is empty")
	}
	if c.Type == "" {
		return errors.New("create: issue type is required")
	}
	return nil
}

func (CreateCommand) command() {}

// MutationOutcome is what Jira reports back for a successful command.
type MutationOutcome struct {
	// Key is the affected ticket. For CreateCommand it is the newly
	// assigned key.
	Key string

	// URL is the browse URL, when the adapter knows it.
	URL string
}
