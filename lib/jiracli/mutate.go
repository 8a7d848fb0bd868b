// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package jiracli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// unassignArgument is the jira CLI's assignee value for "nobody".
const unassignArgument = "x"

// Mutate sends command to Jira. For a CreateCommand the outcome
// carries the key Jira assigned, parsed from the CLI's output.
func (client *Client) Mutate(ctx context.Context, command jira.Command) (jira.MutationOutcome, error) {
	if command == nil {
		return jira.MutationOutcome{}, errors.New("jiracli: nil command")
	}
	fail := func(err error) (jira.MutationOutcome, error) {
		return jira.MutationOutcome{}, &jira.MutateError{Command: command, Err: err}
	}
	if err := command.Validate(); err != nil {
		return fail(err)
	}

	args, err := mutationArgs(command)
	if err != nil {
		return fail(err)
	}
	output, err := client.runner.Run(ctx, args...)
	if err != nil {
		return fail(err)
	}

	key := command.TicketKey()
	if _, isCreate := command.(jira.CreateCommand); isCreate {
		matches := keyPattern.FindAllString(output, -1)
		if len(matches) == 0 {
			return fail(fmt.Errorf("no ticket key in create output %q", output))
		}
		// The CLI prints the browse URL last; earlier matches can come
		// from an epic key echoed back.
		key = matches[len(matches)-1]
	}

	client.logger.Info("jira updated", "command", command.Describe(), "key", key)
	return jira.MutationOutcome{Key: key, URL: client.BrowseURL(key)}, nil
}

func mutationArgs(command jira.Command) ([]string, error) {
	switch command := command.(type) {
	case jira.MoveCommand:
		args := []string{"issue", "move", command.Key, command.Status.String()}
		if command.Resolution != "" {
			args = append(args, "--resolution", command.Resolution)
		}
		return args, nil

	case jira.AssignCommand:
		assignee := unassignArgument
		if !command.Assignee.IsZero() {
			assignee = command.Assignee.Email
		}
		return []string{"issue", "assign", command.Key, assignee}, nil

	case jira.CommentCommand:
		return []string{"issue", "comment", "add", command.Key, command.Body, "--no-input"}, nil

	case jira.EditCommand:
		args := []string{"issue", "edit", command.Key, "--summary", command.Summary}
		labels := jira.NormalizeLabels(command.Labels)
		previous := jira.NormalizeLabels(command.PreviousLabels)
		for _, label := range labels {
			if !slices.Contains(previous, label) {
				args = append(args, "--label", label)
			}
		}
		for _, label := range previous {
			if !slices.Contains(labels, label) {
				args = append(args, "--label", "-"+label)
			}
		}
		return append(args, "--no-input"), nil

	case jira.CreateCommand:
		args := []string{
			"issue", "create",
			"--project", command.Project,
			"--type", command.Type,
			"--summary", command.Summary,
		}
		if !command.Assignee.IsZero() {
			args = append(args, "--assignee", command.Assignee.Email)
		}
		if command.EpicKey != "" {
			args = append(args, "--parent", command.EpicKey)
		}
		if command.Description != "" {
			args = append(args, "--body", command.Description)
		}
		for _, label := range jira.NormalizeLabels(command.Labels) {
			args = append(args, "--label", label)
		}
		return append(args, "--no-input"), nil

	default:
		return nil, fmt.Errorf("unsupported command %T", command)
	}
}
