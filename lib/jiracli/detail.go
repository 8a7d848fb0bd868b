// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

package jiracli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
)

// rawIssue is the subset of "jira issue view --raw" output jiradeck
// reads. The CLI prints the REST API's issue resource verbatim.
type rawIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string          `json:"summary"`
		Description json.RawMessage `json:"description"`
		Labels      []string        `json:"labels"`
		Parent      *struct {
			Key string `json:"key"`
		} `json:"parent"`
		Comment *struct {
			Comments []rawComment `json:"comments"`
		} `json:"comment"`
	} `json:"fields"`
	Changelog *struct {
		Histories []rawHistory `json:"histories"`
	} `json:"changelog"`
}

type rawUser struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

type rawComment struct {
	Author  rawUser         `json:"author"`
	Body    json.RawMessage `json:"body"`
	Created string          `json:"created"`
}

type rawHistory struct {
	Author  rawUser `json:"author"`
	Created string  `json:"created"`
	Items   []struct {
		Field      string `json:"field"`
		FromString string `json:"fromString"`
		ToString   string `json:"toString"`
	} `json:"items"`
}

// FetchDetail fetches the description, labels, and activity of one
// ticket.
func (client *Client) FetchDetail(ctx context.Context, key string) (jira.TicketDetail, error) {
	output, err := client.runner.Run(ctx, "issue", "view", key, "--raw")
	if err != nil {
		return jira.TicketDetail{}, &jira.FetchError{Operation: "detail", Target: key, Err: err}
	}
	detail, err := parseDetail(key, []byte(output))
	if err != nil {
		return jira.TicketDetail{}, &jira.FetchError{Operation: "detail", Target: key, Err: err}
	}
	return detail, nil
}

func parseDetail(key string, data []byte) (jira.TicketDetail, error) {
	var issue rawIssue
	if err := json.Unmarshal(data, &issue); err != nil {
		return jira.TicketDetail{}, fmt.Errorf("decoding issue: %w", err)
	}
	if issue.Key != "" && issue.Key != key {
		return jira.TicketDetail{}, fmt.Errorf("response is for %s", issue.Key)
	}

	description, err := richText(issue.Fields.Description)
	if err != nil {
		return jira.TicketDetail{}, fmt.Errorf("description: %w", err)
	}
	detail := jira.TicketDetail{
		Key:         key,
		Description: description,
		Labels:      jira.NormalizeLabels(issue.Fields.Labels),
	}
	if issue.Fields.Parent != nil {
		detail.EpicKey = issue.Fields.Parent.Key
	}

	if issue.Fields.Comment != nil {
		for _, comment := range issue.Fields.Comment.Comments {
			body, err := richText(comment.Body)
			if err != nil {
				return jira.TicketDetail{}, fmt.Errorf("comment by %s: %w", comment.Author.DisplayName, err)
			}
			created, _ := parseTimestamp(comment.Created)
			detail.Activity = append(detail.Activity, jira.ActivityEntry{
				Timestamp: created,
				Author:    comment.Author.DisplayName,
				Kind:      jira.ActivityComment,
				Body:      body,
			})
		}
	}
	if issue.Changelog != nil {
		for _, history := range issue.Changelog.Histories {
			created, _ := parseTimestamp(history.Created)
			for _, item := range history.Items {
				detail.Activity = append(detail.Activity, jira.ActivityEntry{
					Timestamp: created,
					Author:    history.Author.DisplayName,
					Kind:      activityKind(item.Field),
					Field:     item.Field,
					From:      item.FromString,
					To:        item.ToString,
				})
			}
		}
	}
	jira.SortActivity(detail.Activity)
	return detail, nil
}

func activityKind(field string) jira.ActivityKind {
	switch field {
	case "status":
		return jira.ActivityStatusChange
	case "assignee":
		return jira.ActivityAssigneeChange
	default:
		return jira.ActivityFieldChange
	}
}
