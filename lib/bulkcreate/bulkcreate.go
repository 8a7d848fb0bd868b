// Copyright 2026 The Jiradeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package bulkcreate reads a CSV of tickets to file and checks every
// row against the cache before anything is sent to Jira.
//
// The first record is the header. Header names are matched without
// regard to case or surrounding space; only summary is required:
//
//	type,summary,assignee_email,epic_key,labels,description
//	Bug,Login fails on Safari,alice@example.com,AMP-7,web|auth,Steps...
//
// A row with errors cannot be filed; a preview with any such row
// cannot be submitted. Warnings (likely duplicates) do not block.
package bulkcreate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/jiradeck/jiradeck/lib/schema/jira"
	"github.com/jiradeck/jiradeck/lib/ticketcache"
)

// MaxRows caps the data rows of one upload.
const MaxRows = 500

// DefaultType is the issue type of rows with an empty type column.
const DefaultType = "Task"

// DefaultIssueTypes are the types a row may name when the caller
// supplies none.
var DefaultIssueTypes = []string{"Task", "Story", "Bug", "Epic"}

var (
	// ErrTooManyRows is returned for a file with more than MaxRows
	// data rows.
	ErrTooManyRows = fmt.Errorf("row limit exceeded: at most %d rows per upload", MaxRows)

	// ErrNoSummaryColumn is returned when the header lacks summary.
	ErrNoSummaryColumn = errors.New("missing required 'summary' header")

	// ErrEmpty is returned for a file with no header record.
	ErrEmpty = errors.New("CSV file is empty")
)

// Context is what rows are checked against.
type Context struct {
	// KnownEpics holds upper-cased epic keys.
	KnownEpics map[string]bool

	// ExistingSummaries holds normalized summaries of cached tickets.
	ExistingSummaries map[string]bool

	IssueTypes []string
}

// NewContext collects the cached epics and ticket summaries from view.
// A nil issueTypes uses DefaultIssueTypes.
func NewContext(view ticketcache.View, issueTypes []string) Context {
	if len(issueTypes) == 0 {
		issueTypes = DefaultIssueTypes
	}
	context := Context{
		KnownEpics:        make(map[string]bool),
		ExistingSummaries: make(map[string]bool),
		IssueTypes:        issueTypes,
	}
	for _, epic := range view.Epics() {
		context.KnownEpics[strings.ToUpper(epic.Epic.Key)] = true
	}
	for _, ticket := range view.Tickets() {
		if summary := NormalizeSummary(ticket.Summary); summary != "" {
			context.ExistingSummaries[summary] = true
		}
	}
	return context
}

// NormalizeSummary is the form summaries are compared in for
// duplicate detection.
func NormalizeSummary(summary string) string {
	return strings.ToLower(strings.TrimSpace(summary))
}

// Row is one data record of the upload.
type Row struct {
	// Number is the 1-based line of the record in the file; the
	// header is line 1.
	Number int

	Type          string
	Summary       string
	AssigneeEmail string
	EpicKey       string
	Labels        []string
	Description   string

	Errors   []string
	Warnings []string
}

// Valid reports whether the row can be filed.
func (row Row) Valid() bool { return len(row.Errors) == 0 }

// Command returns the create command for the row in project.
func (row Row) Command(project string) jira.CreateCommand {
	command := jira.CreateCommand{
		Project:     project,
		Type:        row.Type,
		Summary:     row.Summary,
		EpicKey:     row.EpicKey,
		Description: row.Description,
		Labels:      row.Labels,
	}
	if row.AssigneeEmail != "" {
		command.Assignee = jira.TeamMember{Email: row.AssigneeEmail}
	}
	return command
}

// Preview is a parsed and checked upload.
type Preview struct {
	Path string
	Rows []Row

	Total    int
	Valid    int
	Invalid  int
	Warnings int
}

// CanSubmit reports whether every row is valid and there is at least
// one.
func (preview *Preview) CanSubmit() bool {
	return preview.Total > 0 && preview.Invalid == 0
}

// ValidRows returns the rows that would be filed, in file order.
func (preview *Preview) ValidRows() []Row {
	rows := make([]Row, 0, preview.Valid)
	for _, row := range preview.Rows {
		if row.Valid() {
			rows = append(rows, row)
		}
	}
	return rows
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string, context Context) (*Preview, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV file: %w", err)
	}
	defer file.Close()

	preview, err := Parse(file, context)
	if err != nil {
		return nil, err
	}
	preview.Path = path
	return preview, nil
}

// Parse reads a CSV upload and checks each row. Records may have
// fewer or more fields than the header; missing fields read as empty.
// A malformed record or more than MaxRows rows fails the whole file.
func Parse(reader io.Reader, context Context) (*Preview, error) {
	records := csv.NewReader(reader)
	records.FieldsPerRecord = -1

	header, err := records.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for index, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, seen := columns[name]; !seen {
			columns[name] = index
		}
	}
	if _, ok := columns["summary"]; !ok {
		return nil, ErrNoSummaryColumn
	}

	checker := rowChecker{context: context, columns: columns, seen: make(map[string]int)}
	preview := &Preview{}
	for index := 0; ; index++ {
		record, err := records.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if index >= MaxRows {
			return nil, ErrTooManyRows
		}
		number := index + 2
		if err != nil {
			return nil, fmt.Errorf("row %d: check quoting and delimiters: %w", number, err)
		}
		row := checker.check(number, record)
		preview.Rows = append(preview.Rows, row)
		if !row.Valid() {
			preview.Invalid++
		}
		preview.Warnings += len(row.Warnings)
	}
	preview.Total = len(preview.Rows)
	preview.Valid = preview.Total - preview.Invalid
	return preview, nil
}

type rowChecker struct {
	context Context
	columns map[string]int

	// seen counts normalized summaries earlier in the file.
	seen map[string]int
}

func (checker *rowChecker) field(record []string, name string) string {
	index, ok := checker.columns[name]
	if !ok || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

func (checker *rowChecker) check(number int, record []string) Row {
	row := Row{
		Number:        number,
		Type:          DefaultType,
		Summary:       checker.field(record, "summary"),
		AssigneeEmail: checker.field(record, "assignee_email"),
		EpicKey:       checker.field(record, "epic_key"),
		Description:   checker.field(record, "description"),
	}

	if row.Summary == "" {
		row.Errors = append(row.Errors, "summary is required")
	}

	if issueType := checker.field(record, "type"); issueType != "" {
		index := slices.IndexFunc(checker.context.IssueTypes, func(known string) bool {
			return strings.EqualFold(known, issueType)
		})
		if index < 0 {
			row.Type = issueType
			row.Errors = append(row.Errors, fmt.Sprintf("invalid type %q; expected one of %s",
				issueType, strings.Join(checker.context.IssueTypes, ", ")))
		} else {
			row.Type = checker.context.IssueTypes[index]
		}
	}

	if row.AssigneeEmail != "" && !validEmail(row.AssigneeEmail) {
		row.Errors = append(row.Errors, fmt.Sprintf("invalid assignee_email %q", row.AssigneeEmail))
	}

	if row.EpicKey != "" {
		switch {
		case !validKey(row.EpicKey):
			row.Errors = append(row.Errors, fmt.Sprintf("invalid epic_key %q", row.EpicKey))
		case !checker.context.KnownEpics[strings.ToUpper(row.EpicKey)]:
			row.Errors = append(row.Errors, fmt.Sprintf("unknown epic_key %q", row.EpicKey))
		default:
			row.EpicKey = strings.ToUpper(row.EpicKey)
		}
	}

	for label := range strings.SplitSeq(checker.field(record, "labels"), "|") {
		if label = strings.TrimSpace(label); label != "" {
			row.Labels = append(row.Labels, label)
		}
	}

	if summary := NormalizeSummary(row.Summary); summary != "" {
		if checker.context.ExistingSummaries[summary] {
			row.Warnings = append(row.Warnings, "possible duplicate: summary matches an existing ticket")
		}
		if checker.seen[summary] > 0 {
			row.Warnings = append(row.Warnings, "duplicate summary in this CSV")
		}
		checker.seen[summary]++
	}
	return row
}

// validEmail accepts local@domain where the domain has a dot.
func validEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	return ok && local != "" && domain != "" && !strings.Contains(domain, "@") && strings.Contains(domain, ".")
}

// validKey accepts PROJECT-123 with an alphanumeric project.
func validKey(key string) bool {
	project, number, ok := strings.Cut(key, "-")
	if !ok || project == "" || number == "" {
		return false
	}
	for _, character := range project {
		if !isASCIILetterOrDigit(character) {
			return false
		}
	}
	for _, character := range number {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}

func isASCIILetterOrDigit(character rune) bool {
	return ('a' <= character && character <= 'z') ||
		('A' <= character && character <= 'Z') ||
		('0' <= character && character <= '9')
}

// Failure is a valid row Jira refused.
type Failure struct {
	Row     int
	Summary string
	Err     error
}

// Result reports how an upload ended.
type Result struct {
	Path      string
	Total     int
	Attempted int
	Created   []string
	Failed    []Failure
}

// NewResult starts the result of submitting preview's valid rows.
func NewResult(preview *Preview) Result {
	return Result{Path: preview.Path, Total: preview.Total, Attempted: preview.Valid}
}

// Done reports whether every attempted row has an outcome.
func (result Result) Done() bool {
	return len(result.Created)+len(result.Failed) >= result.Attempted
}

// String summarizes the result for a status line.
func (result Result) String() string {
	text := fmt.Sprintf("bulk upload: %d created", len(result.Created))
	if len(result.Failed) > 0 {
		text += fmt.Sprintf(", %d failed", len(result.Failed))
	}
	return text
}
