// Package jira talks to the external issue tracker: it runs scoped searches,
// performs issue mutations, and normalizes raw tracker records into the
// internal task representation.
package jira

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Issue is one raw record returned by the tracker search API. Fields the
// tracker omits decode to their zero values; the mapper applies defaults.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields is the requested field set for a search. Description and the
// sprint field are left loosely typed because the tracker returns them in
// more than one shape.
type IssueFields struct {
	Summary     string          `json:"summary"`
	Description any             `json:"description"`
	Status      *NamedField     `json:"status"`
	Assignee    *UserField      `json:"assignee"`
	Priority    *NamedField     `json:"priority"`
	IssueType   *NamedField     `json:"issuetype"`
	Created     *Timestamp      `json:"created"`
	Updated     *Timestamp      `json:"updated"`
	Parent      *ParentRef      `json:"parent"`
	Subtasks    []Issue         `json:"subtasks"`
	Sprint      json.RawMessage `json:"customfield_10020"`
}

// NamedField is the common {name: ...} sub-object used for status, priority
// and issue type.
type NamedField struct {
	Name string `json:"name"`
}

// UserField is the assignee sub-object.
type UserField struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// ParentRef is a weak reference to a parent issue by key.
type ParentRef struct {
	Key string `json:"key"`
}

// Sprint is one entry of the tracker's sprint field.
type Sprint struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// Active reports whether this sprint entry is the currently running one.
func (s Sprint) Active() bool {
	return strings.EqualFold(s.State, "active")
}

// jiraTimeLayout is the tracker's timestamp format, e.g.
// "2024-03-05T09:30:00.000+0100".
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

// Timestamp decodes the tracker's timestamp format, falling back to RFC3339.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		ts.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(jiraTimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
	}
	if err != nil {
		return fmt.Errorf("parse tracker timestamp %q: %w", s, err)
	}
	ts.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler for Timestamp.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ts.Format(jiraTimeLayout) + `"`), nil
}

// parseSprints decodes the sprint field, which the tracker returns either as
// a single object or as the issue's sprint history collection. Unparseable
// values yield an empty slice; the field is best-effort.
func parseSprints(raw json.RawMessage) []Sprint {
	if len(raw) == 0 {
		return nil
	}
	var many []Sprint
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	var one Sprint
	if err := json.Unmarshal(raw, &one); err == nil && one.Name != "" {
		return []Sprint{one}
	}
	return nil
}
