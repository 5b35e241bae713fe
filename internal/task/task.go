// Package task holds the task record shared by the store, the HTTP API and the client.
package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Priority is the user-chosen urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists the values offered by the client, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Next cycles Low -> Medium -> High -> Low. Unknown values restart at Low.
func (p Priority) Next() Priority {
	for i, v := range Priorities {
		if v == p {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityLow
}

var (
	ErrMissingFields = errors.New("Missing fields")
	ErrInvalidPatch  = errors.New("invalid patch")
)

// Task is a persisted to-do record owned by a single email address.
// Extra carries document fields written by clients that the record does not model.
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    Priority
	UserEmail   string
	Completed   bool
	Extra       map[string]any
}

type taskJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	UserEmail   string   `json:"userEmail"`
	Completed   bool     `json:"completed"`
}

// knownFields are the keys owned by the record itself.
var knownFields = map[string]bool{
	"id": true, "title": true, "description": true,
	"priority": true, "userEmail": true, "completed": true,
}

// MarshalJSON flattens Extra next to the modelled fields, which win on conflict.
func (t Task) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		UserEmail:   t.UserEmail,
		Completed:   t.Completed,
	})
	if err != nil || len(t.Extra) == 0 {
		return base, err
	}
	out := make(map[string]any, len(t.Extra)+len(knownFields))
	for k, v := range t.Extra {
		if !knownFields[k] {
			out[k] = v
		}
	}
	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

func (t *Task) UnmarshalJSON(b []byte) error {
	var base taskJSON
	if err := json.Unmarshal(b, &base); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	*t = Task{
		ID:          base.ID,
		Title:       base.Title,
		Description: base.Description,
		Priority:    base.Priority,
		UserEmail:   base.UserEmail,
		Completed:   base.Completed,
	}
	for k, v := range all {
		if knownFields[k] {
			continue
		}
		if t.Extra == nil {
			t.Extra = map[string]any{}
		}
		t.Extra[k] = v
	}
	return nil
}

// NewTask is the create payload. Every field is required.
type NewTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	UserEmail   string   `json:"userEmail"`
}

// Validate performs presence checks only.
func (n NewTask) Validate() error {
	if n.Title == "" || n.Description == "" || n.Priority == "" || n.UserEmail == "" {
		return ErrMissingFields
	}
	return nil
}

// Task builds the record to persist; completed always starts false.
func (n NewTask) Task() Task {
	return Task{
		Title:       n.Title,
		Description: n.Description,
		Priority:    n.Priority,
		UserEmail:   n.UserEmail,
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Priority    *Priority
	Completed   *bool
	Extra       map[string]any
}

var jsonNull = []byte("null")

// ParsePatch decodes a JSON object into a Patch. The immutable id and userEmail
// keys are dropped; modelled keys must carry the right JSON type and may not
// be null.
func ParsePatch(b []byte) (Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil || raw == nil {
		return Patch{}, fmt.Errorf("%w: body must be a JSON object", ErrInvalidPatch)
	}
	var p Patch
	for k, v := range raw {
		var err error
		switch k {
		case "id", "userEmail":
			continue
		case "title", "description", "priority", "completed":
			if bytes.Equal(bytes.TrimSpace(v), jsonNull) {
				return Patch{}, fmt.Errorf("%w: field %q may not be null", ErrInvalidPatch, k)
			}
		}
		switch k {
		case "title":
			p.Title = new(string)
			err = json.Unmarshal(v, p.Title)
		case "description":
			p.Description = new(string)
			err = json.Unmarshal(v, p.Description)
		case "priority":
			p.Priority = new(Priority)
			err = json.Unmarshal(v, p.Priority)
		case "completed":
			p.Completed = new(bool)
			err = json.Unmarshal(v, p.Completed)
		default:
			var val any
			err = json.Unmarshal(v, &val)
			if err == nil {
				if p.Extra == nil {
					p.Extra = map[string]any{}
				}
				p.Extra[k] = val
			}
		}
		if err != nil {
			return Patch{}, fmt.Errorf("%w: field %q has the wrong type", ErrInvalidPatch, k)
		}
	}
	return p, nil
}

// MarshalJSON emits only the fields that are set.
func (p Patch) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for k, v := range p.Extra {
		out[k] = v
	}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Priority != nil {
		out["priority"] = *p.Priority
	}
	if p.Completed != nil {
		out["completed"] = *p.Completed
	}
	return json.Marshal(out)
}

// Apply merges p into t.
func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if len(p.Extra) > 0 {
		if t.Extra == nil {
			t.Extra = make(map[string]any, len(p.Extra))
		}
		for k, v := range p.Extra {
			t.Extra[k] = v
		}
	}
}
