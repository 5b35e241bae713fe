package task

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewTaskValidate(t *testing.T) {
	full := NewTask{Title: "Buy milk", Description: "2%", Priority: PriorityLow, UserEmail: "u1@test.com"}
	if err := full.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	cases := map[string]NewTask{
		"title":       {Description: "2%", Priority: PriorityLow, UserEmail: "u1@test.com"},
		"description": {Title: "Buy milk", Priority: PriorityLow, UserEmail: "u1@test.com"},
		"priority":    {Title: "Buy milk", Description: "2%", UserEmail: "u1@test.com"},
		"userEmail":   {Title: "Buy milk", Description: "2%", Priority: PriorityLow},
	}
	for missing, n := range cases {
		if err := n.Validate(); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("missing %s: expected ErrMissingFields, got %v", missing, err)
		}
	}
	if full.Task().Completed {
		t.Fatalf("new tasks must start incomplete")
	}
}

func TestParsePatch(t *testing.T) {
	p, err := ParsePatch([]byte(`{"completed":true,"title":"x","id":"other","userEmail":"evil@x.com","color":"red"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Completed == nil || !*p.Completed {
		t.Fatalf("expected completed=true")
	}
	if p.Title == nil || *p.Title != "x" {
		t.Fatalf("expected title x")
	}
	if p.Extra["color"] != "red" {
		t.Fatalf("expected extra color, got %v", p.Extra)
	}
	if _, ok := p.Extra["userEmail"]; ok {
		t.Fatalf("userEmail must be dropped")
	}

	tk := Task{ID: "1", Title: "a", Description: "b", Priority: PriorityLow, UserEmail: "a@x.com"}
	p.Apply(&tk)
	if tk.ID != "1" || tk.UserEmail != "a@x.com" || tk.Title != "x" || !tk.Completed || tk.Description != "b" {
		t.Fatalf("unexpected merge result: %+v", tk)
	}
}

func TestParsePatch_Rejects(t *testing.T) {
	for _, body := range []string{`[]`, `"x"`, `null`, `{"completed":"yes"}`, `{"title":5}`, `not json`,
		`{"title":null}`, `{"description": null}`, `{"priority":null}`, `{"completed":null}`} {
		if _, err := ParsePatch([]byte(body)); !errors.Is(err, ErrInvalidPatch) {
			t.Fatalf("body %s: expected ErrInvalidPatch, got %v", body, err)
		}
	}
}

func TestTaskJSON_FlattensExtra(t *testing.T) {
	tk := Task{ID: "1", Title: "a", Description: "b", Priority: PriorityHigh, UserEmail: "a@x.com",
		Extra: map[string]any{"color": "red", "title": "ignored"}}
	b, err := json.Marshal(tk)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	if m["color"] != "red" || m["title"] != "a" || m["userEmail"] != "a@x.com" || m["completed"] != false {
		t.Fatalf("unexpected json: %s", b)
	}
	var back Task
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Extra["color"] != "red" || back.Title != "a" {
		t.Fatalf("unexpected decode: %+v", back)
	}
}

func TestPriorityNext(t *testing.T) {
	if PriorityLow.Next() != PriorityMedium || PriorityHigh.Next() != PriorityLow || Priority("x").Next() != PriorityLow {
		t.Fatalf("unexpected priority cycle")
	}
}
