package views

import (
	"strings"
	"testing"

	"chatd/internal/api"
)

func TestReactionSummaryCollapsesBySymbol(t *testing.T) {
	got := reactionSummary(map[string]string{
		"alice": "👍",
		"bob":   "👍",
		"carol": "😀",
	})
	if got != "👍 2 😀 1" {
		t.Errorf("summary = %q", got)
	}
}

func TestStatusTicks(t *testing.T) {
	if statusTicks("sent") != "✓" || statusTicks("delivered") != "✓✓" {
		t.Error("tick rendering wrong")
	}
	if !strings.Contains(statusTicks("read"), "✓✓") {
		t.Errorf("read ticks = %q", statusTicks("read"))
	}
}

func TestBodyLineTombstone(t *testing.T) {
	m := api.Message{Content: "[deleted]", IsDeleted: true, Reactions: map[string]string{"x": "👍"}}
	got := bodyLine(&m)
	if !strings.Contains(got, "[deleted]") {
		t.Errorf("body = %q", got)
	}
	if strings.Contains(got, "👍") {
		t.Errorf("tombstone body leaks reactions: %q", got)
	}
}

func TestHeaderLineMarksEditAndForward(t *testing.T) {
	m := api.Message{SenderID: "bob", SenderName: "Bob", IsEdited: true, ForwardedFrom: "Alice", Status: "sent"}
	got := headerLine(&m, "alice")
	if !strings.Contains(got, "Bob") || !strings.Contains(got, "(edited)") || !strings.Contains(got, "forwarded from Alice") {
		t.Errorf("header = %q", got)
	}
	// Ticks only on own messages.
	if strings.Contains(got, "✓") {
		t.Errorf("header shows ticks for another actor's message: %q", got)
	}
}
