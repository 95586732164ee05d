package models

import "testing"

func TestIsCompleted(t *testing.T) {
	tests := []struct {
		status    string
		completed bool
	}{
		{"done", true},
		{"Done", true},
		{"CLOSED", true},
		{"Resolved", true},
		{"In Progress", false},
		{"todo", false},
		{"Unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			task := Task{Status: tt.status}
			if got := task.IsCompleted(); got != tt.completed {
				t.Errorf("IsCompleted() with status %q = %v, want %v", tt.status, got, tt.completed)
			}
		})
	}
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		name string
		want Priority
	}{
		{"Highest", PriorityCritical},
		{"critical", PriorityCritical},
		{"High", PriorityHigh},
		{"Medium", PriorityMedium},
		{"Low", PriorityLow},
		{"Lowest", PriorityLow},
		{"Blocker", PriorityMedium},
		{"", PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePriority(tt.name); got != tt.want {
				t.Errorf("NormalizePriority(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestPriorityRank(t *testing.T) {
	if PriorityCritical.Rank() <= PriorityHigh.Rank() {
		t.Error("critical should rank above high")
	}
	if PriorityHigh.Rank() <= PriorityMedium.Rank() {
		t.Error("high should rank above medium")
	}
	if PriorityMedium.Rank() <= PriorityLow.Rank() {
		t.Error("medium should rank above low")
	}
	if Priority("").Rank() != 0 {
		t.Errorf("unset priority rank = %d, want 0", Priority("").Rank())
	}
	if Priority("blocker").Rank() != 0 {
		t.Errorf("unrecognized priority rank = %d, want 0", Priority("blocker").Rank())
	}
}
