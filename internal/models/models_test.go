package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestJobStatusValues(t *testing.T) {
	statuses := []JobStatus{
		JobStatusProcessing,
		JobStatusCompleted,
		JobStatusFailed,
	}

	for _, s := range statuses {
		if s == "" {
			t.Errorf("empty status value: %v", s)
		}
	}
}

func TestJobStateJSONRoundTrip(t *testing.T) {
	state := JobState{
		JobID:     uuid.New(),
		Status:    JobStatusCompleted,
		Progress:  100,
		OutputURL: "https://cdn.example.com/renders/abc/final.mp4",
	}

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("failed to marshal job state: %v", err)
	}

	var decoded JobState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal job state: %v", err)
	}

	if decoded.JobID != state.JobID {
		t.Errorf("job id mismatch: %v vs %v", decoded.JobID, state.JobID)
	}
	if decoded.Status != JobStatusCompleted {
		t.Errorf("expected completed status, got %v", decoded.Status)
	}
	if decoded.OutputURL != state.OutputURL {
		t.Errorf("output URL mismatch: %q", decoded.OutputURL)
	}
}

func TestJobStateOmitsEmptyFields(t *testing.T) {
	state := JobState{
		JobID:    uuid.New(),
		Status:   JobStatusProcessing,
		Progress: 20,
	}

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if _, ok := raw["output_url"]; ok {
		t.Error("empty output_url should be omitted")
	}
	if _, ok := raw["error"]; ok {
		t.Error("empty error should be omitted")
	}
}
