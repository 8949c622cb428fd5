package domain

import "time"

const DefaultBatchSize = 20

// Batch is a contiguous slice of the diner list with a zero-based id.
type Batch struct {
	ID     int
	Diners []Diner
}

func (b Batch) Names() []string {
	names := make([]string, 0, len(b.Diners))
	for _, d := range b.Diners {
		names = append(names, d.DisplayName())
	}
	return names
}

func (b Batch) HasEmails() bool {
	for _, d := range b.Diners {
		if d.HasEmails() {
			return true
		}
	}
	return false
}

// FollowUp is a diner flagged by the model. Empty fields are defaulted when rendered.
type FollowUp struct {
	Name        string `json:"Name"`
	Reservation string `json:"Reservation"`
	Reason      string `json:"Reason"`
}

type BatchResult struct {
	BatchID     int           `json:"batchId"`
	Size        int           `json:"size"`
	Names       []string      `json:"names"`
	Duration    time.Duration `json:"duration"`
	Skipped     bool          `json:"skipped"`
	Error       string        `json:"error,omitempty"`
	RawResponse string        `json:"rawResponse,omitempty"`
	FollowUps   []FollowUp    `json:"followUps"`
}

func (r BatchResult) Failed() bool {
	return r.Error != ""
}
