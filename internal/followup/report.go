package followup

import (
	"sort"
	"strings"

	"github.com/kursadbilgin/dining-desk/internal/domain"
)

const (
	NoFollowUpsMessage = "No diners requiring follow-up at this time."

	defaultRecordName        = "Unknown"
	defaultRecordReservation = "Unknown date"
	defaultRecordReason      = "No reason provided"
)

// Aggregate flattens follow-ups in batch id order, regardless of arrival order.
func Aggregate(results []domain.BatchResult) []domain.FollowUp {
	ordered := make([]domain.BatchResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].BatchID < ordered[j].BatchID
	})

	records := make([]domain.FollowUp, 0)
	for _, result := range ordered {
		records = append(records, result.FollowUps...)
	}
	return records
}

// Format renders the follow-up report shown to staff.
func Format(records []domain.FollowUp) string {
	if len(records) == 0 {
		return NoFollowUpsMessage
	}

	var b strings.Builder
	for _, r := range records {
		b.WriteString("**Name:** ")
		b.WriteString(orDefault(r.Name, defaultRecordName))
		b.WriteString(" (")
		b.WriteString(orDefault(r.Reservation, defaultRecordReservation))
		b.WriteString(")\n\n**Reason:** ")
		b.WriteString(orDefault(r.Reason, defaultRecordReason))
		b.WriteString("\n\n---\n")
	}
	return b.String()
}

func orDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
