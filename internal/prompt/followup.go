package prompt

import (
	"strings"

	"github.com/kursadbilgin/dining-desk/internal/domain"
)

const FollowUpPrefix = `
You are an AI assistant for a fine dining restaurant. Analyze the following diners' information and identify which diners need follow-up based on their emails. Focus on diners who have specific questions, requests, or concerns that need addressing.

For each diner that needs follow-up, explain what needs to be addressed.

Here is the diner information:
`

const FollowUpSuffix = `

---

## ANALYSIS INSTRUCTIONS

Based on the information above, analyze which diners need follow-up based on their email inquiries.

IMPORTANT: You must respond ONLY with a JSON array. Do not include any explanatory text before or after the JSON.

Each diner requiring follow-up should be included as an object in the array with these exact keys:
- "Name": The diner's full name (string)
- "Reservation": The reservation date in YYYY-MM-DD format (string)
- "Reason": A concise reason why follow-up is needed (string)

### Rules for determining if follow-up is needed:
1. ONLY include diners who have specific questions, requests, or concerns in their emails
2. DO NOT include diners whose inquiries are only about dietary preferences or special occasions
3. If no diners need follow-up, return an empty array: []

### Example of expected response format:
[
  {
    "Name": "Emily Chen",
    "Reservation": "2024-05-20",
    "Reason": "Request to adjust table for an additional guest"
  },
  {
    "Name": "David Martinez",
    "Reservation": "2024-05-20",
    "Reason": "Inquiry about availability of private dining area"
  }
]
`

// BuildFollowUp renders one generation prompt for a batch of diners.
func BuildFollowUp(diners []domain.Diner) string {
	var b strings.Builder
	b.WriteString(FollowUpPrefix)

	for _, d := range diners {
		b.WriteString("\n\n### Diner: ")
		b.WriteString(d.DisplayName())
		b.WriteString("\nReservation Date: ")
		b.WriteString(d.FirstReservationDate())

		if !d.HasEmails() {
			continue
		}

		b.WriteString("\nEmail Inquiries:")
		for _, e := range d.Emails {
			b.WriteString("\n- **Subject:** ")
			b.WriteString(e.SubjectLine())
			b.WriteString("\n  **Content:** ")
			b.WriteString(e.Body())
		}
	}

	b.WriteString(FollowUpSuffix)
	return b.String()
}
