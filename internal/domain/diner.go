package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"

	UnknownName    = "Unknown"
	UnknownDate    = "Unknown"
	NoSubject      = "No subject"
	NoEmailContent = "No content"
)

// PartySize is the number of guests on a reservation. Values that are not
// numbers (or numeric strings) decode as unknown instead of failing the dataset.
type PartySize struct {
	Value int
	Known bool
}

func NewPartySize(n int) PartySize {
	return PartySize{Value: n, Known: true}
}

func (p *PartySize) UnmarshalJSON(data []byte) error {
	*p = PartySize{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	raw := string(trimmed)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	*p = PartySize{Value: int(f), Known: true}
	return nil
}

func (p PartySize) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(p.Value)), nil
}

func (p PartySize) String() string {
	if !p.Known {
		return ""
	}
	return strconv.Itoa(p.Value)
}

type Reservation struct {
	Date           string    `json:"date"`
	NumberOfPeople PartySize `json:"number_of_people"`
}

// Time parses the reservation date as YYYY-MM-DD.
func (r Reservation) Time() (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(r.Date))
}

type Email struct {
	Subject        string `json:"subject"`
	CombinedThread string `json:"combined_thread"`
	Content        string `json:"content"`
}

func (e Email) SubjectLine() string {
	if strings.TrimSpace(e.Subject) == "" {
		return NoSubject
	}
	return e.Subject
}

// Body prefers the combined thread over the single message content.
func (e Email) Body() string {
	if strings.TrimSpace(e.CombinedThread) != "" {
		return e.CombinedThread
	}
	if strings.TrimSpace(e.Content) != "" {
		return e.Content
	}
	return NoEmailContent
}

type Diner struct {
	Name               string        `json:"name"`
	Reservations       []Reservation `json:"reservations"`
	Emails             []Email       `json:"emails"`
	DietaryInformation string        `json:"dietary_information"`
	SpecialOccasion    string        `json:"special_occasion"`
	OtherInfo          string        `json:"other_info"`
}

func (d Diner) DisplayName() string {
	if strings.TrimSpace(d.Name) == "" {
		return UnknownName
	}
	return d.Name
}

func (d Diner) HasEmails() bool {
	return len(d.Emails) > 0
}

func (d Diner) FirstReservationDate() string {
	if len(d.Reservations) == 0 {
		return UnknownDate
	}
	if date := strings.TrimSpace(d.Reservations[0].Date); date != "" {
		return date
	}
	return UnknownDate
}

// Clone returns a deep copy so bucketed views never share slices with the source.
func (d Diner) Clone() Diner {
	out := d
	if d.Reservations != nil {
		out.Reservations = append([]Reservation(nil), d.Reservations...)
	}
	if d.Emails != nil {
		out.Emails = append([]Email(nil), d.Emails...)
	}
	return out
}
