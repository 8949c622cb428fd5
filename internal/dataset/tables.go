package dataset

import (
	"sort"
	"strings"

	"github.com/kursadbilgin/dining-desk/internal/domain"
)

// Row is one reservation line of the master table.
type Row struct {
	Name                  string           `json:"name"`
	Date                  string           `json:"date"`
	PartySize             domain.PartySize `json:"partySize"`
	DietaryInformation    string           `json:"dietaryInformation"`
	SpecialOccasion       string           `json:"specialOccasion"`
	AdditionalInformation string           `json:"additionalInformation"`
}

// VIP reports whether the row should be highlighted for staff.
func (r Row) VIP() bool {
	return strings.Contains(strings.ToUpper(r.AdditionalInformation), "VIP")
}

type Stats struct {
	TotalReservations int `json:"totalReservations"`
	TotalGuests       int `json:"totalGuests"`
	DietaryCount      int `json:"dietaryCount"`
	SpecialOccasions  int `json:"specialOccasions"`
}

// Overview is everything the dashboard shows for one bucket.
type Overview struct {
	Stats            Stats `json:"stats"`
	Reservations     []Row `json:"reservations"`
	Dietary          []Row `json:"dietary"`
	SpecialOccasions []Row `json:"specialOccasions"`
}

// MasterTable has one row per reservation, sorted by date.
func MasterTable(diners []domain.Diner) []Row {
	rows := make([]Row, 0)
	for _, d := range diners {
		for _, res := range d.Reservations {
			row := Row{
				Name:                  d.Name,
				Date:                  strings.TrimSpace(res.Date),
				PartySize:             res.NumberOfPeople,
				DietaryInformation:    strings.TrimSpace(d.DietaryInformation),
				SpecialOccasion:       strings.TrimSpace(d.SpecialOccasion),
				AdditionalInformation: strings.TrimSpace(d.OtherInfo),
			}
			if row.hasDetails() {
				rows = append(rows, row)
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date < rows[j].Date
	})
	return rows
}

func DietaryTable(master []Row) []Row {
	return filterRows(master, func(r Row) bool { return r.DietaryInformation != "" })
}

func SpecialOccasionsTable(master []Row) []Row {
	return filterRows(master, func(r Row) bool { return r.SpecialOccasion != "" })
}

func ComputeStats(master []Row) Stats {
	stats := Stats{TotalReservations: len(master)}
	for _, r := range master {
		if r.PartySize.Known {
			stats.TotalGuests += r.PartySize.Value
		}
		if r.DietaryInformation != "" {
			stats.DietaryCount++
		}
		if r.SpecialOccasion != "" {
			stats.SpecialOccasions++
		}
	}
	return stats
}

func BuildOverview(diners []domain.Diner) Overview {
	master := MasterTable(diners)
	return Overview{
		Stats:            ComputeStats(master),
		Reservations:     master,
		Dietary:          DietaryTable(master),
		SpecialOccasions: SpecialOccasionsTable(master),
	}
}

func (r Row) hasDetails() bool {
	return r.Date != "" ||
		r.PartySize.Known ||
		r.DietaryInformation != "" ||
		r.SpecialOccasion != "" ||
		r.AdditionalInformation != ""
}

func filterRows(rows []Row, keep func(Row) bool) []Row {
	out := make([]Row, 0)
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
