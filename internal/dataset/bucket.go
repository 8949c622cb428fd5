package dataset

import "github.com/kursadbilgin/dining-desk/internal/domain"

// Bucket holds the diners whose reservations fall inside one date range.
type Bucket struct {
	Range  domain.DateRange
	Diners []domain.Diner
}

// BucketDiners groups diners by range, in range order. Each diner in a bucket is a
// copy that only carries the reservations inside that range; diners without such
// reservations are left out. Reservations with unparseable dates are ignored.
func BucketDiners(diners []domain.Diner, ranges []domain.DateRange) []Bucket {
	buckets := make([]Bucket, len(ranges))
	for i, r := range ranges {
		buckets[i] = Bucket{Range: r, Diners: []domain.Diner{}}
	}

	for _, diner := range diners {
		for i, r := range ranges {
			inRange := make([]domain.Reservation, 0, len(diner.Reservations))
			for _, res := range diner.Reservations {
				t, err := res.Time()
				if err != nil {
					continue
				}
				if r.Contains(t) {
					inRange = append(inRange, res)
				}
			}
			if len(inRange) == 0 {
				continue
			}

			scoped := diner.Clone()
			scoped.Reservations = inRange
			buckets[i].Diners = append(buckets[i].Diners, scoped)
		}
	}

	return buckets
}
