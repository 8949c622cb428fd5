package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kursadbilgin/dining-desk/internal/domain"
)

// Dataset is the decoded reservations document.
type Dataset struct {
	Diners []domain.Diner `json:"diners"`
}

func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %q: %w", path, err)
	}
	defer f.Close()

	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %q: %w", path, err)
	}
	return ds, nil
}

func Decode(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("invalid dataset json: %w", err)
	}
	if ds.Diners == nil {
		ds.Diners = []domain.Diner{}
	}
	return &ds, nil
}
