// Package importer parses uploaded contact files into the store.
package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/oxylo/promopilot/internal/apperr"
	"github.com/oxylo/promopilot/internal/models"
	"github.com/oxylo/promopilot/internal/store"
)

// emailPattern is the fixed shape check (local@domain.tld). No further
// RFC conformance and no DNS lookup; validity is a pure function of the
// string.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Importer turns tabular uploads into Contact records.
type Importer struct {
	store *store.Store
}

// New creates an Importer backed by the given store.
func New(s *store.Store) *Importer {
	return &Importer{store: s}
}

// ValidEmail reports whether the email passes the shape check.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ImportCSV reads a CSV payload and bulk-inserts one Contact per data
// row. Malformed rows become invalid contacts; only a missing schema or
// an empty file aborts the import.
func (im *Importer) ImportCSV(reader io.Reader) (*models.ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, apperr.NewValidation("file is empty")
	}
	if err != nil {
		return nil, apperr.NewValidation("failed to read header row: %v", err)
	}

	nameIdx, emailIdx := findColumns(header)
	if nameIdx == -1 && emailIdx == -1 {
		return nil, apperr.NewValidation("file must contain a Name or Email column")
	}

	var contacts []models.Contact
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed row still yields one (invalid) contact, but a
			// failing stream repeats the same error forever, so anything
			// other than a parse error aborts the import.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				contacts = append(contacts, models.Contact{})
				continue
			}
			return nil, apperr.NewValidation("failed to read file: %v", err)
		}

		c := models.Contact{}
		if nameIdx >= 0 && nameIdx < len(record) {
			c.Name = strings.TrimSpace(record[nameIdx])
		}
		if emailIdx >= 0 && emailIdx < len(record) {
			c.Email = strings.TrimSpace(record[emailIdx])
		}
		c.IsValid = ValidEmail(c.Email)
		contacts = append(contacts, c)
	}

	if len(contacts) == 0 {
		return nil, apperr.NewValidation("file has no data rows")
	}

	inserted := im.store.InsertContacts(contacts)

	result := &models.ImportResult{
		Contacts:   inserted,
		Total:      len(inserted),
		ContactIDs: make([]string, len(inserted)),
	}
	for i, c := range inserted {
		result.ContactIDs[i] = c.ID
		if c.IsValid {
			result.Valid++
		} else {
			result.Invalid++
		}
	}
	return result, nil
}

// findColumns locates the name and email columns, matching header
// spellings case-insensitively.
func findColumns(header []string) (nameIdx, emailIdx int) {
	nameIdx, emailIdx = -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name", "full_name", "fullname":
			if nameIdx == -1 {
				nameIdx = i
			}
		case "email", "e-mail", "email_address":
			if emailIdx == -1 {
				emailIdx = i
			}
		}
	}
	return nameIdx, emailIdx
}
