package importer

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/oxylo/promopilot/internal/apperr"
	"github.com/oxylo/promopilot/internal/store"
)

// stickyErrReader serves its header content and then fails every
// subsequent Read with the same error, like a dropped upload stream.
type stickyErrReader struct {
	content io.Reader
	err     error
}

func (r *stickyErrReader) Read(p []byte) (int, error) {
	n, err := r.content.Read(p)
	if n > 0 {
		return n, nil
	}
	if err == io.EOF {
		return 0, r.err
	}
	return n, err
}

func TestImportCSV(t *testing.T) {
	im := New(store.New())

	csv := "Name,Email\nAlice,alice@example.com\nBob,bob@example.com\nCarol,not-an-email\n"
	result, err := im.ImportCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}

	if result.Total != 3 {
		t.Errorf("Total = %d, want 3", result.Total)
	}
	if result.Valid != 2 {
		t.Errorf("Valid = %d, want 2", result.Valid)
	}
	if result.Invalid != 1 {
		t.Errorf("Invalid = %d, want 1", result.Invalid)
	}
	if result.Valid+result.Invalid != result.Total {
		t.Errorf("valid+invalid = %d, want %d", result.Valid+result.Invalid, result.Total)
	}
	if len(result.ContactIDs) != 3 {
		t.Errorf("ContactIDs length = %d, want 3", len(result.ContactIDs))
	}

	if result.Contacts[0].Name != "Alice" || result.Contacts[0].Email != "alice@example.com" {
		t.Errorf("first contact = %+v", result.Contacts[0])
	}
	if !result.Contacts[0].IsValid || !result.Contacts[1].IsValid || result.Contacts[2].IsValid {
		t.Errorf("validity flags wrong: %v %v %v",
			result.Contacts[0].IsValid, result.Contacts[1].IsValid, result.Contacts[2].IsValid)
	}
}

func TestImportCSVHeaderSpellings(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"lowercase", "name,email"},
		{"mixed case", "NAME,Email"},
		{"alternate spellings", "full_name,e-mail"},
		{"underscore email", "fullname,email_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im := New(store.New())
			result, err := im.ImportCSV(strings.NewReader(tt.header + "\nAlice,alice@example.com\n"))
			if err != nil {
				t.Fatalf("ImportCSV failed: %v", err)
			}
			if result.Valid != 1 {
				t.Errorf("Valid = %d, want 1", result.Valid)
			}
			if result.Contacts[0].Name != "Alice" {
				t.Errorf("Name = %q, want %q", result.Contacts[0].Name, "Alice")
			}
		})
	}
}

func TestImportCSVMalformedRow(t *testing.T) {
	im := New(store.New())

	result, err := im.ImportCSV(strings.NewReader("Name,Email\nAlice,alice@example.com\nBob,\"unclosed\n"))
	if err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}

	if result.Total != 2 {
		t.Errorf("Total = %d, want 2", result.Total)
	}
	if result.Valid != 1 || result.Invalid != 1 {
		t.Errorf("valid/invalid = %d/%d, want 1/1", result.Valid, result.Invalid)
	}
}

func TestImportCSVReaderFailureAborts(t *testing.T) {
	im := New(store.New())

	reader := &stickyErrReader{
		content: strings.NewReader("Name,Email\nAlice,alice@example.com\n"),
		err:     errors.New("connection reset"),
	}

	done := make(chan error, 1)
	go func() {
		_, err := im.ImportCSV(reader)
		done <- err
	}()

	select {
	case err := <-done:
		var validation *apperr.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("import did not return on a failing reader")
	}
}

func TestImportCSVEmptyFile(t *testing.T) {
	im := New(store.New())

	_, err := im.ImportCSV(strings.NewReader(""))
	var validation *apperr.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestImportCSVNoDataRows(t *testing.T) {
	im := New(store.New())

	_, err := im.ImportCSV(strings.NewReader("Name,Email\n"))
	var validation *apperr.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestImportCSVMissingColumns(t *testing.T) {
	im := New(store.New())

	_, err := im.ImportCSV(strings.NewReader("Phone,City\n123,Nowhere\n"))
	var validation *apperr.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidEmailIsPure(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"alice@example.com", true},
		{"a.b+c@sub.example.co", true},
		{"no-at-sign", false},
		{"missing@tld", false},
		{"spaces in@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		for i := 0; i < 3; i++ {
			if got := ValidEmail(tt.email); got != tt.want {
				t.Errorf("ValidEmail(%q) = %v, want %v (attempt %d)", tt.email, got, tt.want, i)
			}
		}
	}
}
