package session

import (
	"errors"
	"testing"
)

func TestNextIncrementsCandidateKeepingWidth(t *testing.T) {
	testCases := []struct {
		name     string
		id       ID
		expected ID
	}{
		{name: "seed", id: DefaultID, expected: "00001-00002"},
		{name: "carry", id: "00001-00009", expected: "00001-00010"},
		{name: "job untouched", id: "00042-00100", expected: "00042-00101"},
		{name: "width grows", id: "00001-99999", expected: "00001-100000"},
		{name: "narrow width kept", id: "7-3", expected: "7-4"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.id.Next(); got != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestParseRejectsMalformedIDs(t *testing.T) {
	for _, raw := range []string{"", "00001", "00001-", "-00001", "0000a-00001", "00001-00001-1", "00001 00001"} {
		if _, err := Parse(raw); !errors.Is(err, ErrMalformedID) {
			t.Fatalf("expected ErrMalformedID for %q, got %v", raw, err)
		}
	}

	id, err := Parse("00003-00012")
	if err != nil {
		t.Fatalf("expected valid id, got %v", err)
	}
	if id.Job() != "00003" || id.Candidate() != "00012" {
		t.Fatalf("unexpected components %q %q", id.Job(), id.Candidate())
	}
}

func TestNewIDPadsToFiveDigits(t *testing.T) {
	if got := NewID(1, 1); got != DefaultID {
		t.Fatalf("expected %q, got %q", DefaultID, got)
	}
}

func TestManagerAdvance(t *testing.T) {
	manager := NewManager("")
	if got := manager.Current(); got != DefaultID {
		t.Fatalf("expected seed %q, got %q", DefaultID, got)
	}

	if got := manager.Advance(); got != "00001-00002" {
		t.Fatalf("expected 00001-00002 after advance, got %q", got)
	}
	if got := manager.Current(); got != "00001-00002" {
		t.Fatalf("expected current to follow advance, got %q", got)
	}
}
