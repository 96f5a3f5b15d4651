package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultID is the seed identity used when a process starts.
const DefaultID ID = "00001-00001"

var ErrMalformedID = errors.New("malformed session id")

// ID identifies one candidate attempt for a job: "<jobId>-<candidateId>",
// both components zero-padded decimals.
type ID string

// NewID formats job and candidate numbers with the default five-digit padding.
func NewID(job, candidate uint64) ID {
	return ID(fmt.Sprintf("%05d-%05d", job, candidate))
}

// Parse validates s and returns it as an ID.
func Parse(s string) (ID, error) {
	job, candidate, ok := strings.Cut(s, "-")
	if !ok || !isDigits(job) || !isDigits(candidate) {
		return "", fmt.Errorf("%w: %q", ErrMalformedID, s)
	}
	return ID(s), nil
}

func (id ID) String() string { return string(id) }

// Job returns the job component as written, padding included.
func (id ID) Job() string {
	job, _, _ := strings.Cut(string(id), "-")
	return job
}

// Candidate returns the candidate component as written, padding included.
func (id ID) Candidate() string {
	_, candidate, _ := strings.Cut(string(id), "-")
	return candidate
}

// Next returns the identity of the following candidate for the same job.
// The candidate component keeps its width unless the incremented value needs
// more digits, in which case the width grows instead of wrapping.
func (id ID) Next() ID {
	candidate := id.Candidate()
	n, err := strconv.ParseUint(candidate, 10, 64)
	if err != nil {
		// Only reachable for IDs built without Parse; restart the sequence.
		return ID(id.Job() + "-" + fmt.Sprintf("%0*d", max(len(candidate), 5), 1))
	}
	return ID(fmt.Sprintf("%s-%0*d", id.Job(), len(candidate), n+1))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
