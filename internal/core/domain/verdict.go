package domain

// Verdict is the three-way verification outcome of a document.
// It is derived from a DocumentRecord on every read and never persisted.
type Verdict string

// Verdicts.
const (
	VerdictPending    Verdict = "pending"
	VerdictVerified   Verdict = "verified"
	VerdictSuspicious Verdict = "suspicious"
)

// String returns the string representation.
func (v Verdict) String() string {
	return string(v)
}

// Summary aggregates verdicts and statuses over a document collection.
type Summary struct {
	Total int `json:"total"`

	// Counts per verdict.
	Verified   int `json:"verified"`
	Suspicious int `json:"suspicious"`
	Pending    int `json:"pending"`

	// Counts per server status.
	Uploaded   int `json:"uploaded"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Add counts one record with its verdict.
func (s *Summary) Add(status DocumentStatus, verdict Verdict) {
	s.Total++

	switch verdict {
	case VerdictVerified:
		s.Verified++
	case VerdictSuspicious:
		s.Suspicious++
	default:
		s.Pending++
	}

	switch status {
	case StatusUploaded:
		s.Uploaded++
	case StatusProcessing:
		s.Processing++
	case StatusCompleted:
		s.Completed++
	case StatusFailed:
		s.Failed++
	}
}
