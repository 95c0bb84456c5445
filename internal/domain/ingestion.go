package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Canonical bank names recorded in ingestion history and used to pick the
// manifest match side.
const (
	BankA = "BankA"
	BankB = "BankB"
)

// FailureTag names the sub-step of ingestion that failed.
type FailureTag string

// Failure tags carried by StepResult.
const (
	FailureFileRead    FailureTag = "file_read"
	FailureArchiveRead FailureTag = "archive_read"
)

// StepResult is the outcome of one best-effort ingestion sub-step: either a
// value or a failure tag with a message. A failed step never fails the file
// or the batch it belongs to.
type StepResult[T any] struct {
	Value   T
	Failure FailureTag
	Message string
	ok      bool
}

// Succeeded wraps a value in a successful StepResult.
func Succeeded[T any](v T) StepResult[T] {
	return StepResult[T]{Value: v, ok: true}
}

// Failed builds a failed StepResult carrying tag and the error text.
func Failed[T any](tag FailureTag, err error) StepResult[T] {
	r := StepResult[T]{Failure: tag}
	if err != nil {
		r.Message = err.Error()
	}
	return r
}

// OK reports whether the step produced a value.
func (r StepResult[T]) OK() bool { return r.ok }

// Get returns the value and whether the step succeeded.
func (r StepResult[T]) Get() (T, bool) { return r.Value, r.ok }

type stepResultJSON[T any] struct {
	Value   *T         `json:"value,omitempty"`
	Failure FailureTag `json:"failure,omitempty"`
	Message string     `json:"message,omitempty"`
}

// MarshalJSON renders {"value": ...} on success or {"failure", "message"} on failure.
func (r StepResult[T]) MarshalJSON() ([]byte, error) {
	if r.ok {
		v := r.Value
		return json.Marshal(stepResultJSON[T]{Value: &v})
	}
	return json.Marshal(stepResultJSON[T]{Failure: r.Failure, Message: r.Message})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *StepResult[T]) UnmarshalJSON(data []byte) error {
	var raw stepResultJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Failure != "" {
		*r = StepResult[T]{Failure: raw.Failure, Message: raw.Message}
		return nil
	}
	if raw.Value == nil {
		return errors.New("step result has neither value nor failure")
	}
	*r = Succeeded(*raw.Value)
	return nil
}

// SourceFile is one file picked by the user, with its path relative to the
// selection root as reported by the browser.
type SourceFile struct {
	Path string
	Data []byte
}

// IngestedFile is the result of ingesting one SourceFile. Exactly one of
// ZipEntries and CSVPreview is set.
type IngestedFile struct {
	Path        string                `json:"path"`
	DisplayName string                `json:"displayName"`
	IsFolder    bool                  `json:"isFolder"`
	ZipEntries  *StepResult[[]string] `json:"zipEntries,omitempty"`
	CSVPreview  *StepResult[string]   `json:"csvPreview,omitempty"`
}

// Kind classifies the ingested file for history and statistics.
func (f IngestedFile) Kind() string {
	if f.ZipEntries != nil {
		return "zip"
	}
	return "text"
}

// Failure returns the failure tag of whichever sub-step ran, or "".
func (f IngestedFile) Failure() FailureTag {
	switch {
	case f.ZipEntries != nil && !f.ZipEntries.OK():
		return f.ZipEntries.Failure
	case f.CSVPreview != nil && !f.CSVPreview.OK():
		return f.CSVPreview.Failure
	}
	return ""
}

// IngestionRecord is one row of ingestion history.
type IngestionRecord struct {
	ID          string
	BatchID     string
	Bank        string
	Path        string
	DisplayName string
	IsFolder    bool
	Kind        string
	EntryCount  int
	SizeBytes   int64
	Failure     string
	CreatedAt   time.Time
}

// IngestionHistoryFilter holds filter parameters for listing ingestion history.
type IngestionHistoryFilter struct {
	Bank *string
	From *time.Time
	Page PageRequest
}

// IngestionStat aggregates history rows by bank and file kind.
type IngestionStat struct {
	Bank     string `json:"bank"`
	Kind     string `json:"kind"`
	Files    int64  `json:"files"`
	Failures int64  `json:"failures"`
	Bytes    int64  `json:"bytes"`
}
