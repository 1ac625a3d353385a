package domain

import "time"

// WordStatus is the learning status of one vocabulary word.
type WordStatus string

// Word statuses, ordered by learning progress.
const (
	WordStatusUnknown    WordStatus = "unknown"
	WordStatusInProgress WordStatus = "inProgress"
	WordStatusMastered   WordStatus = "mastered"
)

// Valid reports whether s is a known word status.
func (s WordStatus) Valid() bool {
	return s == WordStatusUnknown || s == WordStatusInProgress || s == WordStatusMastered
}

// priority orders statuses so that merges keep the furthest progress.
func (s WordStatus) priority() int {
	switch s {
	case WordStatusMastered:
		return 2
	case WordStatusInProgress:
		return 1
	}
	return 0
}

// WordProgress is the per-word learning record of a learner. The same shape
// is stored durably for accounts and locally for guests.
type WordProgress struct {
	WordID          string     `json:"word_id"`
	Status          WordStatus `json:"status"`
	Attempts        int        `json:"attempts"`
	IsFavorite      bool       `json:"is_favorite"`
	UsedHint        bool       `json:"used_hint"`
	LastAnswerAt    *time.Time `json:"last_answer_at,omitempty"`
	ExampleSentence string     `json:"example_sentence,omitempty"`
}

// Mastered reports whether the word has been mastered.
func (w *WordProgress) Mastered() bool {
	return w.Status == WordStatusMastered
}

// MergeWordProgress combines two progress records for the same word using
// conflict-free operators, so applying the merge twice gives the same result
// as applying it once:
//
//	status:   the higher-priority of the two
//	attempts: the maximum
//	flags:    logical OR
//	sentence: the most recently written non-empty value
//	answered: the later of the two timestamps
func MergeWordProgress(a, b WordProgress) WordProgress {
	merged := a
	if b.Status.priority() > merged.Status.priority() {
		merged.Status = b.Status
	}
	if b.Attempts > merged.Attempts {
		merged.Attempts = b.Attempts
	}
	merged.IsFavorite = a.IsFavorite || b.IsFavorite
	merged.UsedHint = a.UsedHint || b.UsedHint
	merged.LastAnswerAt = LaterTime(a.LastAnswerAt, b.LastAnswerAt)
	merged.ExampleSentence = mergeSentence(a, b)
	return merged
}

// mergeSentence picks the most recently written non-empty example sentence,
// falling back to whichever side defines one.
func mergeSentence(a, b WordProgress) string {
	if a.ExampleSentence == "" {
		return b.ExampleSentence
	}
	if b.ExampleSentence == "" {
		return a.ExampleSentence
	}
	if timeAfter(b.LastAnswerAt, a.LastAnswerAt) {
		return b.ExampleSentence
	}
	return a.ExampleSentence
}

// LaterTime returns the later of two optional timestamps, treating nil as
// the beginning of time.
func LaterTime(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.After(*a) {
		return b
	}
	return a
}

// timeAfter reports whether a is strictly after b, treating nil as the
// beginning of time.
func timeAfter(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}
