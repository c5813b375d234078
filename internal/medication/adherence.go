package medication

import (
	"context"
	"fmt"
)

// StatusKind classifies a day's adherence for display
type StatusKind int

const (
	NoMedications StatusKind = iota
	AllDone
	Incomplete
)

// Status is the number of medications taken out of the total for one date
type Status struct {
	Total int `json:"total"`
	Taken int `json:"taken"`
}

// Notice is a user-facing title and message for a Status
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ComputeStatus counts the medications in meds that appear in the taken set.
// Ids in taken that are not in meds are ignored.
func ComputeStatus(meds []Medication, taken map[uint]struct{}) Status {
	st := Status{Total: len(meds)}
	for _, m := range meds {
		if _, ok := taken[m.ID]; ok {
			st.Taken++
		}
	}
	return st
}

func (s Status) Kind() StatusKind {
	switch {
	case s.Total == 0:
		return NoMedications
	case s.Taken >= s.Total:
		return AllDone
	default:
		return Incomplete
	}
}

func (s Status) String() string {
	switch s.Kind() {
	case NoMedications:
		return "no medications"
	case AllDone:
		return "all done"
	default:
		return fmt.Sprintf("incomplete: %d of %d", s.Taken, s.Total)
	}
}

func (s Status) Notice() Notice {
	switch s.Kind() {
	case NoMedications:
		return Notice{Title: "No Medications", Message: "You have not added any medications yet."}
	case AllDone:
		return Notice{Title: "All Done", Message: fmt.Sprintf("You've taken all %d medications today.", s.Total)}
	default:
		return Notice{
			Title:   "Incomplete",
			Message: fmt.Sprintf("Taken %d of %d. Don't forget the rest!", s.Taken, s.Total),
		}
	}
}

// Tracker derives adherence from the store without mutating it
type Tracker struct {
	store *Store
}

func NewTracker(store *Store) *Tracker {
	return &Tracker{store: store}
}

// Today returns the status for date (YYYY-MM-DD)
func (t *Tracker) Today(ctx context.Context, date string) (Status, error) {
	meds, err := t.store.ListMedications(ctx)
	if err != nil {
		return Status{}, err
	}
	taken, err := t.store.TakenOn(ctx, date)
	if err != nil {
		return Status{}, err
	}
	return ComputeStatus(meds, taken), nil
}
