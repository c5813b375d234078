package medication

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatus(t *testing.T) {
	meds := []Medication{{ID: 1}, {ID: 2}, {ID: 3}}

	tests := []struct {
		name   string
		meds   []Medication
		taken  map[uint]struct{}
		want   Status
		kind   StatusKind
		text   string
		notice string
	}{
		{
			name:   "no medications",
			meds:   nil,
			taken:  map[uint]struct{}{},
			want:   Status{Total: 0, Taken: 0},
			kind:   NoMedications,
			text:   "no medications",
			notice: "You have not added any medications yet.",
		},
		{
			name:   "all done",
			meds:   meds,
			taken:  map[uint]struct{}{1: {}, 2: {}, 3: {}},
			want:   Status{Total: 3, Taken: 3},
			kind:   AllDone,
			text:   "all done",
			notice: "You've taken all 3 medications today.",
		},
		{
			name:   "incomplete",
			meds:   meds,
			taken:  map[uint]struct{}{2: {}},
			want:   Status{Total: 3, Taken: 1},
			kind:   Incomplete,
			text:   "incomplete: 1 of 3",
			notice: "Taken 1 of 3. Don't forget the rest!",
		},
		{
			name:   "unknown ids ignored",
			meds:   meds,
			taken:  map[uint]struct{}{1: {}, 42: {}},
			want:   Status{Total: 3, Taken: 1},
			kind:   Incomplete,
			text:   "incomplete: 1 of 3",
			notice: "Taken 1 of 3. Don't forget the rest!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := ComputeStatus(tt.meds, tt.taken)
			assert.Equal(t, tt.want, st)
			assert.Equal(t, tt.kind, st.Kind())
			assert.Equal(t, tt.text, st.String())
			assert.Equal(t, tt.notice, st.Notice().Message)

			// same inputs, same answer
			assert.Equal(t, st, ComputeStatus(tt.meds, tt.taken))
		})
	}
}

func TestTracker_Today(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	tracker := NewTracker(s)

	st, err := tracker.Today(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, NoMedications, st.Kind())

	a := addTestMedication(t, s, "Aspirin")
	addTestMedication(t, s, "Atorvastatin")

	_, err = s.LogDose(ctx, a.ID, "2024-03-01", true)
	require.NoError(t, err)

	st, err = tracker.Today(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, Status{Total: 2, Taken: 1}, st)
	assert.Equal(t, "Incomplete", st.Notice().Title)
}
