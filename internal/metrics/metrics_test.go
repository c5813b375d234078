package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestRecordDoseLogged(t *testing.T) {
	m := New()
	m.RecordDoseLogged(true)
	m.RecordDoseLogged(true)
	m.RecordDoseLogged(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dosesLogged.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dosesLogged.WithLabelValues("false")))
}

func TestRecordMedicationCounters(t *testing.T) {
	m := New()
	m.RecordMedicationAdded()
	m.RecordMedicationAdded()
	m.RecordMedicationDeleted()
	m.RecordDuplicateLog()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.medicationsAdded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.medicationsDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.duplicateLogs))
}

func TestRecordServiceCall(t *testing.T) {
	m := New()
	m.RecordServiceCall("completion", 120*time.Millisecond, nil)
	m.RecordServiceCall("completion", time.Second, errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.serviceCalls.WithLabelValues("completion", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.serviceCalls.WithLabelValues("completion", "error")))
}

func TestRecordReminderFired(t *testing.T) {
	m := New()
	m.RecordReminderFired("telegram", nil)
	m.RecordReminderFired("telegram", errors.New("chat not found"))
	m.SetActiveTriggers(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.remindersFired.WithLabelValues("telegram", "delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.remindersFired.WithLabelValues("telegram", "failed")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.activeTriggers))
}

func TestRegistryGathers(t *testing.T) {
	m := New()
	m.RecordHTTPRequest("/api/medications", "200")

	families, err := m.Registry().Gather()
	assert.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["medreminder_http_requests_total"])
}
