package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/tablebot/internal/service/dialogue"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()

	c.Utterance(dialogue.OutcomeBooked, 20*time.Millisecond)
	c.Utterance(dialogue.OutcomeBooked, 30*time.Millisecond)
	c.Utterance(dialogue.OutcomeEscalated, time.Millisecond)
	c.Escalation("low_confidence")
	c.Reservation(dialogue.ReservationConflict)
	c.Reservation(dialogue.ReservationCreated)
	c.OracleFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.utterances.WithLabelValues(dialogue.OutcomeBooked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.utterances.WithLabelValues(dialogue.OutcomeEscalated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.escalations.WithLabelValues("low_confidence")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reservations.WithLabelValues(dialogue.ReservationConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.oracleFailures))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.Escalation("human_requested")

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `tablebot_escalations_total{kind="human_requested"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
