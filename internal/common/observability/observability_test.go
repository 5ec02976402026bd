package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsOutcome(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs, err := New("loan-intake-test",
		WithRegisterer(promclient.NewRegistry()),
		WithSpanProcessor(recorder),
	)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	_, span := obs.StartSpan(context.Background(), "loanapp.Submit", attribute.String("applicant.id", "a-1"))
	EndSpan(span, "DATABASE_ERROR", errors.New("insert failed"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "loanapp.Submit", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	var outcome string
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "loan.outcome" {
			outcome = kv.Value.AsString()
		}
	}
	assert.Equal(t, "DATABASE_ERROR", outcome)
}

func TestRecordOperation_ExportsToPrometheus(t *testing.T) {
	reg := promclient.NewRegistry()
	obs, err := New("loan-intake-test", WithRegisterer(reg))
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	obs.RecordOperation(context.Background(), "submit", "success", 15*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	counter, ok := byName["loan_operations_total"]
	require.True(t, ok, "exported families: %v", familyNames(families))
	require.Len(t, counter.GetMetric(), 1)
	assert.Equal(t, 1.0, counter.GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, "submit", labelValue(counter.GetMetric()[0], "operation"))
	assert.Equal(t, "success", labelValue(counter.GetMetric()[0], "outcome"))

	duration, ok := byName["loan_operations_duration_milliseconds"]
	require.True(t, ok, "exported families: %v", familyNames(families))
	require.Len(t, duration.GetMetric(), 1)
	assert.Equal(t, uint64(1), duration.GetMetric()[0].GetHistogram().GetSampleCount())
	assert.Equal(t, 15.0, duration.GetMetric()[0].GetHistogram().GetSampleSum())
}

func familyNames(families []*dto.MetricFamily) []string {
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	return names
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestNop_DoesNotPanic(t *testing.T) {
	obs := Nop()
	assert.NotPanics(t, func() {
		_, span := obs.StartSpan(context.Background(), "x")
		EndSpan(span, "success", nil)
		obs.RecordOperation(context.Background(), "list", "success", time.Millisecond)
		_ = obs.Shutdown(context.Background())
	})
}
