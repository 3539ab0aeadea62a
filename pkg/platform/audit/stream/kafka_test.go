package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "trustline/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.records = append(f.records, r)
	promise(r, f.err)
}

func sampleEntry() audit.Entry {
	ts := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	return audit.Entry{
		ID:        uuid.New(),
		ActorID:   "company-user",
		Kind:      audit.KindDocumentAutoVerified,
		Category:  audit.CategoryDocument,
		Outcome:   audit.OutcomeSuccess,
		Subject:   "employee-1",
		Payload:   audit.DocumentPayload{DocumentID: "d-1", Status: "verified", Confidence: 90},
		Timestamp: ts,
		ExpiresAt: ts.Add(audit.DefaultRetention),
	}
}

func TestKafkaSink_Publish(t *testing.T) {
	producer := &fakeProducer{}
	sink := NewKafkaSink(producer, "trustline.audit", slog.New(slog.NewTextHandler(io.Discard, nil)))

	entry := sampleEntry()
	require.NoError(t, sink.Publish(context.Background(), entry))
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "trustline.audit", rec.Topic)
	assert.Equal(t, []byte("company-user"), rec.Key)

	decoded, err := Decode(rec.Value)
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestKafkaSink_DeliveryFailureIsNotReturned(t *testing.T) {
	producer := &fakeProducer{err: errors.New("leader not available")}
	sink := NewKafkaSink(producer, "trustline.audit", slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.NoError(t, sink.Publish(context.Background(), sampleEntry()))
}
