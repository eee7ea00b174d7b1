package notifications

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/workshop-backend/pkg/config"
	"github.com/angelmondragon/workshop-backend/pkg/db/models"
	"github.com/angelmondragon/workshop-backend/pkg/enums"
	"github.com/angelmondragon/workshop-backend/pkg/logger"
	"github.com/angelmondragon/workshop-backend/pkg/telegram"
)

type recordingSink struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (s *recordingSink) Send(_ context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return s.err
}

func (s *recordingSink) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

type panickingSink struct{}

func (panickingSink) Send(context.Context, string) error { panic("sink exploded") }

func waitFor(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))
}

func TestDispatcherDeliversAsync(t *testing.T) {
	sink := &recordingSink{}
	d, err := NewDispatcher(sink, logger.New(logger.Options{Output: &bytes.Buffer{}}), time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	d.Notify(ctx, "hello")
	cancel()
	d.Notify(ctx, "")
	waitFor(t, d)

	assert.Equal(t, []string{"hello"}, sink.sent())
}

func TestDispatcherSwallowsAndLogsFailures(t *testing.T) {
	buf := &bytes.Buffer{}
	sink := &recordingSink{err: errors.New("telegram down")}
	d, err := NewDispatcher(sink, logger.New(logger.Options{Output: buf}), time.Second)
	require.NoError(t, err)

	d.Notify(context.Background(), "hello")
	waitFor(t, d)
	assert.Contains(t, buf.String(), "notification delivery failed")
	assert.Contains(t, buf.String(), "telegram down")
}

func TestDispatcherRecoversSinkPanic(t *testing.T) {
	buf := &bytes.Buffer{}
	d, err := NewDispatcher(panickingSink{}, logger.New(logger.Options{Output: buf}), time.Second)
	require.NoError(t, err)

	d.Notify(context.Background(), "hello")
	waitFor(t, d)
	assert.Contains(t, buf.String(), "notification sink panicked")
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	d.Notify(context.Background(), "ignored")
}

func TestNewSink(t *testing.T) {
	sink, err := NewSink(config.TelegramConfig{})
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, sink)

	sink, err = NewSink(config.TelegramConfig{BotToken: "t", ChatID: "c", Timeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &telegram.Client{}, sink)
}

func TestShouldNotify(t *testing.T) {
	assert.True(t, ShouldNotify(enums.RepairStatusAwaitingParts))
	assert.True(t, ShouldNotify(enums.RepairStatusCompleted))
	assert.True(t, ShouldNotify(enums.RepairStatusClosed))
	assert.False(t, ShouldNotify(enums.RepairStatusNew))
	assert.False(t, ShouldNotify(enums.RepairStatusInProgress))
}

func TestStatusChangeMessage(t *testing.T) {
	id := uuid.MustParse("6f1c2a8e-1111-4c3b-9d2e-000000000001")
	repair := &models.Repair{
		ID:           id,
		Device:       &models.Device{Name: "CashCode Bill"},
		SerialNumber: "SN123",
		Status:       enums.RepairStatusAwaitingParts,
		Usages: []models.RepairPartUsage{
			{Quantity: 2, Part: &models.Part{Code: "BELT-320"}},
			{Quantity: 1, Part: &models.Part{Code: "GEAR-10"}, WrittenOff: true},
			{Quantity: 3, Part: &models.Part{Code: "ROLLER-7"}},
		},
	}

	assert.Equal(t,
		"Repair #"+id.String()+" | CashCode Bill | SN: SN123 | Status changed to Awaiting Parts | Awaiting: BELT-320 x2, ROLLER-7 x3",
		StatusChangeMessage(repair))

	repair.Status = enums.RepairStatusCompleted
	assert.Equal(t,
		"Repair #"+id.String()+" | CashCode Bill | SN: SN123 | Status changed to Completed",
		StatusChangeMessage(repair))
}

func TestLowStockMessage(t *testing.T) {
	assert.Empty(t, LowStockMessage(nil))
	msg := LowStockMessage([]models.Part{{Code: "GEAR-10", Name: "Gear", CurrentStock: 3, Reserved: 2, MinStock: 4}})
	assert.Equal(t, "Low stock: 1 part(s)\nGEAR-10 (Gear): available 1, min 4", msg)
}
