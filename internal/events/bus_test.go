package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/dipta-sdd/campaignbay-sub002/internal/events"
)

type stubStore struct {
	last events.Event
	err  error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, ev events.Event) (events.Event, error) {
	if s.err != nil {
		return events.Event{}, s.err
	}
	s.last = ev
	return ev, nil
}

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitPersistsAndNotifies(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	ev, err := bus.Emit(context.Background(), events.TopicCampaignSaved, "12", events.CampaignPayload{CampaignID: 12, Action: "created"})
	require.NoError(t, err)
	require.Equal(t, events.TopicCampaignSaved, store.last.Topic)
	require.JSONEq(t, `{"campaign_id":12,"action":"created"}`, string(store.last.Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, ev.ID, notifier.events[0].ID)

	var decoded events.CampaignPayload
	require.NoError(t, notifier.events[0].Decode(&decoded))
	require.EqualValues(t, 12, decoded.CampaignID)
}

func TestEmitWithoutStoreStillNotifies(t *testing.T) {
	notifier := &captureNotifier{}
	bus := events.Bus{}
	bus.Subscribe(notifier)

	_, err := bus.Emit(context.Background(), events.TopicCampaignDeleted, "3", nil)
	require.NoError(t, err)
	require.Len(t, notifier.events, 1)
	require.JSONEq(t, `{}`, string(notifier.events[0].Payload))
}

func TestEmitValidatesInput(t *testing.T) {
	bus := events.Bus{}
	_, err := bus.Emit(context.Background(), " ", "1", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, "", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, "1", "{not json")
	require.Error(t, err)
}

func TestEmitStopsWhenStoreFails(t *testing.T) {
	notifier := &captureNotifier{}
	bus := events.Bus{Store: &stubStore{err: errors.New("down")}, Notifiers: []events.Notifier{notifier}}
	_, err := bus.Emit(context.Background(), events.TopicOrderCreated, "1", nil)
	require.Error(t, err)
	require.Empty(t, notifier.events)
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	failing := &captureNotifier{err: errors.New("boom")}
	healthy := &captureNotifier{}
	bus := events.Bus{Notifiers: []events.Notifier{failing, nil, healthy}}
	_, err := bus.Emit(context.Background(), events.TopicOrderStatusChanged, "9", events.OrderStatusPayload{OrderID: 9})
	require.ErrorContains(t, err, "boom")
	require.Len(t, healthy.events, 1)
}

func TestPostgresStoreInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	bus := events.Bus{Store: &events.PostgresStore{DB: mock}, Now: func() time.Time { return now }}

	mock.ExpectQuery("INSERT INTO domain_events").
		WithArgs(pgxmock.AnyArg(), events.TopicOrderCreated, "44", []byte(`{"order_id":44}`), now).
		WillReturnRows(pgxmock.NewRows([]string{"id", "topic", "aggregate_id", "payload", "occurred_at"}).
			AddRow(uuidFixed, events.TopicOrderCreated, "44", []byte(`{"order_id":44}`), now))

	ev, err := bus.Emit(context.Background(), events.TopicOrderCreated, "44", map[string]int{"order_id": 44})
	require.NoError(t, err)
	require.Equal(t, uuidFixed, ev.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
