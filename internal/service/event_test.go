package service_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
	"github.com/Shivanand-hulikatti/campus-events/internal/service"
	"github.com/Shivanand-hulikatti/campus-events/internal/testutil"
)

func TestCreateEvent(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	svc := service.NewEventService(store, testOptions)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, model.CreateEventRequest{
		Title:         "  Robotics Expo ",
		Venue:         "Block C",
		EventDateTime: "2026-11-05T17:30",
		RegLimit:      40,
	})
	require.NoError(t, err)
	require.Equal(t, "Robotics Expo", event.Title)
	require.Equal(t, "Other", event.Category, "category defaults to Other")
	require.Equal(t, time.Date(2026, 11, 5, 17, 30, 0, 0, time.UTC), event.EventDateTime)

	got, err := svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, 40, got.RegLimit)
	require.Equal(t, 40, got.Remaining())

	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestCreateEvent_Validation(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	svc := service.NewEventService(store, testOptions)

	valid := model.CreateEventRequest{Title: "Quiz", Venue: "Hall", EventDateTime: "2026-11-05T10:00:00Z"}
	tests := []struct {
		description string
		mutate      func(*model.CreateEventRequest)
	}{
		{"missing title", func(r *model.CreateEventRequest) { r.Title = "" }},
		{"missing venue", func(r *model.CreateEventRequest) { r.Venue = " " }},
		{"missing datetime", func(r *model.CreateEventRequest) { r.EventDateTime = "" }},
		{"bad datetime", func(r *model.CreateEventRequest) { r.EventDateTime = "next friday" }},
		{"negative limit", func(r *model.CreateEventRequest) { r.RegLimit = -1 }},
		{"limit too large", func(r *model.CreateEventRequest) { r.RegLimit = 100_001 }},
	}

	for _, test := range tests {
		req := valid
		test.mutate(&req)
		_, err := svc.CreateEvent(context.Background(), req)
		require.ErrorIsf(t, err, service.ErrInvalidInput, test.description)
	}
}

func TestDeleteEvent_CascadesLedgers(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	events := service.NewEventService(store, testOptions)
	regs := service.NewRegistrationService(store, testOptions)
	checkins := service.NewCheckInService(store, testOptions)
	ctx := context.Background()

	event := testutil.SeedEvent(t, store, 0)
	for i := 0; i < 3; i++ {
		_, err := regs.Register(ctx, event.ID, registerRequest("S", fmt.Sprintf("s%d@campus.edu", i)))
		require.NoError(t, err)
	}
	_, err := checkins.CheckIn(ctx, event.ID, model.CheckInRequest{StudentEmail: "s0@campus.edu"})
	require.NoError(t, err)

	require.NoError(t, events.DeleteEvent(ctx, event.ID))

	_, err = events.GetEvent(ctx, event.ID)
	require.ErrorIs(t, err, service.ErrEventNotFound)

	n, err := store.Registrations().Count(ctx, event.ID)
	require.NoError(t, err)
	require.Zero(t, n, "registrations are removed with the event")

	list, err := store.Attendance().ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Empty(t, list, "attendance is removed with the event")
}

func TestDeleteEvent_MissingEventWritesNothing(t *testing.T) {
	var writes atomic.Int32
	base := testutil.NewSQLiteStore(t)
	store := &hookStore{Store: base, wrapTx: func(tx repository.Ledgers) repository.Ledgers {
		return countingWrites{Ledgers: tx, n: &writes}
	}}
	svc := service.NewEventService(store, testOptions)

	other := testutil.SeedEvent(t, base, 0)
	_, err := base.Registrations().Insert(context.Background(), &model.Registration{
		EventID: other.ID, StudentName: "K", StudentEmail: "k@campus.edu",
	})
	require.NoError(t, err)

	err = svc.DeleteEvent(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, service.ErrEventNotFound)
	require.Zero(t, writes.Load(), "no delete statement is issued")

	n, err := base.Registrations().Count(context.Background(), other.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
