package calendly

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	contractx "github.com/verzel/sdr-agent/agent/contract"
)

func newDiscoveryServer(t *testing.T, eventTypesBody string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer token" {
			t.Fatalf("unexpected authorization header: %q", auth)
		}
		fmt.Fprint(w, `{"resource":{"uri":"https://api.calendly.com/users/u1"}}`)
	})
	mux.HandleFunc("/event_types", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user"); got != "https://api.calendly.com/users/u1" {
			t.Fatalf("event_types called with user=%q", got)
		}
		if got := r.URL.Query().Get("active"); got != "true" {
			t.Fatalf("event_types called with active=%q", got)
		}
		fmt.Fprint(w, eventTypesBody)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)
	}
}

func TestListSlots(t *testing.T) {
	t.Parallel()

	server := newDiscoveryServer(t, `{"collection":[{"uri":"https://api.calendly.com/event_types/e1","scheduling_url":"https://calendly.com/verzel/intro"}]}`)

	client, err := NewClient(
		Config{URL: server.URL, APIKey: "token"},
		WithHTTPClient(server.Client()),
		WithClock(fixedClock()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	slots, err := client.ListSlots(context.Background())
	if err != nil {
		t.Fatalf("ListSlots() error = %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}

	wantTimes := []time.Time{
		time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 2, 15, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC),
	}
	for i, slot := range slots {
		if !slot.StartTime.Equal(wantTimes[i]) {
			t.Fatalf("slot[%d].StartTime = %v, want %v", i, slot.StartTime, wantTimes[i])
		}
		if !strings.HasPrefix(slot.BookingRef, "https://calendly.com/verzel/intro?slot=") {
			t.Fatalf("slot[%d].BookingRef = %q", i, slot.BookingRef)
		}
	}
}

func TestListSlotsNoActiveEventType(t *testing.T) {
	t.Parallel()

	server := newDiscoveryServer(t, `{"collection":[]}`)

	client, err := NewClient(Config{URL: server.URL, APIKey: "token"}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.ListSlots(context.Background())
	if !errors.Is(err, contractx.ErrScheduling) {
		t.Fatalf("expected ErrScheduling, got %v", err)
	}
}

func TestListSlotsHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{URL: server.URL, APIKey: "token"}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.ListSlots(context.Background())
	if !errors.Is(err, contractx.ErrScheduling) {
		t.Fatalf("expected ErrScheduling, got %v", err)
	}
}

func TestBook(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{URL: "https://api.calendly.com", APIKey: "token"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	slot := contractx.Slot{
		StartTime:  time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC),
		BookingRef: "https://calendly.com/verzel/intro?slot=1",
	}
	conf, err := client.Book(context.Background(), slot, contractx.Lead{Name: "Sam", Email: "sam@x.com"})
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if !conf.MeetingTime.Equal(slot.StartTime) {
		t.Fatalf("MeetingTime = %v, want slot start %v", conf.MeetingTime, slot.StartTime)
	}
	if !strings.HasPrefix(conf.MeetingLink, slot.BookingRef) {
		t.Fatalf("MeetingLink = %q, want it anchored to the booking ref", conf.MeetingLink)
	}
}

func TestBookRequiresEmail(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{URL: "https://api.calendly.com", APIKey: "token"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.Book(context.Background(), contractx.Slot{BookingRef: "x", StartTime: time.Now()}, contractx.Lead{Name: "Sam"})
	if !errors.Is(err, contractx.ErrInvalidLead) {
		t.Fatalf("expected ErrInvalidLead, got %v", err)
	}
}

func TestBookRequiresSlotRef(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{URL: "https://api.calendly.com", APIKey: "token"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.Book(context.Background(), contractx.Slot{}, contractx.Lead{Email: "sam@x.com"})
	if !errors.Is(err, contractx.ErrScheduling) {
		t.Fatalf("expected ErrScheduling, got %v", err)
	}
}
