package realtime

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

type recorder struct {
	events []Event
}

func (r *recorder) Publish(event Event) {
	r.events = append(r.events, event)
}

func TestFanoutDeliversToEveryPublisher(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	f := Fanout{a, nil, b, Discard{}}

	f.Publish(Event{Type: EventClipAdded})

	for i, r := range []*recorder{a, b} {
		if len(r.events) != 1 {
			t.Fatalf("publisher %d got %d events", i, len(r.events))
		}
		if r.events[0].Timestamp == 0 {
			t.Errorf("publisher %d got event without timestamp", i)
		}
	}
}

func TestEventBuilders(t *testing.T) {
	ev := TaskEvent(7, "detection", "error", errors.New("boom"))
	if ev.Type != EventTaskStatus || ev.ClipID == nil || *ev.ClipID != 7 {
		t.Errorf("unexpected task event %+v", ev)
	}
	if ev.Error != "boom" || ev.Task != "detection" || ev.Status != "error" {
		t.Errorf("unexpected task event fields %+v", ev)
	}

	fe := FilterEvent(1, 2)
	if fe.ProjectID == nil || *fe.ProjectID != 1 || fe.FilterID == nil || *fe.FilterID != 2 {
		t.Errorf("unexpected filter event %+v", fe)
	}

	raw, err := json.Marshal(ClipEvent(EventClipAdded, 3))
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["filter_id"]; ok {
		t.Error("unset ids should be omitted")
	}
	if decoded["clip_id"].(float64) != 3 {
		t.Errorf("clip_id = %v", decoded["clip_id"])
	}
}

func TestHubBroadcastsToClients(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := &Client{send: make(chan []byte, 1)}
	h.register <- c

	h.Publish(Event{Type: EventFilterModified})

	select {
	case msg := <-c.send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Type != EventFilterModified || ev.Timestamp == 0 {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
	}

	if n := h.ClientCount(); n != 1 {
		t.Errorf("ClientCount = %d, want 1", n)
	}
	h.unregister <- c
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatal(err)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHubRoutesBySubscription(t *testing.T) {
	h := NewHub()
	go h.Run()

	project := uint(3)
	clip := uint(9)
	byProject := &Client{sub: Subscription{ProjectID: &project}, send: make(chan []byte, 4)}
	byClip := &Client{sub: Subscription{ClipID: &clip}, send: make(chan []byte, 4)}
	byType := &Client{sub: Subscription{Types: map[string]bool{EventTaskStatus: true}}, send: make(chan []byte, 4)}
	for _, c := range []*Client{byProject, byClip, byType} {
		h.register <- c
	}

	h.Publish(FilterEvent(4, 1))
	h.Publish(FilterEvent(3, 2))
	h.Publish(ClipEvent(EventClipAdded, 8))
	h.Publish(TaskEvent(9, "thumbnail", "done", nil))

	if ev := receive(t, byProject); ev.FilterID == nil || *ev.FilterID != 2 {
		t.Errorf("project subscriber got %+v, want filter 2", ev)
	}
	if ev := receive(t, byClip); ev.Type != EventTaskStatus || *ev.ClipID != 9 {
		t.Errorf("clip subscriber got %+v", ev)
	}
	if ev := receive(t, byType); ev.Type != EventTaskStatus {
		t.Errorf("type subscriber got %+v", ev)
	}

	// the last publish is only routed once the hub has handled every earlier one
	h.Publish(Event{Type: EventFilterModified, ProjectID: &project})
	receive(t, byProject)
	for name, c := range map[string]*Client{"clip": byClip, "type": byType} {
		if n := len(c.send); n != 0 {
			t.Errorf("%s subscriber has %d unexpected events", name, n)
		}
	}
}

func TestParseSubscription(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?project_id=2&types=clip_added,%20task_status", nil)
	sub, err := ParseSubscription(r)
	if err != nil {
		t.Fatal(err)
	}
	if sub.ProjectID == nil || *sub.ProjectID != 2 || sub.FilterID != nil || sub.ClipID != nil {
		t.Errorf("ids = %v %v %v", sub.ProjectID, sub.FilterID, sub.ClipID)
	}
	if len(sub.Types) != 2 || !sub.Types[EventClipAdded] || !sub.Types[EventTaskStatus] {
		t.Errorf("types = %v", sub.Types)
	}

	sub, err = ParseSubscription(httptest.NewRequest("GET", "/ws", nil))
	if err != nil || !sub.Matches(ClipEvent(EventClipAdded, 1)) {
		t.Errorf("empty subscription should match everything (err %v)", err)
	}

	for _, q := range []string{"clip_id=abc", "filter_id=0", "project_id=-1"} {
		if _, err := ParseSubscription(httptest.NewRequest("GET", "/ws?"+q, nil)); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", q, err)
		}
	}
}

func TestParseDetectionRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"clip_id": 4, "sample_rate": 1, "start_offset": 0, "end_offset": 30}`, false},
		{"whole clip", `{"clip_id": 4}`, false},
		{"missing clip", `{"sample_rate": 1}`, true},
		{"negative rate", `{"clip_id": 4, "sample_rate": -1}`, true},
		{"reversed offsets", `{"clip_id": 4, "start_offset": 20, "end_offset": 10}`, true},
		{"not json", `clip 4 please`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseDetectionRequest([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Errorf("expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.ClipID != 4 {
				t.Errorf("ClipID = %d", req.ClipID)
			}
		})
	}
}
