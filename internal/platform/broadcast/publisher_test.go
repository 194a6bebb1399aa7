package broadcast

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/internal/domain/queue"
	"github.com/clinicore/clinicore/internal/platform/websocket"
)

func newFixture(topics ...string) (*Publisher, *websocket.Client) {
	hub := websocket.NewHub(zerolog.Nop())
	client := &websocket.Client{
		ID:     "display-1",
		Topics: topics,
		Send:   make(chan []byte, 8),
	}
	hub.Register(client)
	return NewPublisher(hub, zerolog.Nop()), client
}

func receiveEvent(t *testing.T, client *websocket.Client) websocket.Event {
	t.Helper()
	select {
	case msg := <-client.Send:
		var evt websocket.Event
		if err := json.Unmarshal(msg, &evt); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return websocket.Event{}
	}
}

func TestPublishWaitingQueue(t *testing.T) {
	pub, client := newFixture(websocket.TopicWaitingQueue)

	entries := []queue.QueueEntry{
		{SessionID: 1, QueueNumber: "U001", Status: queue.StatusWaitingConsultation},
		{SessionID: 2, QueueNumber: "U002", Status: queue.StatusWaitingConsultation},
	}
	if err := pub.PublishWaitingQueue(context.Background(), entries); err != nil {
		t.Fatalf("publish: %v", err)
	}

	evt := receiveEvent(t, client)
	if evt.Type != EventWaitingQueueUpdate {
		t.Errorf("type = %q, want %q", evt.Type, EventWaitingQueueUpdate)
	}
	if evt.Topic != websocket.TopicWaitingQueue {
		t.Errorf("topic = %q, want %q", evt.Topic, websocket.TopicWaitingQueue)
	}

	var got []queue.QueueEntry
	if err := json.Unmarshal(evt.Data, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(got) != 2 || got[0].QueueNumber != "U001" {
		t.Errorf("payload = %+v, want both entries in order", got)
	}
}

func TestPublishWaitingQueueEmptySnapshot(t *testing.T) {
	pub, client := newFixture(websocket.TopicWaitingQueue)

	if err := pub.PublishWaitingQueue(context.Background(), nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	evt := receiveEvent(t, client)
	if string(evt.Data) != "[]" {
		t.Errorf("empty snapshot payload = %s, want []", evt.Data)
	}
}

func TestPublishCalled(t *testing.T) {
	pub, client := newFixture(websocket.TopicCalledQueue)

	if err := pub.PublishCalled(context.Background(), 7, "U007"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	evt := receiveEvent(t, client)
	if evt.Type != EventCalledQueueUpdate {
		t.Errorf("type = %q, want %q", evt.Type, EventCalledQueueUpdate)
	}

	var notice CalledNotice
	if err := json.Unmarshal(evt.Data, &notice); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if notice.SessionID != 7 || notice.QueueNumber != "U007" {
		t.Errorf("notice = %+v, want session 7 / U007", notice)
	}
}

func TestPublishSkipsUnsubscribedTopic(t *testing.T) {
	pub, client := newFixture(websocket.TopicCalledQueue)

	if err := pub.PublishWaitingQueue(context.Background(), nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-client.Send:
		t.Fatalf("unexpected delivery on called-only client: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
