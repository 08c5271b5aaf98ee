package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/goold/roomsched/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

type fakeReader struct {
	msgs   chan kafka.Message
	closed bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m, ok := <-r.msgs:
		if !ok {
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		}
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type memInbox struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (i *memInbox) Record(_ context.Context, id, _ string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.seen[id] {
		return false, nil
	}
	i.seen[id] = true
	return true, nil
}

func msg(id string) kafka.Message {
	return kafka.Message{Topic: "roomsched.schedule.created.v1", Headers: kafkax.EventHeaders(id, "schedule.created.v1")}
}

func TestRunSkipsDuplicatesAndSurvivesHandlerErrors(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 4)}
	reader.msgs <- msg("a")
	reader.msgs <- msg("a")
	reader.msgs <- msg("b")
	reader.msgs <- msg("c")
	close(reader.msgs)

	var mu sync.Mutex
	var handled []string
	done := make(chan struct{})
	handler := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		id := kafkax.ExtractEventMeta(m).EventID
		handled = append(handled, id)
		if len(handled) == 3 {
			close(done)
		}
		if id == "b" {
			return errors.New("smtp down")
		}
		return nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewWithReader(logger, &memInbox{seen: map[string]bool{}}, reader, handler)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(stopped)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for messages")
	}
	cancel()
	<-stopped

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 3 || handled[0] != "a" || handled[1] != "b" || handled[2] != "c" {
		t.Fatalf("expected a,b,c handled once each, got %v", handled)
	}
	if !reader.closed {
		t.Fatal("expected reader to be closed on shutdown")
	}
}
