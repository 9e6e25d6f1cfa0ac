package events

import (
	"bytes"
	"context"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", func() {
	It("drains queued messages to the writer in order", func() {
		w := newTestWriter()
		ep := NewEventProducer(w)

		err := ep.Write(context.TODO(), JobTerminalKind, bytes.NewReader([]byte(`{"job_id":"job-1"}`)))
		Expect(err).To(BeNil())
		err = ep.Write(context.TODO(), DecisionKind, bytes.NewReader([]byte(`{"ve_id":"VE-001"}`)))
		Expect(err).To(BeNil())

		Eventually(w.Count).Should(Equal(2))

		msgs := w.Events()
		Expect(msgs[0].Type()).To(Equal(JobTerminalKind))
		Expect(msgs[0].Source()).To(Equal(eventSource))
		Expect(msgs[0].ID()).NotTo(BeEmpty())
		Expect(msgs[0].Data()).To(Equal([]byte(`{"job_id":"job-1"}`)))
		Expect(msgs[1].Type()).To(Equal(DecisionKind))

		Expect(ep.Close()).To(BeNil())
	})

	It("writes to the configured topic", func() {
		w := newTestWriter()
		ep := NewEventProducer(w, WithOutputTopic("audit.estimates"))

		err := ep.Write(context.TODO(), ApprovalKind, bytes.NewReader([]byte(`{"job_id":"job-1"}`)))
		Expect(err).To(BeNil())

		Eventually(w.Count).Should(Equal(1))
		Expect(w.Topics()[0]).To(Equal("audit.estimates"))

		Expect(ep.Close()).To(BeNil())
	})
})

type testwriter struct {
	mu       sync.Mutex
	messages []cloudevents.Event
	topics   []string
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *testwriter) Events() []cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]cloudevents.Event{}, t.messages...)
}

func (t *testwriter) Topics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.topics...)
}
