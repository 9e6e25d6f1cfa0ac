package events

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("queue", func() {
	It("preserves insertion order", func() {
		q := newQueue()

		q.PushBack(&message{Kind: JobTerminalKind, Data: []byte("msg1")})
		Expect(q.Size()).To(Equal(1))

		q.PushBack(&message{Kind: ApprovalKind, Data: []byte("msg2")})
		q.PushBack(&message{Kind: DecisionKind, Data: []byte("msg3")})
		Expect(q.Size()).To(Equal(3))

		Expect(q.Pop().Data).To(Equal([]byte("msg1")))
		Expect(q.Pop().Data).To(Equal([]byte("msg2")))
		Expect(q.Pop().Data).To(Equal([]byte("msg3")))
		Expect(q.Size()).To(Equal(0))
	})

	It("pops nil when empty", func() {
		q := newQueue()
		Expect(q.Pop()).To(BeNil())

		q.PushBack(&message{Kind: JobTerminalKind, Data: []byte("msg1")})
		Expect(q.Pop()).NotTo(BeNil())
		Expect(q.Pop()).To(BeNil())
	})
})
