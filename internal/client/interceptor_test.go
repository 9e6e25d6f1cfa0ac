package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/internal/client"
)

var _ = Describe("Interceptor", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.TODO()
	})

	It("starts disconnected with no calls recorded", func() {
		i := client.NewInterceptor(&client.PipelineMock{})

		status := i.GetStatus()
		Expect(status.Connected).To(BeFalse())
		Expect(status.LastFetchOK).To(BeNil())
		Expect(status.LastCommandOK).To(BeNil())
	})

	It("marks the link connected after a successful fetch", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(api.PullStatus{Status: "Processing"})
		}))
		defer server.Close()
		i := client.NewInterceptor(newPipeline(server, nil))

		_, err := i.GetJobStatus(ctx, "job-1")
		Expect(err).To(BeNil())

		status := i.GetStatus()
		Expect(status.Connected).To(BeTrue())
		Expect(*status.LastFetchOK).To(BeTrue())
		Expect(status.LastFetchError).To(BeNil())
	})

	It("marks the link disconnected on a network error", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		i := client.NewInterceptor(newPipeline(server, nil))
		server.Close()

		_, err := i.GetJobStatus(ctx, "job-1")
		Expect(err).To(HaveOccurred())
		Expect(i.GetStatus().Connected).To(BeFalse())
	})

	It("keeps the link connected on an API refusal", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer server.Close()
		i := client.NewInterceptor(newPipeline(server, nil))

		err := i.Approve(ctx, "job-1")
		Expect(err).To(HaveOccurred())

		status := i.GetStatus()
		Expect(status.Connected).To(BeTrue())
		Expect(*status.LastCommandOK).To(BeFalse())
		Expect(status.LastCommandError).To(HaveOccurred())
	})

	It("tracks fetches and commands independently", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_ = json.NewEncoder(w).Encode(api.PullStatus{Status: "Processing"})
		}))
		defer server.Close()
		i := client.NewInterceptor(newPipeline(server, nil))

		_, err := i.GetJobStatus(ctx, "job-1")
		Expect(err).To(BeNil())
		Expect(i.Approve(ctx, "job-1")).To(HaveOccurred())

		status := i.GetStatus()
		Expect(*status.LastFetchOK).To(BeTrue())
		Expect(*status.LastCommandOK).To(BeFalse())
		Expect(status.Connected).To(BeTrue())
	})
})
