package workflow_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/internal/client"
	"github.com/meridianqs/estimator-client/internal/workflow"
)

var _ = Describe("ApprovalStateMachine", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.TODO()
	})

	Context("state derivation", func() {
		It("maps lifecycle statuses to estimating", func() {
			for _, status := range []api.JobStatus{api.JobStatusQueued, api.JobStatusProcessing, api.JobStatusComplete, api.JobStatusFailed} {
				Expect(workflow.ApprovalStateFromJobStatus(status)).To(Equal(workflow.ApprovalEstimating))
			}
		})

		It("maps commercial statuses one to one", func() {
			Expect(workflow.ApprovalStateFromJobStatus(api.JobStatusReviewRequired)).To(Equal(workflow.ApprovalReviewRequired))
			Expect(workflow.ApprovalStateFromJobStatus(api.JobStatusApproved)).To(Equal(workflow.ApprovalApproved))
			Expect(workflow.ApprovalStateFromJobStatus(api.JobStatusDispatched)).To(Equal(workflow.ApprovalDispatched))
		})
	})

	Context("observation", func() {
		It("only ever moves forward", func() {
			machine := workflow.NewApprovalStateMachine(&client.PipelineMock{}, "job-1", api.JobStatusDispatched)

			// a stale fetch result arriving late
			state := machine.Observe(api.JobStatusReviewRequired)
			Expect(state).To(Equal(workflow.ApprovalDispatched))
			Expect(machine.State()).To(Equal(workflow.ApprovalDispatched))
		})

		It("advances on a fresher status", func() {
			machine := workflow.NewApprovalStateMachine(&client.PipelineMock{}, "job-1", api.JobStatusReviewRequired)
			Expect(machine.Observe(api.JobStatusApproved)).To(Equal(workflow.ApprovalApproved))
		})
	})

	Context("approve", func() {
		It("refuses outside the review state", func() {
			machine := workflow.NewApprovalStateMachine(&client.PipelineMock{}, "job-1", api.JobStatusProcessing)
			Expect(machine.CanApprove()).To(BeFalse())

			confirmed, err := machine.Approve(ctx)
			Expect(confirmed).To(BeFalse())

			var notAllowed *workflow.ErrApprovalNotAllowed
			Expect(errors.As(err, &notAllowed)).To(BeTrue())
		})

		It("confirms against the authoritative re-fetch", func() {
			var approveCalls atomic.Int32
			pipeline := &client.PipelineMock{
				ApproveFunc: func(ctx context.Context, jobID string) error {
					approveCalls.Add(1)
					return nil
				},
				GetEstimateFunc: func(ctx context.Context, jobID string) (api.EstimateDetail, error) {
					return api.EstimateDetail{JobID: jobID, Status: api.JobStatusApproved}, nil
				},
			}

			machine := workflow.NewApprovalStateMachine(pipeline, "job-1", api.JobStatusReviewRequired)
			Expect(machine.CanApprove()).To(BeTrue())

			confirmed, err := machine.Approve(ctx)
			Expect(err).To(BeNil())
			Expect(confirmed).To(BeTrue())
			Expect(machine.State()).To(Equal(workflow.ApprovalApproved))
			Expect(approveCalls.Load()).To(Equal(int32(1)))
		})

		It("treats an already approved job as a silent no-op", func() {
			machine := workflow.NewApprovalStateMachine(&client.PipelineMock{}, "job-1", api.JobStatusApproved)

			confirmed, err := machine.Approve(ctx)
			Expect(err).To(BeNil())
			Expect(confirmed).To(BeFalse())
		})

		It("leaves the state untouched when the command fails", func() {
			pipeline := &client.PipelineMock{
				ApproveFunc: func(ctx context.Context, jobID string) error {
					return errors.New("pipeline unavailable")
				},
			}

			machine := workflow.NewApprovalStateMachine(pipeline, "job-1", api.JobStatusReviewRequired)
			confirmed, err := machine.Approve(ctx)
			Expect(confirmed).To(BeFalse())
			Expect(err).To(HaveOccurred())
			Expect(machine.State()).To(Equal(workflow.ApprovalReviewRequired))
			Expect(machine.CanApprove()).To(BeTrue())
		})

		It("does not confirm until the pipeline reports the approved state", func() {
			pipeline := &client.PipelineMock{
				ApproveFunc: func(ctx context.Context, jobID string) error { return nil },
				GetEstimateFunc: func(ctx context.Context, jobID string) (api.EstimateDetail, error) {
					// accepted but not settled yet
					return api.EstimateDetail{JobID: jobID, Status: api.JobStatusReviewRequired}, nil
				},
			}

			machine := workflow.NewApprovalStateMachine(pipeline, "job-1", api.JobStatusReviewRequired)
			confirmed, err := machine.Approve(ctx)
			Expect(confirmed).To(BeFalse())
			Expect(err).To(HaveOccurred())
		})

		It("issues a single request under concurrent approvals", func() {
			release := make(chan struct{})
			var approveCalls atomic.Int32
			pipeline := &client.PipelineMock{
				ApproveFunc: func(ctx context.Context, jobID string) error {
					approveCalls.Add(1)
					<-release
					return nil
				},
				GetEstimateFunc: func(ctx context.Context, jobID string) (api.EstimateDetail, error) {
					return api.EstimateDetail{JobID: jobID, Status: api.JobStatusApproved}, nil
				},
			}

			machine := workflow.NewApprovalStateMachine(pipeline, "job-1", api.JobStatusReviewRequired)

			var wg sync.WaitGroup
			var confirmations, inFlightRejections, settled atomic.Int32
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					confirmed, err := machine.Approve(ctx)
					if confirmed {
						confirmations.Add(1)
					}
					var inFlight *workflow.ErrApprovalInFlight
					if errors.As(err, &inFlight) {
						inFlightRejections.Add(1)
					}
					settled.Add(1)
				}()
			}

			// the winner is parked inside the command, the three losers must
			// all bounce off the in-flight guard before it is released
			Eventually(approveCalls.Load).Should(Equal(int32(1)))
			Eventually(settled.Load).Should(Equal(int32(3)))
			close(release)
			wg.Wait()

			Expect(confirmations.Load()).To(Equal(int32(1)))
			Expect(inFlightRejections.Load()).To(Equal(int32(3)))
			Expect(machine.State()).To(Equal(workflow.ApprovalApproved))
		})
	})
})
