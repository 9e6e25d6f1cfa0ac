package workflow_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/internal/client"
	"github.com/meridianqs/estimator-client/internal/workflow"
)

var _ = Describe("ClarificationRegister", func() {
	var (
		ctx context.Context
		now time.Time
	)

	BeforeEach(func() {
		ctx = context.TODO()
		now = time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	})

	clock := func() workflow.RegisterOption {
		return workflow.WithClock(func() time.Time { return now })
	}

	Context("read-time derivation", func() {
		It("computes days open against the clock and leaves nothing stored", func() {
			log := api.ClarificationLog{
				Items: []api.RFIEntry{
					{RFIID: "RFI-001", Status: api.RFIOpen, SubmittedAt: now.AddDate(0, 0, -10)},
				},
				Counts: api.RFICounts{Total: 1, Open: 1, Overdue: 1},
			}
			register := workflow.NewClarificationRegister(&client.PipelineMock{}, "job-1", log, clock())

			item := register.Items()[0]
			Expect(item.DaysOpen).To(Equal(10))
			Expect(item.Overdue).To(BeTrue())

			// the same register read a day later, no mutation in between
			now = now.AddDate(0, 0, 1)
			Expect(register.Items()[0].DaysOpen).To(Equal(11))
		})

		It("applies the collaborator-supplied overdue threshold", func() {
			log := api.ClarificationLog{
				Items: []api.RFIEntry{
					{RFIID: "RFI-001", Status: api.RFIOpen, SubmittedAt: now.AddDate(0, 0, -10)},
				},
			}
			register := workflow.NewClarificationRegister(&client.PipelineMock{}, "job-1", log,
				clock(), workflow.WithOverdueThresholdDays(14))

			Expect(register.Items()[0].Overdue).To(BeFalse())
		})

		It("freezes days open at the response time for responded items", func() {
			respondedAt := now.AddDate(0, 0, -6)
			log := api.ClarificationLog{
				Items: []api.RFIEntry{
					{
						RFIID:       "RFI-001",
						Status:      api.RFIResponded,
						SubmittedAt: now.AddDate(0, 0, -9),
						RespondedAt: &respondedAt,
					},
				},
			}
			register := workflow.NewClarificationRegister(&client.PipelineMock{}, "job-1", log, clock())

			item := register.Items()[0]
			Expect(item.DaysOpen).To(Equal(3))
			Expect(item.Overdue).To(BeFalse())
		})

		It("never marks a responded item overdue", func() {
			respondedAt := now.AddDate(0, 0, -1)
			log := api.ClarificationLog{
				Items: []api.RFIEntry{
					{
						RFIID:       "RFI-001",
						Status:      api.RFIResponded,
						SubmittedAt: now.AddDate(0, 0, -30),
						RespondedAt: &respondedAt,
					},
				},
			}
			register := workflow.NewClarificationRegister(&client.PipelineMock{}, "job-1", log, clock())
			Expect(register.Items()[0].Overdue).To(BeFalse())
		})

		It("clamps a submission timestamp ahead of the clock to zero", func() {
			log := api.ClarificationLog{
				Items: []api.RFIEntry{
					{RFIID: "RFI-001", Status: api.RFIOpen, SubmittedAt: now.Add(2 * time.Hour)},
				},
			}
			register := workflow.NewClarificationRegister(&client.PipelineMock{}, "job-1", log, clock())
			Expect(register.Items()[0].DaysOpen).To(Equal(0))
		})
	})

	Context("counts", func() {
		It("reports the server counts verbatim", func() {
			// the server's overdue policy disagrees with the local threshold on
			// purpose; its counts win
			log := api.ClarificationLog{
				Items: []api.RFIEntry{
					{RFIID: "RFI-001", Status: api.RFIOpen, SubmittedAt: now.AddDate(0, 0, -2)},
				},
				Counts: api.RFICounts{Total: 3, Open: 2, Overdue: 1},
			}
			register := workflow.NewClarificationRegister(&client.PipelineMock{}, "job-1", log, clock())

			Expect(register.Counts()).To(Equal(api.RFICounts{Total: 3, Open: 2, Overdue: 1}))
		})
	})

	Context("mutations", func() {
		It("refetches the full log after adding an RFI", func() {
			pipeline := &client.PipelineMock{
				AddClarificationFunc: func(ctx context.Context, jobID string, params api.AddRFIRequest) error {
					Expect(params.Reference).To(Equal("DWG-S-101"))
					Expect(params.RFIText).To(Equal("confirm slab thickness"))
					return nil
				},
				GetClarificationLogFunc: func(ctx context.Context, jobID string) (api.ClarificationLog, error) {
					return api.ClarificationLog{
						Items: []api.RFIEntry{
							{RFIID: "RFI-001", Status: api.RFIOpen, SubmittedAt: now},
						},
						Counts: api.RFICounts{Total: 1, Open: 1},
					}, nil
				},
			}
			register := workflow.NewClarificationRegister(pipeline, "job-1", api.ClarificationLog{}, clock())

			err := register.Add(ctx, api.AddRFIRequest{Reference: "DWG-S-101", RFIText: "confirm slab thickness"})
			Expect(err).To(BeNil())
			Expect(register.Items()).To(HaveLen(1))
			Expect(register.Counts().Total).To(Equal(1))
		})

		It("refetches the full log after responding", func() {
			respondedAt := now
			pipeline := &client.PipelineMock{
				RespondClarificationFunc: func(ctx context.Context, jobID, rfiID string, params api.RespondRFIRequest) error {
					Expect(rfiID).To(Equal("RFI-001"))
					return nil
				},
				GetClarificationLogFunc: func(ctx context.Context, jobID string) (api.ClarificationLog, error) {
					return api.ClarificationLog{
						Items: []api.RFIEntry{
							{RFIID: "RFI-001", Status: api.RFIResponded, SubmittedAt: now.AddDate(0, 0, -4), RespondedAt: &respondedAt},
						},
						Counts: api.RFICounts{Total: 1, Open: 0},
					}, nil
				},
			}
			seed := api.ClarificationLog{
				Items:  []api.RFIEntry{{RFIID: "RFI-001", Status: api.RFIOpen, SubmittedAt: now.AddDate(0, 0, -4)}},
				Counts: api.RFICounts{Total: 1, Open: 1},
			}
			register := workflow.NewClarificationRegister(pipeline, "job-1", seed, clock())

			err := register.Respond(ctx, "RFI-001", api.RespondRFIRequest{ResponseText: "300mm per revised drawing"})
			Expect(err).To(BeNil())
			Expect(register.Items()[0].Status).To(Equal(api.RFIResponded))
			Expect(register.Counts().Open).To(Equal(0))
		})

		It("keeps the local log untouched when the command fails", func() {
			pipeline := &client.PipelineMock{
				AddClarificationFunc: func(ctx context.Context, jobID string, params api.AddRFIRequest) error {
					return errors.New("pipeline unavailable")
				},
			}
			seed := api.ClarificationLog{Counts: api.RFICounts{Total: 2, Open: 1}}
			register := workflow.NewClarificationRegister(pipeline, "job-1", seed, clock())

			err := register.Add(ctx, api.AddRFIRequest{RFIText: "confirm slab thickness"})
			Expect(err).To(HaveOccurred())
			Expect(register.Counts()).To(Equal(api.RFICounts{Total: 2, Open: 1}))
		})
	})
})
