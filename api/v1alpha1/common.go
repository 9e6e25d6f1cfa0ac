package v1alpha1

func StringToJobStatus(s string) JobStatus {
	switch s {
	case string(JobStatusQueued):
		return JobStatusQueued
	case string(JobStatusProcessing):
		return JobStatusProcessing
	case string(JobStatusComplete):
		return JobStatusComplete
	case string(JobStatusFailed):
		return JobStatusFailed
	case string(JobStatusReviewRequired):
		return JobStatusReviewRequired
	case string(JobStatusApproved):
		return JobStatusApproved
	case string(JobStatusDispatched):
		return JobStatusDispatched
	default:
		return JobStatusProcessing
	}
}

func StringToDecisionStatus(s string) DecisionStatus {
	switch s {
	case string(DecisionAccepted):
		return DecisionAccepted
	case string(DecisionRejected):
		return DecisionRejected
	default:
		return DecisionPending
	}
}

func StringToRFIStatus(s string) RFIStatus {
	switch s {
	case string(RFIResponded):
		return RFIResponded
	default:
		return RFIOpen
	}
}
