package jobs

type JobType string

const (
	JobSendVerificationCode JobType = "send_verification_code"
	JobSendResetCode        JobType = "send_reset_code"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobSendVerificationCode, JobSendResetCode:
		return true
	default:
		return false
	}
}
