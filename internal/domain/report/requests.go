package report

type CreateRequest struct {
	TrainerID string `json:"trainerId" binding:"required,uuid"`
	Message   string `json:"message" binding:"required,min=10,max=2000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=RESOLVED DISMISSED"`
}
