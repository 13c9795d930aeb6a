package assignment

type SelectTrainerRequest struct {
	TrainerID string `json:"trainerId" binding:"required,uuid"`
}
