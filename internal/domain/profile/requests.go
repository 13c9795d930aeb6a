package profile

type UpdateRequest struct {
	Age           *int     `json:"age" binding:"omitempty,gte=10,lte=120"`
	WeightKg      *float64 `json:"weight" binding:"omitempty,gt=0,lte=500"`
	HeightCm      *float64 `json:"height" binding:"omitempty,gt=0,lte=300"`
	Gender        *string  `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER"`
	FitnessGoal   *string  `json:"fitnessGoal" binding:"omitempty,oneof=WEIGHT_LOSS MUSCLE_GAIN GENERAL_HEALTH ENDURANCE FLEXIBILITY"`
	ActivityLevel *string  `json:"activityLevel" binding:"omitempty,oneof=SEDENTARY LIGHTLY_ACTIVE MODERATELY_ACTIVE VERY_ACTIVE"`
	MedicalNotes  *string  `json:"medicalNotes" binding:"omitempty,max=2000"`
}
