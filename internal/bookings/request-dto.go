package bookings

type ReserveRequest struct {
	Seats    []int   `json:"seats" binding:"required" validate:"required,min=1,max=100,dive,gt=0"`
	UserName *string `json:"user_name" validate:"omitempty,max=255"`
}
