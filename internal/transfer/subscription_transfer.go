package transfer

type GiftCertificateRedemption struct {
	Code     string `json:"code" validate:"required,min=4"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone" validate:"required,e164"`
}

type RedeemedUser struct {
	RemainingPosts int `json:"remainingPosts"`
}

type GiftCertificateResponse struct {
	Plan string       `json:"plan"`
	User RedeemedUser `json:"user"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
