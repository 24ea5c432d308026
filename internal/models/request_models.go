package models

// request
type LoginRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type AttachMeterRequest struct {
	Value string     `json:"value" binding:"required"`
	Kind  SearchKind `json:"kind"`
}

type UpdateRequestStatusRequest struct {
	Status RequestStatus `json:"status" binding:"required"`
}

// response
type LoginResponse struct {
	User      User   `json:"user"`
	SessionID string `json:"session_id"`
}

type LookupResponse struct {
	Meter      MeterData `json:"meter"`
	Generation uint64    `json:"generation"`
	// ContactLink opens a WhatsApp chat with support, prefilled with the
	// meter context.
	ContactLink string `json:"contact_link"`
}

type LookupNotFoundResponse struct {
	Value       string `json:"value"`
	ContactLink string `json:"contact_link"`
}
