package dto

// PublishNoticeRequest substitui o aviso vigente
type PublishNoticeRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
	SentBy  string `json:"sentBy" validate:"required,max=100"`
}

type ToggleNoticeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
