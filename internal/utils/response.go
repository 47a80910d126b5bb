package utils

import "net/http"

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func NewResponse(status int, message string, data interface{}) Response {
	return Response{
		Status:  status,
		Message: message,
		Data:    data,
	}
}

func NewSuccessResponse(message string, data interface{}) Response {
	return NewResponse(http.StatusOK, message, data)
}

// NewErrorResponse carries no data; validation failures use BindAndValidate instead.
func NewErrorResponse(status int, message string) Response {
	return NewResponse(status, message, nil)
}
