package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidationErrorDetail represents the structure of a single validation error.
type ValidationErrorDetail struct {
	Field    string      `json:"field"`
	Message  string      `json:"message"`
	Expected string      `json:"expected"`
	Received interface{} `json:"received"`
}

// ValidationErrorData represents the data field in the validation error response.
type ValidationErrorData struct {
	Errors        []ValidationErrorDetail `json:"errors"`
	Documentation string                  `json:"documentation"`
}

const DocumentationLink = "/swagger/index.html"

// BindAndValidate binds the JSON request body to obj and validates it.
// On failure it writes a 400 response with per-field details and returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	return BindAndValidateWith(c, obj, binding.JSON)
}

// BindAndValidateWith is BindAndValidate for an explicit binding. A nil binding
// picks one from the request method and content type.
func BindAndValidateWith(c *gin.Context, obj interface{}, b binding.Binding) bool {
	if b == nil {
		b = binding.Default(c.Request.Method, c.ContentType())
	}
	if err := c.ShouldBindWith(obj, b); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request parameters",
			Data: ValidationErrorData{
				Errors:        describeBindError(err),
				Documentation: DocumentationLink,
			},
		})
		return false
	}
	return true
}

func describeBindError(err error) []ValidationErrorDetail {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]ValidationErrorDetail, 0, len(validationErrors))
		for _, e := range validationErrors {
			details = append(details, describeFieldError(e))
		}
		return details
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationErrorDetail{{
			Field:    typeErr.Field,
			Message:  fmt.Sprintf("Field '%s' has invalid type", typeErr.Field),
			Expected: typeErr.Type.String(),
			Received: typeErr.Value,
		}}
	}

	return []ValidationErrorDetail{{
		Field:    "body",
		Message:  "Malformed JSON or invalid request body",
		Expected: "valid JSON",
		Received: "invalid",
	}}
}

func describeFieldError(e validator.FieldError) ValidationErrorDetail {
	detail := ValidationErrorDetail{
		Field:    e.Field(),
		Message:  fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", e.Field(), e.Tag()),
		Expected: e.Param(),
		Received: e.Value(),
	}
	if detail.Expected == "" {
		detail.Expected = e.Tag()
	}

	switch e.Tag() {
	case "required":
		detail.Message = fmt.Sprintf("Field '%s' is required", e.Field())
		detail.Expected = "not null"
	case "email":
		detail.Message = fmt.Sprintf("Field '%s' must be a valid email address", e.Field())
		detail.Expected = "email format"
	case "min":
		detail.Message = fmt.Sprintf("Field '%s' must be at least %s", e.Field(), e.Param())
		detail.Expected = fmt.Sprintf("min %s", e.Param())
	case "max":
		detail.Message = fmt.Sprintf("Field '%s' must be at most %s", e.Field(), e.Param())
		detail.Expected = fmt.Sprintf("max %s", e.Param())
	case "oneof":
		detail.Message = fmt.Sprintf("Field '%s' must be one of [%s]", e.Field(), e.Param())
	}
	return detail
}
