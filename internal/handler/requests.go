package handler

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DragRequest is the drop position of a dragged station
type DragRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

// TapRequest carries the click modifier
type TapRequest struct {
	Shift bool `json:"shift"`
}

// LabelRequest is one direction key for the label editor
type LabelRequest struct {
	Key string `json:"key" validate:"required,len=1"`
}

// LabelResponse reports whether a keypress moved a label
type LabelResponse struct {
	Applied bool   `json:"applied"`
	Station string `json:"station,omitempty"`
}

func validateRequest(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "len":
			msgs = append(msgs, fmt.Sprintf("%s must be exactly %s character", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
