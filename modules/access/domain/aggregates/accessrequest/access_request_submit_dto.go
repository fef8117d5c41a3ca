package accessrequest

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/archmarket/platform/pkg/constants"
	"github.com/archmarket/platform/pkg/serrors"
)

type SubmitDTO struct {
	ProducerID string `json:"producer_id" validate:"required,uuid"`
	Message    string `json:"message" validate:"max=2000"`
}

func (d *SubmitDTO) Ok(specifierID uuid.UUID) (serrors.ValidationErrors, bool) {
	d.ProducerID = strings.ToLower(strings.TrimSpace(d.ProducerID))
	d.Message = strings.TrimSpace(d.Message)

	localeKey := func(field string) string {
		return fmt.Sprintf("AccessRequest.Fields.%s", field)
	}
	out := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		validatorErrs, ok := errs.(validator.ValidationErrors)
		if !ok {
			panic(errs)
		}
		out = serrors.ProcessValidatorErrors(validatorErrs, localeKey)
	}
	if _, seen := out["ProducerID"]; !seen && isSelf(d.ProducerID, specifierID) {
		out["ProducerID"] = serrors.ValidationError{
			BaseError: *serrors.NewError("VALIDATION_SELF_REQUEST", "cannot request access to your own catalog", localeKey("ProducerID")),
			Field:     "ProducerID",
		}
	}
	return out, len(out) == 0
}

// isSelf compares parsed ids so casing and brace forms of the same uuid match.
func isSelf(producerID string, specifierID uuid.UUID) bool {
	id, err := uuid.Parse(producerID)
	return err == nil && id == specifierID
}

func (d *SubmitDTO) ToEntity(specifierID uuid.UUID) AccessRequest {
	return New(specifierID, uuid.MustParse(d.ProducerID), d.Message)
}
