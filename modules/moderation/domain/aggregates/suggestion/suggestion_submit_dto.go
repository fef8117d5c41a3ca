package suggestion

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/archmarket/platform/pkg/constants"
	"github.com/archmarket/platform/pkg/serrors"
)

type SubmitDTO struct {
	Kind           string `json:"kind" validate:"required,oneof=new_catalog_type new_catalog_field"`
	Name           string `json:"name" validate:"required_if=Kind new_catalog_type,max=200"`
	FieldName      string `json:"field_name" validate:"required_if=Kind new_catalog_field,max=100"`
	SuggestedValue string `json:"suggested_value" validate:"required_if=Kind new_catalog_field,max=200"`
	CatalogTypeID  string `json:"catalog_type_id" validate:"omitempty,uuid"`
	Description    string `json:"description" validate:"max=2000"`
}

func (d *SubmitDTO) Normalize() {
	d.Kind = strings.ToLower(strings.TrimSpace(d.Kind))
	d.Name = strings.TrimSpace(d.Name)
	d.FieldName = strings.TrimSpace(d.FieldName)
	d.SuggestedValue = strings.TrimSpace(d.SuggestedValue)
	d.CatalogTypeID = strings.TrimSpace(d.CatalogTypeID)
	d.Description = strings.TrimSpace(d.Description)
}

// Ok normalizes and validates the draft.
func (d *SubmitDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()

	localeKey := func(field string) string {
		return fmt.Sprintf("Suggestion.Fields.%s", field)
	}
	out := make(serrors.ValidationErrors)
	if errs := constants.Validate.Struct(d); errs != nil {
		validatorErrs, ok := errs.(validator.ValidationErrors)
		if !ok {
			panic(errs)
		}
		out = serrors.ProcessValidatorErrors(validatorErrs, localeKey)
	}
	if Kind(d.Kind) == KindCatalogField && d.CatalogTypeID == "" {
		if _, seen := out["CatalogTypeID"]; !seen {
			out["CatalogTypeID"] = *serrors.NewFieldRequiredError("CatalogTypeID", localeKey("CatalogTypeID"))
		}
	}
	return out, len(out) == 0
}

// ToEntity must only be called after Ok succeeded.
func (d *SubmitDTO) ToEntity(submitterID uuid.UUID) Suggestion {
	if Kind(d.Kind) == KindCatalogType {
		return NewCatalogType(submitterID, TypePayload{
			Name:        d.Name,
			Description: d.Description,
		})
	}
	return NewCatalogField(submitterID, FieldPayload{
		FieldName:      d.FieldName,
		SuggestedValue: d.SuggestedValue,
		CatalogTypeID:  uuid.MustParse(d.CatalogTypeID),
		Description:    d.Description,
	})
}
