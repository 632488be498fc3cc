package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/solatis/policykeeper/internal/types"
)

type generateRequest struct {
	Title      string             `json:"title" validate:"required,max=200"`
	PolicyText string             `json:"policyText"`
	PDFBase64  string             `json:"pdfBase64" validate:"required_without=PolicyText"`
	Rules      []types.PolicyRule `json:"rules" validate:"max=256"`
}

type checklistRequest struct {
	Checklist []types.ChecklistItem `json:"checklist" validate:"required"`
}

type validateCaseRequest struct {
	PolicyID string          `json:"policyId" validate:"required"`
	CaseData json.RawMessage `json:"caseData" validate:"required"`
}

type listResponse struct {
	Policies []*types.Policy `json:"policies"`
}

// newValidator reports json field names in validation errors.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return types.InvalidInput("request body exceeds %d bytes", tooLarge.Limit)
		}
		return types.InvalidInput("malformed JSON body: %v", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return types.InvalidInput("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return types.InvalidInput("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_without":
		return fmt.Sprintf("one of %s or %s is required", fe.Field(), lowerFirst(fe.Param()))
	case "max":
		return fmt.Sprintf("%s exceeds maximum length %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
