// Package payload holds the JSON documents accepted at the
// boundaries (HTTP bodies and CLI input files) and the rules
// that check them.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/flowbreak/focusagent/internal/focus"
)

// validate checks decoded documents. Field names in its errors
// are the JSON names.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("jsonobject", validateJSONObject)
}

// validateJSONObject accepts raw JSON that is a single object.
func validateJSONObject(fl validator.FieldLevel) bool {
	raw := fl.Field().Bytes()
	return gjson.ValidBytes(raw) && gjson.ParseBytes(raw).IsObject()
}

// Metrics is a session metrics document. Pointers tell a missing
// field apart from an explicit zero.
type Metrics struct {
	SessionID       *string           `json:"sessionId" validate:"required"`
	FocusScore      *float64          `json:"focusScore" validate:"required,gte=0"`
	MaxScore        *float64          `json:"maxScore" validate:"omitempty,gte=0"`
	AttentionBreaks *int              `json:"attentionBreaks" validate:"required,gte=0"`
	IdleMinutes     *float64          `json:"idleMinutes" validate:"required,gte=0"`
	DomainStats     map[string]int    `json:"domainStats" validate:"required,dive,gte=0"`
	Events          []json.RawMessage `json:"events" validate:"omitempty,dive,jsonobject"`
}

// SessionMetrics converts a validated document. A missing or
// null maxScore means the default scale.
func (m Metrics) SessionMetrics() focus.SessionMetrics {
	maxScore := float64(focus.DefaultMaxScore)
	if m.MaxScore != nil {
		maxScore = *m.MaxScore
	}
	return focus.SessionMetrics{
		SessionID:       *m.SessionID,
		FocusScore:      *m.FocusScore,
		MaxScore:        maxScore,
		AttentionBreaks: *m.AttentionBreaks,
		IdleMinutes:     *m.IdleMinutes,
		DomainStats:     m.DomainStats,
		Events:          m.Events,
	}
}

// Events is a raw browser events document.
type Events struct {
	Events []json.RawMessage `json:"events" validate:"required,dive,jsonobject"`
}

// Question is a chat request.
type Question struct {
	SessionID *string `json:"sessionId" validate:"required"`
	Question  *string `json:"question" validate:"required"`
}

// Validate checks v against its validate tags. The error text
// has one clause per field, e.g. "focusScore is required".
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid document: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "jsonobject":
		return fe.Field() + " must be a JSON object"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// DecodeMessage renders a json decoding error in terms of the
// document's JSON fields.
func DecodeMessage(err error) string {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		if te.Field == "" {
			return "document must be " + kindName(te.Type)
		}
		return fmt.Sprintf("%s must be %s", te.Field, kindName(te.Type))
	}
	return "invalid JSON: " + err.Error()
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "a JSON object"
	}
}

// Decode unmarshals data into dst and validates it.
func Decode(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.New(DecodeMessage(err))
	}
	return Validate(dst)
}

// DecodeMetrics parses and validates a metrics document.
func DecodeMetrics(data []byte) (focus.SessionMetrics, error) {
	var doc Metrics
	if err := Decode(data, &doc); err != nil {
		return focus.SessionMetrics{}, err
	}
	return doc.SessionMetrics(), nil
}
