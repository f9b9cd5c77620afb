package grpc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"vetclinic/backend/internal/domain"
)

// fieldError is a malformed request field. Its message goes to the caller.
type fieldError struct {
	field string
	want  string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s must be %s", e.field, e.want)
}

func lookup(req *structpb.Struct, field string) (*structpb.Value, bool) {
	if req == nil {
		return nil, false
	}
	v, ok := req.GetFields()[field]
	if !ok {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

// optionalInt64 reads an integer id. Struct numbers are doubles, so
// fractional or out of range values are rejected; numeric strings are
// accepted.
func optionalInt64(req *structpb.Struct, field string) (*int64, error) {
	v, ok := lookup(req, field)
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := kind.NumberValue
		if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return nil, &fieldError{field: field, want: "an integer"}
		}
		n := int64(f)
		return &n, nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(kind.StringValue), 10, 64)
		if err != nil {
			return nil, &fieldError{field: field, want: "an integer"}
		}
		return &n, nil
	default:
		return nil, &fieldError{field: field, want: "an integer"}
	}
}

func optionalBool(req *structpb.Struct, field string) (*bool, error) {
	v, ok := lookup(req, field)
	if !ok {
		return nil, nil
	}
	b, isBool := v.GetKind().(*structpb.Value_BoolValue)
	if !isBool {
		return nil, &fieldError{field: field, want: "a boolean"}
	}
	out := b.BoolValue
	return &out, nil
}

func optionalString(req *structpb.Struct, field string) (string, error) {
	v, ok := lookup(req, field)
	if !ok {
		return "", nil
	}
	s, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", &fieldError{field: field, want: "a string"}
	}
	return strings.TrimSpace(s.StringValue), nil
}

// optionalTimestamp reads an RFC 3339 timestamp string.
func optionalTimestamp(req *structpb.Struct, field string) (*time.Time, error) {
	raw, err := optionalString(req, field)
	if err != nil {
		return nil, &fieldError{field: field, want: "an RFC 3339 timestamp"}
	}
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, &fieldError{field: field, want: "an RFC 3339 timestamp"}
	}
	return &t, nil
}

func timestampValue(t time.Time) *structpb.Value {
	return structpb.NewStringValue(t.UTC().Format(time.RFC3339Nano))
}

func appointmentToStruct(a domain.Appointment) *structpb.Struct {
	cancellation := structpb.NewNullValue()
	if a.CancellationDate != nil {
		cancellation = timestampValue(*a.CancellationDate)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"appointment_id":     structpb.NewStringValue(a.ID.String()),
		"user_id":            structpb.NewNumberValue(float64(a.UserID)),
		"pet_id":             structpb.NewNumberValue(float64(a.PetID)),
		"service_id":         structpb.NewNumberValue(float64(a.ServiceID)),
		"date":               timestampValue(a.Date),
		"is_canceled":        structpb.NewBoolValue(a.IsCanceled),
		"cancellation_date":  cancellation,
		"creation_date":      timestampValue(a.CreatedAt),
		"latest_update_date": timestampValue(a.UpdatedAt),
	}}
}

func availabilityDayToStruct(d domain.AvailabilityDay) *structpb.Struct {
	slots := make([]*structpb.Value, 0, len(d.Slots))
	for _, s := range d.Slots {
		slots = append(slots, structpb.NewStringValue(s.String()))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"date":            structpb.NewStringValue(domain.DateKey(d.Date)),
		"service_id":      structpb.NewNumberValue(float64(d.ServiceID)),
		"open_time":       structpb.NewStringValue(d.Hours.Open.String()),
		"close_time":      structpb.NewStringValue(d.Hours.Close.String()),
		"lunch_from_time": structpb.NewStringValue(d.Hours.LunchFrom.String()),
		"lunch_to_time":   structpb.NewStringValue(d.Hours.LunchTo.String()),
		"time_slots":      structpb.NewListValue(&structpb.ListValue{Values: slots}),
	}}
}

func listOf[T any](items []T, encode func(T) *structpb.Struct) *structpb.Value {
	values := make([]*structpb.Value, 0, len(items))
	for _, item := range items {
		values = append(values, structpb.NewStructValue(encode(item)))
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}
