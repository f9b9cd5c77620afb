package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"vetclinic/backend/internal/domain"
	"vetclinic/backend/internal/service/appointments"
)

const userIDHeader = "x-user-id"

var _ SchedulingServiceServer = (*SchedulingServer)(nil)

type SchedulingServer struct {
	engine availabilityEngine
	svc    appointmentsService
	log    *slog.Logger
}

type availabilityEngine interface {
	ComputeAvailability(ctx context.Context, serviceID int64) ([]domain.AvailabilityDay, error)
}

type appointmentsService interface {
	Create(ctx context.Context, req appointments.CreateRequest) (domain.Appointment, error)
	Update(ctx context.Context, callerID int64, req appointments.UpdateRequest) (domain.Appointment, error)
	Get(ctx context.Context, callerID int64, appointmentID string) (domain.Appointment, error)
	ListForUser(ctx context.Context, userID int64, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
}

func NewSchedulingServer(engine availabilityEngine, svc appointmentsService, log *slog.Logger) *SchedulingServer {
	if log == nil {
		log = slog.Default()
	}
	return &SchedulingServer{
		engine: engine,
		svc:    svc,
		log:    log.With(slog.String("component", "grpc.scheduling")),
	}
}

func (s *SchedulingServer) GetAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "GetAvailability"))

	serviceID, err := optionalInt64(req, "service_id")
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}
	var id int64
	if serviceID != nil {
		id = *serviceID
	}

	days, err := s.engine.ComputeAvailability(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.Int64("service_id", id))
	}

	log.DebugContext(ctx, "availability computed", slog.Int64("service_id", id), slog.Int("days", len(days)))
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"days": listOf(days, availabilityDayToStruct),
	}}, nil
}

func (s *SchedulingServer) CreateAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "CreateAppointment"))

	in, err := decodeCreate(req)
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}
	caller, err := callerID(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}
	if caller != 0 {
		in.UserID = &caller
	}

	appt, err := s.svc.Create(ctx, in)
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}
	return appointmentResponse(appt), nil
}

func (s *SchedulingServer) UpdateAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "UpdateAppointment"))

	in, err := decodeUpdate(req)
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}
	caller, err := callerID(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}

	appt, err := s.svc.Update(ctx, caller, in)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("appointment_id", in.AppointmentID))
	}
	return appointmentResponse(appt), nil
}

func (s *SchedulingServer) GetAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "GetAppointment"))

	id, err := optionalString(req, "appointment_id")
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}
	caller, err := callerID(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}

	appt, err := s.svc.Get(ctx, caller, id)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("appointment_id", id))
	}
	return appointmentResponse(appt), nil
}

func (s *SchedulingServer) ListAppointments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "ListAppointments"))

	userID, err := optionalInt64(req, "user_id")
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}
	start, err := optionalTimestamp(req, "window_start")
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}
	end, err := optionalTimestamp(req, "window_end")
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}
	if start == nil || end == nil {
		return nil, s.fail(ctx, log, domain.NewClientError("window_start and window_end are required"))
	}
	caller, err := callerID(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}

	var user int64
	switch {
	case caller != 0:
		user = caller
	case userID != nil:
		user = *userID
	}

	appts, err := s.svc.ListForUser(ctx, user, *start, *end)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.Int64("user_id", user))
	}

	log.DebugContext(ctx, "appointments listed",
		slog.Int64("user_id", user),
		slog.Int("count", len(appts)),
		slog.Time("window_start", *start),
		slog.Time("window_end", *end),
	)
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"appointments": listOf(appts, appointmentToStruct),
	}}, nil
}

// fail maps err to a status. Caller mistakes keep their message, schedule
// misconfiguration is reported as a failed precondition and everything else
// is logged and hidden.
func (s *SchedulingServer) fail(ctx context.Context, log *slog.Logger, err error, attrs ...any) error {
	var fErr *fieldError
	if errors.As(err, &fErr) {
		log.WarnContext(ctx, "invalid request", append(attrs, slog.Any("err", err))...)
		return status.Error(codes.InvalidArgument, fErr.Error())
	}

	switch domain.ClassifyFailure(err) {
	case domain.FailureClient:
		log.InfoContext(ctx, "request rejected", append(attrs, slog.Any("err", err))...)
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.FailureConfiguration:
		log.WarnContext(ctx, "schedule misconfigured", append(attrs, slog.Any("err", err))...)
		return status.Error(codes.FailedPrecondition, err.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, "request canceled")
	}
	log.ErrorContext(ctx, "request failed", append(attrs, slog.Any("err", err))...)
	return status.Error(codes.Internal, "internal error")
}

// callerID reads the authenticated user from request metadata. Zero means
// no caller was supplied.
func callerID(ctx context.Context) (int64, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return 0, nil
	}
	values := md.Get(userIDHeader)
	if len(values) == 0 {
		return 0, nil
	}
	raw := strings.TrimSpace(values[0])
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &fieldError{field: userIDHeader, want: "a positive integer"}
	}
	return id, nil
}

func decodeCreate(req *structpb.Struct) (appointments.CreateRequest, error) {
	var (
		in  appointments.CreateRequest
		err error
	)
	if in.UserID, err = optionalInt64(req, "user_id"); err != nil {
		return in, err
	}
	if in.PetID, err = optionalInt64(req, "pet_id"); err != nil {
		return in, err
	}
	if in.ServiceID, err = optionalInt64(req, "service_id"); err != nil {
		return in, err
	}
	if in.Date, err = optionalTimestamp(req, "date"); err != nil {
		return in, err
	}
	if in.IsCanceled, err = optionalBool(req, "is_canceled"); err != nil {
		return in, err
	}
	return in, nil
}

func decodeUpdate(req *structpb.Struct) (appointments.UpdateRequest, error) {
	var (
		in  appointments.UpdateRequest
		err error
	)
	if in.AppointmentID, err = optionalString(req, "appointment_id"); err != nil {
		return in, err
	}
	if in.PetID, err = optionalInt64(req, "pet_id"); err != nil {
		return in, err
	}
	if in.IsCanceled, err = optionalBool(req, "is_canceled"); err != nil {
		return in, err
	}
	if in.Date, err = optionalTimestamp(req, "date"); err != nil {
		return in, err
	}
	if in.ServiceID, err = optionalInt64(req, "service_id"); err != nil {
		return in, err
	}
	return in, nil
}

func appointmentResponse(a domain.Appointment) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"appointment": structpb.NewStructValue(appointmentToStruct(a)),
	}}
}
