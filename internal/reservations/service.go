package reservations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicbook/reservation-platform/pkg/logging"
)

var tracer = otel.Tracer("clinicbook.internal.reservations")

// ErrInvalidRequest marks request validation failures so the HTTP layer can
// map them to 400 responses.
var ErrInvalidRequest = fmt.Errorf("reservations: invalid request")

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, patientID, menuID, roomID string, reservedOn time.Time) (*Reservation, error)
	Get(ctx context.Context, id string) (*Reservation, error)
	ListByPatient(ctx context.Context, patientID string) ([]Reservation, error)
	Cancel(ctx context.Context, id string) error
}

// Notifier sends the patient-facing confirmation. Delivery failures are
// logged, never surfaced: the reservation is already committed.
type Notifier interface {
	SendConfirmation(ctx context.Context, res *Reservation) error
}

// Service coordinates reservation writes with confirmation delivery.
type Service struct {
	store    Store
	notifier Notifier
	logger   *logging.Logger
}

// NewService builds a Service. The notifier is optional.
func NewService(store Store, notifier Notifier, logger *logging.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("reservations: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, notifier: notifier, logger: logger}, nil
}

// CreateRequest carries the fields of one reservation request.
type CreateRequest struct {
	PatientID  string    `json:"patient_id"`
	MenuID     string    `json:"menu_id"`
	RoomID     string    `json:"room_id"`
	ReservedOn time.Time `json:"reserved_on"`
}

func (r CreateRequest) validate() error {
	if r.PatientID == "" {
		return fmt.Errorf("%w: patient_id is required", ErrInvalidRequest)
	}
	if r.MenuID == "" {
		return fmt.Errorf("%w: menu_id is required", ErrInvalidRequest)
	}
	if r.ReservedOn.IsZero() {
		return fmt.Errorf("%w: reserved_on is required", ErrInvalidRequest)
	}
	return nil
}

// Create persists a confirmed reservation and fires the confirmation.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservations.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinicbook.patient_id", req.PatientID),
		attribute.String("clinicbook.menu_id", req.MenuID),
	)

	if err := req.validate(); err != nil {
		return nil, err
	}

	res, err := s.store.Create(ctx, req.PatientID, req.MenuID, req.RoomID, req.ReservedOn)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.SendConfirmation(ctx, res); err != nil {
			s.logger.Error("confirmation delivery failed",
				"reservation_id", res.ID, "error", err)
		}
	}

	s.logger.Info("reservation created",
		"reservation_id", res.ID,
		"patient_id", res.PatientID,
		"menu_id", res.MenuID,
	)
	return res, nil
}

// Get returns one reservation.
func (s *Service) Get(ctx context.Context, id string) (*Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservations.get")
	defer span.End()
	return s.store.Get(ctx, id)
}

// ListByPatient returns a patient's reservations, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservations.list")
	defer span.End()
	if patientID == "" {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidRequest)
	}
	return s.store.ListByPatient(ctx, patientID)
}

// Cancel marks a reservation cancelled.
func (s *Service) Cancel(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "reservations.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("clinicbook.reservation_id", id))

	if err := s.store.Cancel(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("reservation cancelled", "reservation_id", id)
	return nil
}
