package notify

import (
	"context"
	"fmt"

	"github.com/clinicbook/reservation-platform/internal/catalog"
	"github.com/clinicbook/reservation-platform/internal/reservations"
	"github.com/clinicbook/reservation-platform/pkg/logging"
)

// Contact is the patient contact information needed for delivery.
type Contact struct {
	PatientID string
	Name      string
	Email     string
}

// ContactStore resolves a patient id to contact details.
type ContactStore interface {
	Contact(ctx context.Context, patientID string) (*Contact, error)
}

// CatalogSource provides the catalog snapshot used to render menu names.
type CatalogSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// Service sends reservation confirmation emails. It implements
// reservations.Notifier.
type Service struct {
	email    EmailSender
	contacts ContactStore
	catalogs CatalogSource
	logger   *logging.Logger
}

// NewService creates a confirmation service. The catalog source is optional;
// without it emails fall back to raw menu ids.
func NewService(email EmailSender, contacts ContactStore, catalogs CatalogSource, logger *logging.Logger) (*Service, error) {
	if email == nil {
		return nil, fmt.Errorf("notify: email sender required")
	}
	if contacts == nil {
		return nil, fmt.Errorf("notify: contact store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, contacts: contacts, catalogs: catalogs, logger: logger}, nil
}

// SendConfirmation emails the patient that their reservation is confirmed.
func (s *Service) SendConfirmation(ctx context.Context, res *reservations.Reservation) error {
	contact, err := s.contacts.Contact(ctx, res.PatientID)
	if err != nil {
		return fmt.Errorf("notify: load contact: %w", err)
	}
	if contact.Email == "" {
		s.logger.Info("patient has no email on file, skipping confirmation",
			"patient_id", res.PatientID, "reservation_id", res.ID)
		return nil
	}

	menuName := s.menuName(ctx, res.MenuID)
	when := res.ReservedOn.Format("Monday, January 2 at 3:04 PM")

	name := contact.Name
	if name == "" {
		name = "there"
	}

	msg := EmailMessage{
		To:      contact.Email,
		ToName:  contact.Name,
		Subject: fmt.Sprintf("Reservation confirmed: %s", menuName),
		Body: fmt.Sprintf(`Hi %s,

Your reservation is confirmed.

Treatment: %s
When: %s
Confirmation: %s

If you need to reschedule, please contact the clinic.`,
			name, menuName, when, res.ID),
		HTML: fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>Reservation confirmed</h2>
<p>Hi %s, your reservation is confirmed.</p>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px;"><strong>Treatment:</strong></td><td style="padding: 8px;">%s</td></tr>
  <tr><td style="padding: 8px;"><strong>When:</strong></td><td style="padding: 8px;">%s</td></tr>
  <tr><td style="padding: 8px;"><strong>Confirmation:</strong></td><td style="padding: 8px;">%s</td></tr>
</table>
<p>If you need to reschedule, please contact the clinic.</p>
</div>`, name, menuName, when, res.ID),
	}

	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send confirmation: %w", err)
	}
	s.logger.Info("confirmation sent",
		"reservation_id", res.ID, "patient_id", res.PatientID, "to", contact.Email)
	return nil
}

func (s *Service) menuName(ctx context.Context, menuID string) string {
	if s.catalogs == nil {
		return menuID
	}
	snap, err := s.catalogs.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("catalog unavailable while rendering confirmation", "error", err)
		return menuID
	}
	if menu, ok := snap.MenuByID(menuID); ok && menu.Name != "" {
		return menu.Name
	}
	return menuID
}

var _ reservations.Notifier = (*Service)(nil)
