package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ariesclinic/consult/internal/domain/doctor"
	"github.com/ariesclinic/consult/internal/domain/profile"
	"github.com/ariesclinic/consult/internal/platform/auth"
	"github.com/ariesclinic/consult/internal/platform/notification"
	"github.com/ariesclinic/consult/internal/platform/payment"
	"github.com/ariesclinic/consult/pkg/pagination"
)

// notifyTimeout bounds the detached notification goroutines spawned by
// booking and closing; their failures never affect the primary operation.
const notifyTimeout = 15 * time.Second

// BookingRequest is the intake payload: the complaint plus the opaque
// payment reference produced by the checkout widget.
type BookingRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	DoctorID         uuid.UUID `json:"doctor_id"`
	PaymentReference string    `json:"payment_reference"`
}

// TxRunner groups repository calls into one atomic unit. db.WithTx
// satisfies it when bound to a pool; a nil runner executes the calls
// without a transaction.
type TxRunner func(ctx context.Context, fn func(context.Context) error) error

// Service orchestrates booking and the consultation list/read surface
// around the ThreadManager.
type Service struct {
	repo     Repository
	threads  *ThreadManager
	doctors  *doctor.Service
	profiles *profile.Service
	verifier payment.Verifier
	notifier *notification.Manager
	tx       TxRunner
	log      zerolog.Logger
}

func NewService(
	repo Repository,
	threads *ThreadManager,
	doctors *doctor.Service,
	profiles *profile.Service,
	verifier payment.Verifier,
	notifier *notification.Manager,
	tx TxRunner,
	log zerolog.Logger,
) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
	}
	return &Service{
		repo:     repo,
		threads:  threads,
		doctors:  doctors,
		profiles: profiles,
		verifier: verifier,
		notifier: notifier,
		tx:       tx,
		log:      log,
	}
}

// Book verifies the payment, records the actor's profile, and inserts a
// new pending consultation. Confirmation notifications go out on a
// detached context afterwards; their failure never fails the booking.
func (s *Service) Book(ctx context.Context, actor auth.Actor, req BookingRequest) (*Consultation, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	d, err := s.doctors.Get(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, req.DoctorID)
		}
		return nil, fmt.Errorf("%w: look up doctor: %v", ErrPersistence, err)
	}

	if err := s.verifier.Verify(ctx, req.PaymentReference); err != nil {
		if errors.Is(err, payment.ErrRejected) {
			return nil, fmt.Errorf("%w: %v", ErrPaymentRejected, err)
		}
		return nil, fmt.Errorf("%w: verify payment: %v", ErrPersistence, err)
	}

	c := &Consultation{
		ID:               uuid.New(),
		Title:            req.Title,
		Description:      strings.TrimSpace(req.Description),
		PatientID:        actor.ID,
		DoctorID:         d.ID,
		Status:           StatusPending,
		PaymentReference: req.PaymentReference,
	}
	// Profile snapshot and consultation land together: a consultation
	// whose author cannot be joined never becomes visible.
	err = s.tx(ctx, func(ctx context.Context) error {
		if _, err := s.profiles.Sync(ctx, actor); err != nil {
			return fmt.Errorf("record profile: %w", err)
		}
		if err := s.repo.Insert(ctx, c); err != nil {
			return fmt.Errorf("insert consultation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.log.Info().
		Str("consultation_id", c.ID.String()).
		Str("patient_id", actor.ID).
		Str("doctor_id", d.ID.String()).
		Msg("consultation booked")

	go s.notifyBooked(actor, d, c)
	return c, nil
}

func (s *Service) notifyBooked(actor auth.Actor, d *doctor.Doctor, c *Consultation) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	data := map[string]string{
		"patient_name": actor.DisplayName,
		"doctor_name":  d.DisplayName,
		"title":        c.Title,
	}
	if actor.Email != "" {
		if _, err := s.notifier.SendFromTemplate(ctx, "consultation-booked", data, actor.Email); err != nil {
			s.log.Warn().Err(err).Str("consultation_id", c.ID.String()).Msg("booking confirmation email failed")
		}
	}
	if d.WhatsApp != nil && *d.WhatsApp != "" {
		if _, err := s.notifier.SendFromTemplate(ctx, "doctor-new-consultation", data, *d.WhatsApp); err != nil {
			s.log.Warn().Err(err).Str("consultation_id", c.ID.String()).Msg("doctor whatsapp alert failed")
		}
	}
}

// List returns the actor's own consultations newest first. Admins and
// doctors see all patients' consultations.
func (s *Service) List(ctx context.Context, actor auth.Actor, p pagination.Params) ([]Consultation, int, error) {
	patientID := actor.ID
	if actor.IsAdmin() || actor.IsDoctor() {
		patientID = ""
	}
	consultations, total, err := s.repo.List(ctx, patientID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list consultations: %v", ErrPersistence, err)
	}
	return consultations, total, nil
}

// Get loads a consultation and its thread. Patients can only read their
// own consultations; doctors and admins can read any.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Thread, error) {
	c, messages, err := s.threads.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, c); err != nil {
		return nil, err
	}
	return &Thread{Consultation: c, Messages: messages}, nil
}

// Reply appends a message on behalf of the actor and, when a doctor
// replies, emails the patient on a detached context.
func (s *Service) Reply(ctx context.Context, actor auth.Actor, id uuid.UUID, body string) (*Message, error) {
	c, err := s.threads.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, c); err != nil {
		return nil, err
	}

	m, err := s.threads.Append(ctx, id, actor, body)
	if err != nil {
		return nil, err
	}
	if actor.IsDoctor() {
		go s.notifyReply(actor, c)
	}
	return m, nil
}

func (s *Service) notifyReply(actor auth.Actor, c *Consultation) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	p, err := s.profiles.Get(ctx, c.PatientID)
	if err != nil || p.Email == nil || *p.Email == "" {
		return
	}
	data := map[string]string{
		"patient_name": p.DisplayName,
		"doctor_name":  actor.DisplayName,
		"title":        c.Title,
	}
	if _, err := s.notifier.SendFromTemplate(ctx, "new-reply", data, *p.Email); err != nil {
		s.log.Warn().Err(err).Str("consultation_id", c.ID.String()).Msg("reply notification email failed")
	}
}

// Close closes the thread and emails the patient that the consultation
// has ended.
func (s *Service) Close(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Consultation, error) {
	c, err := s.threads.Close(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	go s.notifyClosed(actor, c)
	return c, nil
}

func (s *Service) notifyClosed(actor auth.Actor, c *Consultation) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	p, err := s.profiles.Get(ctx, c.PatientID)
	if err != nil || p.Email == nil || *p.Email == "" {
		return
	}
	data := map[string]string{
		"patient_name": p.DisplayName,
		"doctor_name":  actor.DisplayName,
		"title":        c.Title,
	}
	if _, err := s.notifier.SendFromTemplate(ctx, "consultation-closed", data, *p.Email); err != nil {
		s.log.Warn().Err(err).Str("consultation_id", c.ID.String()).Msg("close notification email failed")
	}
}

// Complete marks the consultation resolved.
func (s *Service) Complete(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Consultation, error) {
	return s.threads.Complete(ctx, id, actor)
}

func (s *Service) authorize(actor auth.Actor, c *Consultation) error {
	if actor.IsAdmin() || actor.IsDoctor() || c.PatientID == actor.ID {
		return nil
	}
	return fmt.Errorf("%w: consultation belongs to another patient", ErrForbidden)
}
