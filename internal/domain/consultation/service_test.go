package consultation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/ariesclinic/consult/internal/domain/doctor"
	"github.com/ariesclinic/consult/internal/domain/profile"
	"github.com/ariesclinic/consult/internal/platform/auth"
	"github.com/ariesclinic/consult/internal/platform/notification"
	"github.com/ariesclinic/consult/internal/platform/payment"
	"github.com/ariesclinic/consult/pkg/pagination"
)

type memDoctorRepo struct {
	doctors map[uuid.UUID]*doctor.Doctor
}

func (m *memDoctorRepo) List(_ context.Context, p pagination.Params) ([]doctor.Doctor, int, error) {
	out := make([]doctor.Doctor, 0, len(m.doctors))
	for _, d := range m.doctors {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (m *memDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

type memProfileRepo struct {
	profiles map[string]*profile.Profile
}

func (m *memProfileRepo) Upsert(_ context.Context, p *profile.Profile) error {
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *memProfileRepo) GetByUserID(_ context.Context, userID string) (*profile.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

type fixture struct {
	svc      *Service
	repo     *memRepo
	store    *memStore
	doctors  *memDoctorRepo
	profiles *memProfileRepo
	doctorID uuid.UUID
	verify   *payment.VerifierFunc
}

func newFixture() *fixture {
	repo, store := newMemRepo(), newMemStore()
	whatsapp := "+919876543210"
	doctorID := uuid.New()
	doctors := &memDoctorRepo{doctors: map[uuid.UUID]*doctor.Doctor{
		doctorID: {ID: doctorID, DisplayName: "Dr. Leela Menon", Specialization: "Obstetrics & Gynaecology", WhatsApp: &whatsapp, Active: true},
	}}
	profiles := &memProfileRepo{profiles: make(map[string]*profile.Profile)}

	verify := payment.VerifierFunc(func(context.Context, string) error { return nil })
	f := &fixture{
		repo:     repo,
		store:    store,
		doctors:  doctors,
		profiles: profiles,
		doctorID: doctorID,
		verify:   &verify,
	}

	notifier := notification.NewManager(
		&notification.MockEmailSender{},
		&notification.MockWhatsAppSender{SID: "SM123"},
		notification.NewTemplateEngine(),
	)
	f.svc = NewService(
		repo,
		newThreadManager(repo, store),
		doctor.NewService(doctors),
		profile.NewService(profiles),
		payment.VerifierFunc(func(ctx context.Context, ref string) error { return (*f.verify)(ctx, ref) }),
		notifier,
		nil,
		zerolog.Nop(),
	)
	return f
}

func validBooking(doctorID uuid.UUID) BookingRequest {
	return BookingRequest{
		Title:            "Irregular periods",
		Description:      "2 months",
		DoctorID:         doctorID,
		PaymentReference: "pay_123",
	}
}

func TestBook_CreatesPendingConsultation(t *testing.T) {
	f := newFixture()

	c, err := f.svc.Book(context.Background(), patient, validBooking(f.doctorID))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if c.Status != StatusPending {
		t.Errorf("status = %q, want pending", c.Status)
	}
	if c.PaymentReference != "pay_123" {
		t.Errorf("payment reference = %q, want pay_123", c.PaymentReference)
	}
	if c.PatientID != patient.ID {
		t.Errorf("patient id = %q, want %q", c.PatientID, patient.ID)
	}
	if _, ok := f.profiles.profiles[patient.ID]; !ok {
		t.Error("booking should upsert the patient profile")
	}
}

func TestBook_EmptyTitle(t *testing.T) {
	f := newFixture()

	req := validBooking(f.doctorID)
	req.Title = "   "
	if _, err := f.svc.Book(context.Background(), patient, req); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if len(f.repo.consultations) != 0 {
		t.Error("invalid booking must not insert a consultation")
	}
}

func TestBook_UnknownDoctor(t *testing.T) {
	f := newFixture()

	req := validBooking(uuid.New())
	if _, err := f.svc.Book(context.Background(), patient, req); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBook_PaymentRejected(t *testing.T) {
	f := newFixture()
	*f.verify = func(context.Context, string) error {
		return fmt.Errorf("%w: payment not captured", payment.ErrRejected)
	}

	if _, err := f.svc.Book(context.Background(), patient, validBooking(f.doctorID)); !errors.Is(err, ErrPaymentRejected) {
		t.Errorf("expected ErrPaymentRejected, got %v", err)
	}
	if len(f.repo.consultations) != 0 {
		t.Error("rejected payment must not insert a consultation")
	}
}

func TestBook_NotificationFailureDoesNotFailBooking(t *testing.T) {
	repo, store := newMemRepo(), newMemStore()
	doctorID := uuid.New()
	whatsapp := "+919876543210"
	doctors := &memDoctorRepo{doctors: map[uuid.UUID]*doctor.Doctor{
		doctorID: {ID: doctorID, DisplayName: "Dr. Leela Menon", WhatsApp: &whatsapp, Active: true},
	}}
	profiles := &memProfileRepo{profiles: make(map[string]*profile.Profile)}
	notifier := notification.NewManager(
		&notification.MockEmailSender{ShouldFail: true},
		&notification.MockWhatsAppSender{ShouldFail: true},
		notification.NewTemplateEngine(),
	)
	svc := NewService(repo, newThreadManager(repo, store),
		doctor.NewService(doctors), profile.NewService(profiles),
		payment.NoopVerifier(), notifier, nil, zerolog.Nop())

	actor := patient
	actor.Email = "asha@example.com"
	c, err := svc.Book(context.Background(), actor, validBooking(doctorID))
	if err != nil {
		t.Fatalf("Book must succeed despite gateway failures: %v", err)
	}
	if c.Status != StatusPending {
		t.Errorf("status = %q, want pending", c.Status)
	}
}

func TestList_OwnConsultationsOnly(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Book(context.Background(), patient, validBooking(f.doctorID)); err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	other := auth.Actor{ID: "user_pat2", DisplayName: "Maya", Role: auth.RolePatient}
	if _, err := f.svc.Book(context.Background(), other, validBooking(f.doctorID)); err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	p := pagination.Params{Limit: 20}
	mine, total, err := f.svc.List(context.Background(), patient, p)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(mine) != 1 || mine[0].PatientID != patient.ID {
		t.Errorf("patient list: total=%d len=%d, want own single consultation", total, len(mine))
	}

	all, total, err := f.svc.List(context.Background(), admin, p)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("admin list: total=%d len=%d, want 2", total, len(all))
	}
}

func TestGet_ForbiddenForOtherPatient(t *testing.T) {
	f := newFixture()

	c, err := f.svc.Book(context.Background(), patient, validBooking(f.doctorID))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	other := auth.Actor{ID: "user_pat2", Role: auth.RolePatient}
	if _, err := f.svc.Get(context.Background(), other, c.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), doc, c.ID); err != nil {
		t.Errorf("doctor should read any consultation, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), patient, c.ID); err != nil {
		t.Errorf("owner should read own consultation, got %v", err)
	}
}

func TestReply_ForbiddenForOtherPatient(t *testing.T) {
	f := newFixture()

	c, err := f.svc.Book(context.Background(), patient, validBooking(f.doctorID))
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	other := auth.Actor{ID: "user_pat2", Role: auth.RolePatient}
	if _, err := f.svc.Reply(context.Background(), other, c.ID, "hello"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}
