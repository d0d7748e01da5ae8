package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/kafka"
	"github.com/Domenick1991/tablebot/internal/repository"
)

const findByPhoneLimit = 10

type BookingUseCase interface {
	Reserve(ctx context.Context, input ReserveInput) (*Confirmation, error)
	Confirm(ctx context.Context, id int64) (bool, error)
	Cancel(ctx context.Context, id int64, reason string) (bool, error)
	Amend(ctx context.Context, id int64, input AmendInput) (bool, error)
	FindByPhone(ctx context.Context, phone string) ([]domain.Reservation, error)
}

type TableLookup interface {
	Get(ctx context.Context, id int64) (*domain.Table, error)
}

type SlotLocker interface {
	AcquireSlotLock(ctx context.Context, slot domain.Slot, ttl time.Duration) (bool, error)
	ReleaseSlotLock(ctx context.Context, slot domain.Slot) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type ReserveInput struct {
	TableID   int64  `json:"table_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"party_size"`
	Notes     string `json:"notes"`
}

type AmendInput struct {
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	PartySize *int    `json:"party_size"`
}

type Confirmation struct {
	Reservation domain.Reservation
	Table       domain.Table
}

// ConflictError reports that the chosen table was claimed between selection
// and commit. Callers should pick another candidate rather than retry.
type ConflictError struct {
	TableID int64
	Date    string
	Time    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("table %d is no longer free on %s at %s", e.TableID, e.Date, e.Time)
}

func (e *ConflictError) Is(target error) bool {
	return target == domain.ErrSlotTaken
}

type BookingService struct {
	reservations       repository.ReservationRepository
	tables             TableLookup
	locker             SlotLocker
	producer           Producer
	reservationsTopic  string
	notificationsTopic string
	lockTTL            time.Duration
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithSlotLocker adds a distributed pre-lock in front of the repository's atomic insert.
func WithSlotLocker(locker SlotLocker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func NewBookingService(
	reservations repository.ReservationRepository,
	tables TableLookup,
	producer Producer,
	reservationsTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		reservations:      reservations,
		tables:            tables,
		producer:          producer,
		reservationsTopic: reservationsTopic,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) Reserve(ctx context.Context, input ReserveInput) (*Confirmation, error) {
	if err := validateReserve(input); err != nil {
		return nil, err
	}

	table, err := s.tables.Get(ctx, input.TableID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: table %d does not exist", domain.ErrInvalidInput, input.TableID)
		}
		return nil, err
	}
	if !table.Active() {
		return nil, fmt.Errorf("%w: table %s is retired", domain.ErrInvalidInput, table.Label)
	}
	if !table.Fits(input.PartySize) {
		return nil, fmt.Errorf("%w: table %s seats %d, party is %d", domain.ErrInvalidInput, table.Label, table.Capacity, input.PartySize)
	}

	slot := domain.Slot{TableID: input.TableID, Date: input.Date, Time: input.Time}
	conflict := &ConflictError{TableID: slot.TableID, Date: slot.Date, Time: slot.Time}

	if s.locker != nil {
		ok, err := s.locker.AcquireSlotLock(ctx, slot, s.lockTTL)
		switch {
		case err != nil:
			// the repository insert is atomic on its own
			log.Printf("booking: slot lock unavailable, relying on storage: %v", err)
		case !ok:
			return nil, conflict
		default:
			defer func() {
				if err := s.locker.ReleaseSlotLock(ctx, slot); err != nil {
					log.Printf("booking: release slot lock: %v", err)
				}
			}()
		}
	}

	tableID := input.TableID
	res := &domain.Reservation{
		TableID:       &tableID,
		CustomerName:  strings.TrimSpace(input.Name),
		CustomerPhone: input.Phone,
		Date:          input.Date,
		Time:          input.Time,
		PartySize:     input.PartySize,
		Notes:         input.Notes,
	}
	if err := s.reservations.CreateIfFree(ctx, res); err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			return nil, conflict
		}
		return nil, err
	}

	s.publish(ctx, kafka.EventReservationCreated, res)
	return &Confirmation{Reservation: *res, Table: *table}, nil
}

// Confirm moves a new reservation to confirmed. It reports false when the
// reservation does not exist or is not new.
func (s *BookingService) Confirm(ctx context.Context, id int64) (bool, error) {
	current, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if current.Status != domain.ReservationStatusNew {
		return false, nil
	}

	updated, err := s.reservations.UpdateStatus(ctx, id, domain.ReservationStatusConfirmed, "")
	if err != nil {
		return false, err
	}
	s.publish(ctx, kafka.EventReservationConfirmed, updated)
	return true, nil
}

// Cancel soft-deletes a reservation, appending the reason to its notes.
func (s *BookingService) Cancel(ctx context.Context, id int64, reason string) (bool, error) {
	current, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !current.Active() {
		return false, nil
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "cancelled at guest request"
	}
	updated, err := s.reservations.UpdateStatus(ctx, id, domain.ReservationStatusCancelled, " | CANCELLED: "+reason)
	if err != nil {
		return false, err
	}
	s.publish(ctx, kafka.EventReservationCancelled, updated)
	return true, nil
}

// Amend applies partial date, time or party size changes. Occupancy is not
// re-checked here; storage still rejects a change onto an active slot.
func (s *BookingService) Amend(ctx context.Context, id int64, input AmendInput) (bool, error) {
	if input.Date != nil && !domain.ValidDate(*input.Date) {
		return false, fmt.Errorf("%w: date %q", domain.ErrInvalidInput, *input.Date)
	}
	if input.Time != nil && !domain.ValidTime(*input.Time) {
		return false, fmt.Errorf("%w: time %q", domain.ErrInvalidInput, *input.Time)
	}
	if input.PartySize != nil && *input.PartySize < 1 {
		return false, fmt.Errorf("%w: party size %d", domain.ErrInvalidInput, *input.PartySize)
	}

	patch := repository.ReservationPatch{Date: input.Date, Time: input.Time, PartySize: input.PartySize}
	if patch.Empty() {
		return false, nil
	}

	updated, err := s.reservations.Amend(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	s.publish(ctx, kafka.EventReservationAmended, updated)
	return true, nil
}

func (s *BookingService) FindByPhone(ctx context.Context, phone string) ([]domain.Reservation, error) {
	phone = digitsOnly(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", domain.ErrInvalidInput)
	}
	return s.reservations.FindByPhone(ctx, phone, findByPhoneLimit)
}

func validateReserve(in ReserveInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case in.Phone == "":
		return fmt.Errorf("%w: phone is required", domain.ErrInvalidInput)
	case in.PartySize < 1:
		return fmt.Errorf("%w: party size must be positive", domain.ErrInvalidInput)
	case !domain.ValidDate(in.Date):
		return fmt.Errorf("%w: date %q", domain.ErrInvalidInput, in.Date)
	case !domain.ValidTime(in.Time):
		return fmt.Errorf("%w: time %q", domain.ErrInvalidInput, in.Time)
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// publish is best effort: a committed reservation stands even if the event is lost.
func (s *BookingService) publish(ctx context.Context, eventType string, r *domain.Reservation) {
	if s.producer == nil || s.reservationsTopic == "" {
		return
	}
	event := kafka.NewReservationEvent(eventType, r)
	key := fmt.Sprintf("%d", r.ID)
	if err := s.producer.Publish(ctx, s.reservationsTopic, key, event); err != nil {
		log.Printf("booking: publish %s for reservation %d: %v", eventType, r.ID, err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			log.Printf("booking: publish notification %s for reservation %d: %v", eventType, r.ID, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
