package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/kafka"
	"github.com/Domenick1991/tablebot/internal/oracle"
	"github.com/Domenick1991/tablebot/internal/repository"
	"github.com/Domenick1991/tablebot/internal/service/availability"
	"github.com/Domenick1991/tablebot/internal/service/booking"
	"github.com/Domenick1991/tablebot/internal/service/confidence"
	"github.com/Domenick1991/tablebot/internal/service/escalation"
	"github.com/Domenick1991/tablebot/internal/service/extractor"
	"github.com/Domenick1991/tablebot/internal/textmatch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	OutcomeBooked    = "booked"
	OutcomeAnswered  = "answered"
	OutcomeEscalated = "escalated"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"

	ReservationCreated     = "created"
	ReservationConflict    = "conflict"
	ReservationUnavailable = "unavailable"

	reasonHumanRequested    = "human_requested"
	reasonRepeatedConfusion = "repeated_confusion"
	reasonStorage           = "storage_failure"

	maxOracleTurns = 10
	confusionTurns = 2
)

var tracer = otel.Tracer("github.com/Domenick1991/tablebot/internal/service/dialogue")

var injectionMarkers = []string{
	"ignore previous instructions", "ignore all previous", "ignore the above",
	"disregard previous", "forget your instructions", "system prompt", "you are now",
	"drop table", "delete from", "<script",
	"игнорируй предыдущие", "забудь инструкции", "забудь все инструкции", "системный промпт",
}

var affirmativeStems = []string{
	"yes", "yeah", "yep", "ok", "okay", "sure", "confirm", "go ahead", "book it",
	"да", "ага", "хорошо", "подтверждаю", "давай", "бронируй",
}

const (
	emptyInputReply  = "Your message was empty. Send your name, phone number and number of guests and I will book a table."
	refusalReply     = "I can only help with table reservations and questions about %s."
	invalidDateReply = "I could not read the date or time of your booking. Please write it like 2026-10-18 at 19:00."
	slotRaceReply    = "The tables I found for %s at %s were just booked by other guests. Please suggest another time and I will check again."
)

type DialogueUseCase interface {
	HandleUtterance(ctx context.Context, conversationID, text string) Result
}

// Recorder receives pipeline measurements.
type Recorder interface {
	Utterance(outcome string, elapsed time.Duration)
	Escalation(kind string)
	Reservation(result string)
	OracleFailure()
}

type nopRecorder struct{}

func (nopRecorder) Utterance(string, time.Duration) {}
func (nopRecorder) Escalation(string)               {}
func (nopRecorder) Reservation(string)              {}
func (nopRecorder) OracleFailure()                  {}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Settings struct {
	HistoryWindow      int
	DefaultTime        string
	MaxInputLength     int
	MaxReserveAttempts int
	Location           *time.Location
}

type Deps struct {
	Conversations repository.ConversationRepository
	Issues        repository.IssueRepository
	Extractor     extractor.Extractor
	Availability  availability.AvailabilityUseCase
	Bookings      booking.BookingUseCase
	Toolbox       *Toolbox
	Oracle        oracle.Oracle
	Scorer        *confidence.Scorer
	Policy        *escalation.Policy
	Restaurant    domain.RestaurantInfo
}

type Result struct {
	Text        string
	Escalated   bool
	Reservation *domain.Reservation
	Analysis    domain.ConfidenceAnalysis
	Draft       domain.BookingDraft
}

type Service struct {
	conversations repository.ConversationRepository
	issues        repository.IssueRepository
	tracker       *Tracker
	availability  availability.AvailabilityUseCase
	bookings      booking.BookingUseCase
	toolbox       *Toolbox
	oracle        oracle.Oracle
	fallback      oracle.Oracle
	scorer        *confidence.Scorer
	policy        *escalation.Policy
	restaurant    domain.RestaurantInfo
	settings      Settings

	producer         Producer
	escalationsTopic string
	metrics          Recorder
	now              func() time.Time
	locks            *keyedMutex
}

type Option func(*Service)

// WithProducer publishes escalation events to topic.
func WithProducer(p Producer, topic string) Option {
	return func(s *Service) {
		s.producer = p
		s.escalationsTopic = topic
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.metrics = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(deps Deps, settings Settings, opts ...Option) *Service {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.MaxReserveAttempts < 1 {
		settings.MaxReserveAttempts = 1
	}

	s := &Service{
		conversations: deps.Conversations,
		issues:        deps.Issues,
		tracker:       NewTracker(deps.Extractor),
		availability:  deps.Availability,
		bookings:      deps.Bookings,
		toolbox:       deps.Toolbox,
		oracle:        deps.Oracle,
		fallback:      oracle.NewCanned(),
		scorer:        deps.Scorer,
		policy:        deps.Policy,
		restaurant:    deps.Restaurant,
		settings:      settings,
		metrics:       nopRecorder{},
		now:           time.Now,
		locks:         newKeyedMutex(),
	}
	if s.oracle == nil {
		s.oracle = s.fallback
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleUtterance answers one user message. Messages of one conversation are
// handled strictly one at a time; every failure still yields a reply.
func (s *Service) HandleUtterance(ctx context.Context, conversationID, text string) Result {
	ctx, span := tracer.Start(ctx, "dialogue.HandleUtterance")
	defer span.End()

	unlock := s.locks.Lock(conversationID)
	defer unlock()

	start := time.Now()
	res, outcome := s.handle(ctx, conversationID, text)
	s.metrics.Utterance(outcome, time.Since(start))

	span.SetAttributes(
		attribute.String("conversation.id", conversationID),
		attribute.String("dialogue.outcome", outcome),
		attribute.Bool("dialogue.escalated", res.Escalated),
		attribute.Float64("dialogue.confidence", res.Analysis.Score),
	)
	return res
}

func (s *Service) handle(ctx context.Context, conversationID, raw string) (Result, string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Result{Text: emptyInputReply}, OutcomeRejected
	}
	text = textmatch.Truncate(text, s.settings.MaxInputLength)
	folded := textmatch.Fold(text)
	if textmatch.AnyStem(folded, injectionMarkers) {
		log.Printf("dialogue: conversation %s: rejected suspicious input", conversationID)
		return Result{Text: fmt.Sprintf(refusalReply, s.restaurantName())}, OutcomeRejected
	}

	history, err := s.conversations.RecentTurns(ctx, conversationID, s.settings.HistoryWindow)
	if err != nil {
		log.Printf("dialogue: conversation %s: load history: %v", conversationID, err)
		s.escalate(ctx, &domain.Issue{
			ConversationID: conversationID,
			UserText:       text,
			Kind:           domain.IssueError,
			Reasons:        []string{reasonStorage},
		})
		return Result{Text: s.policy.Template(escalation.TagError)}, OutcomeError
	}
	var newestID int64
	if len(history) > 0 {
		newestID = history[0].ID
	}

	now := s.now().In(s.settings.Location)
	draft, changed := s.tracker.Observe(conversationID, history, text, now)
	res := Result{Draft: draft}

	if kind, reason := s.detectHandoff(text, history); kind != "" {
		res.Text = s.policy.Template(escalation.TagComplexRequest)
		res.Escalated = true
		res.Analysis = domain.ConfidenceAnalysis{Escalate: true, Reasons: []string{reason}}
		s.escalate(ctx, &domain.Issue{
			ConversationID: conversationID,
			UserText:       text,
			SystemResponse: res.Text,
			Kind:           kind,
			Reasons:        res.Analysis.Reasons,
		})
		s.record(ctx, conversationID, text, &res, newestID)
		return res, OutcomeEscalated
	}

	outcome := OutcomeAnswered
	attempt := draft.Complete() &&
		(changed || extractor.HasBookingIntent(folded) || textmatch.AnyStem(folded, affirmativeStems))
	if attempt {
		reply, conf, err := s.book(ctx, draft, now)
		if err != nil {
			log.Printf("dialogue: conversation %s: booking failed: %v", conversationID, err)
			res.Text = s.policy.Template(escalation.TagError)
			s.escalate(ctx, &domain.Issue{
				ConversationID: conversationID,
				UserText:       text,
				SystemResponse: res.Text,
				Kind:           domain.IssueError,
				Reasons:        []string{reasonStorage},
			})
			s.record(ctx, conversationID, text, &res, newestID)
			return res, OutcomeError
		}
		res.Text = reply
		if conf != nil {
			r := conf.Reservation
			res.Reservation = &r
			outcome = OutcomeBooked
		}
	} else {
		var missing []string
		if extractor.HasBookingIntent(folded) && !draft.Complete() {
			missing = draft.Missing()
		}
		res.Text = s.consult(ctx, history, text, missing, now)
	}

	res.Analysis = s.scorer.Score(text, res.Text)
	if res.Analysis.Escalate {
		original := res.Text
		_, fallback := s.policy.Decide(res.Analysis)
		if res.Reservation != nil {
			res.Text = original + " " + fallback
		} else {
			res.Text = fallback
		}
		res.Escalated = true
		outcome = OutcomeEscalated
		s.escalate(ctx, &domain.Issue{
			ConversationID: conversationID,
			UserText:       text,
			SystemResponse: original,
			Kind:           domain.IssueLowConfidence,
			Score:          res.Analysis.Score,
			Reasons:        res.Analysis.Reasons,
		})
	}

	s.record(ctx, conversationID, text, &res, newestID)
	return res, outcome
}

// detectHandoff checks for explicit requests for staff and for a guest who
// keeps not understanding the bot.
func (s *Service) detectHandoff(text string, history []domain.ConversationTurn) (domain.IssueKind, string) {
	if s.policy.DetectHumanRequest(text) {
		return domain.IssueHumanRequested, reasonHumanRequested
	}
	recent := []string{text}
	for i := 0; i < len(history) && i < confusionTurns; i++ {
		// bot replies quote questions back ("what time?") and must not count
		recent = append(recent, history[i].UserText)
	}
	if s.policy.DetectRepeatedConfusion(recent) {
		return domain.IssueConfusion, reasonRepeatedConfusion
	}
	return "", ""
}

// book reserves the first free table matching draft. A conflict means another
// guest won the race, so availability is recomputed before the next attempt.
func (s *Service) book(ctx context.Context, draft domain.BookingDraft, now time.Time) (string, *booking.Confirmation, error) {
	d := draft.WithDefaults(now, s.settings.DefaultTime)
	q := availability.Query{Date: d.Date, Time: d.Time, PartySize: d.PartySize, Zone: d.Zone}

	for attempt := 1; attempt <= s.settings.MaxReserveAttempts; attempt++ {
		sugg, err := s.availability.SuggestAlternatives(ctx, q)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				return invalidDateReply, nil, nil
			}
			return "", nil, fmt.Errorf("availability: %w", err)
		}
		if len(sugg.Exact) == 0 {
			s.metrics.Reservation(ReservationUnavailable)
			return describeShortage(q, sugg), nil, nil
		}

		conf, err := s.bookings.Reserve(ctx, booking.ReserveInput{
			TableID:   sugg.Exact[0].ID,
			Name:      d.Name,
			Phone:     d.Phone,
			Date:      d.Date,
			Time:      d.Time,
			PartySize: d.PartySize,
			Notes:     strings.Join(d.SpecialRequests, ", "),
		})
		var conflict *booking.ConflictError
		switch {
		case err == nil:
			s.metrics.Reservation(ReservationCreated)
			return describeConfirmation(conf), conf, nil
		case errors.As(err, &conflict):
			s.metrics.Reservation(ReservationConflict)
			log.Printf("dialogue: table %d taken before commit (attempt %d)", conflict.TableID, attempt)
		case errors.Is(err, domain.ErrInvalidInput):
			return invalidDateReply, nil, nil
		default:
			return "", nil, fmt.Errorf("reserve: %w", err)
		}
	}
	return fmt.Sprintf(slotRaceReply, q.Date, q.Time), nil, nil
}

// consult runs the oracle stage: one call, then at most one read-only tool
// call followed by a second call that sees the tool output.
func (s *Service) consult(ctx context.Context, history []domain.ConversationTurn, text string, missing []string, now time.Time) string {
	req := oracle.Request{
		System:     s.systemPrompt(missing, now),
		History:    oracleHistory(history),
		Prompt:     text,
		Missing:    missing,
		Restaurant: s.restaurant,
	}
	if s.toolbox != nil {
		req.Tools = s.toolbox.Specs()
	}

	reply := s.generate(ctx, req)
	if reply.Call != nil && s.toolbox != nil {
		call := *reply.Call
		req.ToolResult = &oracle.ToolResult{Call: call, Output: s.toolbox.Run(ctx, call, now)}
		reply = s.generate(ctx, req)
	}
	if reply.Call != nil || reply.Text == "" {
		reply, _ = s.fallback.Generate(ctx, req)
	}
	return reply.Text
}

func (s *Service) generate(ctx context.Context, req oracle.Request) oracle.Reply {
	reply, err := s.oracle.Generate(ctx, req)
	if err == nil && (reply.Call != nil || strings.TrimSpace(reply.Text) != "") {
		return reply
	}
	if err == nil {
		err = oracle.ErrEmptyReply
	}
	log.Printf("dialogue: oracle unavailable, using canned reply: %v", err)
	s.metrics.OracleFailure()
	reply, _ = s.fallback.Generate(ctx, req)
	return reply
}

func (s *Service) systemPrompt(missing []string, now time.Time) string {
	r := s.restaurant
	var b strings.Builder
	fmt.Fprintf(&b, "You are the reservation assistant of %s. Address: %s. Phone: %s. Working hours: %s.\n",
		s.restaurantName(), r.Address, r.Phone, r.WorkingHours)
	fmt.Fprintf(&b, "Today is %s, %s.\n", now.Weekday(), now.Format(domain.DateLayout))
	b.WriteString("Reply briefly and politely in the guest's language. ")
	b.WriteString("Use the tools to look up free tables, existing bookings and restaurant details, and never invent availability. ")
	b.WriteString("Tables are reserved automatically once the guest has given a name, phone number and number of guests, so never claim you booked a table yourself.\n")
	if len(missing) > 0 {
		fmt.Fprintf(&b, "To complete the booking, ask the guest for %s.\n", describeMissing(missing))
	}
	return b.String()
}

func (s *Service) restaurantName() string {
	if s.restaurant.Name == "" {
		return "our restaurant"
	}
	return s.restaurant.Name
}

// record appends the turn and moves the tracker past it. A failed append is
// logged and the reply still goes out.
func (s *Service) record(ctx context.Context, conversationID, text string, res *Result, newestID int64) {
	turn := &domain.ConversationTurn{
		ConversationID: conversationID,
		UserText:       text,
		SystemResponse: res.Text,
	}
	if res.Reservation != nil {
		id := res.Reservation.ID
		turn.ReservationID = &id
	}

	seen := newestID
	if err := s.conversations.Append(ctx, turn); err != nil {
		log.Printf("dialogue: conversation %s: append turn: %v", conversationID, err)
	} else {
		seen = turn.ID
	}
	s.tracker.Advance(conversationID, res.Draft, seen, res.Reservation != nil)
}

func (s *Service) escalate(ctx context.Context, issue *domain.Issue) {
	s.metrics.Escalation(string(issue.Kind))
	if err := s.issues.Log(ctx, issue); err != nil {
		log.Printf("dialogue: conversation %s: log issue: %v", issue.ConversationID, err)
	}
	if s.producer == nil || s.escalationsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.escalationsTopic, issue.ConversationID, kafka.NewEscalationEvent(issue)); err != nil {
		log.Printf("dialogue: conversation %s: publish escalation: %v", issue.ConversationID, err)
	}
}

func oracleHistory(history []domain.ConversationTurn) []oracle.Message {
	n := min(len(history), maxOracleTurns)
	msgs := make([]oracle.Message, 0, 2*n)
	for i := n - 1; i >= 0; i-- {
		msgs = append(msgs,
			oracle.Message{Role: oracle.RoleUser, Text: history[i].UserText},
			oracle.Message{Role: oracle.RoleAssistant, Text: history[i].SystemResponse},
		)
	}
	return msgs
}

var _ DialogueUseCase = (*Service)(nil)
