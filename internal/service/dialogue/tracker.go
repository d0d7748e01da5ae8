package dialogue

import (
	"sync"
	"time"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/service/extractor"
)

type trackedDraft struct {
	draft domain.BookingDraft
	// lastTurnID is the newest stored turn already folded into draft.
	lastTurnID int64
}

// Tracker keeps an explicit booking draft per conversation. The turn log stays
// authoritative: whenever the newest stored turn is not the one the tracker saw
// last, the draft is rebuilt from history.
type Tracker struct {
	extractor extractor.Extractor

	mu     sync.Mutex
	drafts map[string]trackedDraft
}

func NewTracker(ex extractor.Extractor) *Tracker {
	return &Tracker{extractor: ex, drafts: make(map[string]trackedDraft)}
}

// Observe returns the draft after utterance and whether it differs from the
// draft before it. history is newest first and excludes utterance.
func (t *Tracker) Observe(conversationID string, history []domain.ConversationTurn, utterance string, now time.Time) (domain.BookingDraft, bool) {
	t.mu.Lock()
	entry, warm := t.drafts[conversationID]
	t.mu.Unlock()

	var newestID int64
	if len(history) > 0 {
		newestID = history[0].ID
	}

	before := entry.draft
	if !warm || entry.lastTurnID != newestID {
		before = t.rebuild(history, now)
	}

	after := t.extractor.Fold(before, utterance, now)
	return after, !after.Equal(before)
}

// Advance records the draft left behind once turnID is the newest stored turn.
// When the turn could not be stored, pass the previous newest id so the
// unsaved utterance still counts. A committed reservation keeps only the guest
// identity so the next booking must be restated.
func (t *Tracker) Advance(conversationID string, draft domain.BookingDraft, turnID int64, committed bool) {
	if committed {
		draft = draft.Identity()
	}
	// zone and requests describe one utterance only
	draft.Zone = ""
	draft.SpecialRequests = nil

	t.mu.Lock()
	defer t.mu.Unlock()
	t.drafts[conversationID] = trackedDraft{draft: draft, lastTurnID: turnID}
}

// Forget drops the cached draft for a conversation.
func (t *Tracker) Forget(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.drafts, conversationID)
}

// rebuild derives the draft from stored user turns. Booking fields stop at the
// newest turn that committed a reservation; identity spans the whole window.
func (t *Tracker) rebuild(history []domain.ConversationTurn, now time.Time) domain.BookingDraft {
	all := make([]string, 0, len(history))
	var fresh []string
	committed := false
	for _, turn := range history {
		if turn.ReservationID != nil {
			committed = true
		}
		all = append(all, turn.UserText)
		if !committed {
			fresh = append(fresh, turn.UserText)
		}
	}

	identity := t.extractor.Extract(all, now).Identity()
	draft := identity.Merge(t.extractor.Extract(fresh, now))
	draft.Zone = ""
	draft.SpecialRequests = nil
	return draft
}
