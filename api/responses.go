package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/service/booking"
	"github.com/Domenick1991/tablebot/internal/service/dialogue"
	"github.com/gin-gonic/gin"
)

type tableResponse struct {
	ID          int64  `json:"id"`
	Label       string `json:"label"`
	Capacity    int    `json:"capacity"`
	Zone        string `json:"zone"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

type reservationResponse struct {
	ID        int64  `json:"id"`
	TableID   *int64 `json:"table_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"party_size"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type confidenceResponse struct {
	Score    float64  `json:"score"`
	Escalate bool     `json:"escalate"`
	Reasons  []string `json:"reasons"`
}

type draftResponse struct {
	Name            string   `json:"name,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	PartySize       int      `json:"party_size,omitempty"`
	Date            string   `json:"date,omitempty"`
	Time            string   `json:"time,omitempty"`
	Zone            string   `json:"zone,omitempty"`
	SpecialRequests []string `json:"special_requests,omitempty"`
}

type messageResponse struct {
	ConversationID string               `json:"conversation_id"`
	Text           string               `json:"text"`
	Escalated      bool                 `json:"escalated"`
	Reservation    *reservationResponse `json:"reservation,omitempty"`
	Confidence     confidenceResponse   `json:"confidence"`
	Draft          draftResponse        `json:"draft"`
}

func toTableResponse(t domain.Table) tableResponse {
	return tableResponse{
		ID:          t.ID,
		Label:       t.Label,
		Capacity:    t.Capacity,
		Zone:        string(t.Zone),
		Description: t.Description,
		Status:      string(t.Status),
	}
}

func toTableResponses(tables []domain.Table) []tableResponse {
	out := make([]tableResponse, 0, len(tables))
	for _, t := range tables {
		out = append(out, toTableResponse(t))
	}
	return out
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:        r.ID,
		TableID:   r.TableID,
		Name:      r.CustomerName,
		Phone:     r.CustomerPhone,
		Date:      r.Date,
		Time:      r.Time,
		PartySize: r.PartySize,
		Status:    string(r.Status),
		Notes:     r.Notes,
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func toMessageResponse(conversationID string, res dialogue.Result) messageResponse {
	resp := messageResponse{
		ConversationID: conversationID,
		Text:           res.Text,
		Escalated:      res.Escalated,
		Confidence: confidenceResponse{
			Score:    res.Analysis.Score,
			Escalate: res.Analysis.Escalate,
			Reasons:  res.Analysis.Reasons,
		},
		Draft: draftResponse{
			Name:            res.Draft.Name,
			Phone:           res.Draft.Phone,
			PartySize:       res.Draft.PartySize,
			Date:            res.Draft.Date,
			Time:            res.Draft.Time,
			Zone:            string(res.Draft.Zone),
			SpecialRequests: res.Draft.SpecialRequests,
		},
	}
	if resp.Confidence.Reasons == nil {
		resp.Confidence.Reasons = []string{}
	}
	if res.Reservation != nil {
		r := toReservationResponse(*res.Reservation)
		resp.Reservation = &r
	}
	return resp
}

// abortWithError maps domain errors onto HTTP status codes.
func abortWithError(c *gin.Context, err error) {
	var conflict *booking.ConflictError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &conflict), errors.Is(err, domain.ErrSlotTaken):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
