package concierge_service_api

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/service/dialogue"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server exposes the dialogue pipeline over gRPC.
type Server struct {
	dialogue dialogue.DialogueUseCase
}

func NewServer(d dialogue.DialogueUseCase) *Server {
	return &Server{dialogue: d}
}

func (s *Server) HandleUtterance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	conversationID := strings.TrimSpace(fields["conversation_id"].GetStringValue())
	if conversationID == "" {
		return nil, status.Error(codes.InvalidArgument, "conversation_id is required")
	}

	res := s.dialogue.HandleUtterance(ctx, conversationID, fields["text"].GetStringValue())

	out, err := structpb.NewStruct(toPBResult(conversationID, res))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return out, nil
}

func toPBResult(conversationID string, res dialogue.Result) map[string]interface{} {
	reasons := make([]interface{}, 0, len(res.Analysis.Reasons))
	for _, r := range res.Analysis.Reasons {
		reasons = append(reasons, r)
	}
	out := map[string]interface{}{
		"conversation_id": conversationID,
		"text":            res.Text,
		"escalated":       res.Escalated,
		"confidence": map[string]interface{}{
			"score":    res.Analysis.Score,
			"escalate": res.Analysis.Escalate,
			"reasons":  reasons,
		},
	}
	if res.Reservation != nil {
		out["reservation"] = toPBReservation(*res.Reservation)
	}
	return out
}

func toPBReservation(r domain.Reservation) map[string]interface{} {
	out := map[string]interface{}{
		"id":         r.ID,
		"name":       r.CustomerName,
		"phone":      r.CustomerPhone,
		"date":       r.Date,
		"time":       r.Time,
		"party_size": r.PartySize,
		"status":     string(r.Status),
		"notes":      r.Notes,
	}
	if r.TableID != nil {
		out["table_id"] = *r.TableID
	}
	if !r.CreatedAt.IsZero() {
		out["created_at"] = r.CreatedAt.Format(time.RFC3339)
	}
	return out
}

var _ ConciergeServer = (*Server)(nil)
