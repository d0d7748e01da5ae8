package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/tablebot/internal/textmatch"
)

var (
	greetingStems = []string{"hello", "hi", "hey", "good evening", "good morning", "привет", "здравствуй", "добрый"}
	hoursStems    = []string{"hours", "open", "close", "when", "работает", "часы", "во сколько", "до скольки"}
	addressStems  = []string{"address", "where", "location", "адрес", "где", "как добраться"}
	contactStems  = []string{"phone", "call", "contact", "телефон", "позвонить"}
	thanksStems   = []string{"thank", "thanks", "спасибо", "благодар"}
)

var slotNames = map[string]string{
	"name":       "your name",
	"phone":      "a contact phone number",
	"party_size": "the number of guests",
}

// Canned answers from fixed rules. It never fails and never asks for tools,
// which makes it the fallback when a real model is unavailable.
type Canned struct{}

func NewCanned() *Canned {
	return &Canned{}
}

func (c *Canned) Generate(_ context.Context, req Request) (Reply, error) {
	info := req.Restaurant
	name := info.Name
	if name == "" {
		name = "our restaurant"
	}
	text := textmatch.Fold(req.Prompt)

	if req.ToolResult != nil {
		if summary, ok := req.ToolResult.Output[SummaryKey].(string); ok && summary != "" {
			return Reply{Text: summary}, nil
		}
	}

	switch {
	case len(req.Missing) > 0:
		return Reply{Text: fmt.Sprintf("Happy to book a table at %s. Please send %s.", name, joinSlots(req.Missing))}, nil
	case textmatch.AnyStem(text, thanksStems):
		return Reply{Text: fmt.Sprintf("You are welcome! We look forward to seeing you at %s.", name)}, nil
	case textmatch.AnyStem(text, hoursStems) && info.WorkingHours != "":
		return Reply{Text: fmt.Sprintf("%s welcomes guests every day, %s.", name, info.WorkingHours)}, nil
	case textmatch.AnyStem(text, addressStems) && info.Address != "":
		return Reply{Text: fmt.Sprintf("You will find %s at %s.", name, info.Address)}, nil
	case textmatch.AnyStem(text, contactStems) && info.Phone != "":
		return Reply{Text: fmt.Sprintf("You can reach %s by phone at %s.", name, info.Phone)}, nil
	case textmatch.AnyStem(text, greetingStems):
		if info.Greeting != "" {
			return Reply{Text: info.Greeting}, nil
		}
		return Reply{Text: fmt.Sprintf("Welcome to %s! I can book a table for you. Tell me your name, phone number and number of guests.", name)}, nil
	}
	return Reply{Text: fmt.Sprintf("I can book a table at %s for you. Send me your name, phone number, number of guests and preferred date and time.", name)}, nil
}

func joinSlots(missing []string) string {
	parts := make([]string, 0, len(missing))
	for _, m := range missing {
		if label, ok := slotNames[m]; ok {
			parts = append(parts, label)
		} else {
			parts = append(parts, m)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
