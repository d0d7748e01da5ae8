package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/Domenick1991/tablebot/internal/bootstrap"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func NewChatCmd(load configLoader) *cobra.Command {
	var (
		conversationID string
		memory         bool
	)
	c := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if memory {
				cfg.Database.Driver = "memory"
				cfg.Redis.Addr = ""
				cfg.Kafka.Brokers = nil
			}
			if conversationID == "" {
				conversationID = uuid.NewString()
			}

			app, err := bootstrap.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "conversation %s, empty line or /quit to exit\n", conversationID)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" || line == "/quit" {
					break
				}
				res := app.Dialogue.HandleUtterance(cmd.Context(), conversationID, line)
				fmt.Fprintln(out, res.Text)
				if res.Reservation != nil {
					fmt.Fprintf(out, "  [reservation #%d %s %s]\n", res.Reservation.ID, res.Reservation.Date, res.Reservation.Time)
				}
				if res.Escalated {
					fmt.Fprintf(out, "  [escalated: %s]\n", strings.Join(res.Analysis.Reasons, ", "))
				}
			}
			fmt.Fprintln(out)
			return scanner.Err()
		},
	}
	c.Flags().StringVar(&conversationID, "conversation", "", "conversation id to continue")
	c.Flags().BoolVar(&memory, "memory", false, "use in-memory storage and skip redis and kafka")
	return c
}
