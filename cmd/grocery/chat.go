package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xndadelin/Grosharing/internal/chat"
	"github.com/xndadelin/Grosharing/internal/model"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Follow the house chat; lines typed on stdin are sent",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

var chatSendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one chat message",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatSend,
}

func init() {
	chatCmd.AddCommand(chatSendCmd)
}

func houseID(ctx context.Context) (int64, error) {
	if err := requireHouse(); err != nil {
		return 0, err
	}
	h, err := newClient().GetHouse(ctx, houseName)
	if err != nil {
		return 0, err
	}
	return h.ID, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := houseID(ctx)
	if err != nil {
		return err
	}

	names := make(map[string]string)
	neighbors, err := newClient().ListNeighbors(ctx, houseName)
	if err != nil {
		logger.Warn("list neighbors", "error", err)
	}
	for _, n := range neighbors {
		names[n.SlackID] = n.FullName
	}

	out := cmd.OutOrStdout()
	syncer := chat.NewSynchronizer(newClient(), logger.With("component", "chat"))
	err = syncer.Subscribe(ctx, id, func(m model.ChatMessage) {
		who := names[m.UserID]
		if who == "" {
			who = m.UserID
		}
		fmt.Fprintf(out, "%s  %s: %s\n", m.CreatedAt.Local().Format("Jan 2 15:04"), who, m.Content)
	})
	if err != nil {
		return err
	}
	defer syncer.Unsubscribe()

	lines := make(chan string)
	go readLines(cmd.InOrStdin(), lines)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if _, err := syncer.Send(ctx, line); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "send:", err)
			}
		}
	}
}

func readLines(r io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}

func runChatSend(cmd *cobra.Command, args []string) error {
	id, err := houseID(cmd.Context())
	if err != nil {
		return err
	}
	syncer := chat.NewSynchronizer(newClient(), logger.With("component", "chat"))
	if err := syncer.Subscribe(cmd.Context(), id, nil); err != nil {
		return err
	}
	defer syncer.Unsubscribe()

	msg, err := syncer.Send(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent message %d\n", msg.ID)
	return nil
}
