package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/notesync/internal/client/collab"
)

// runCollab подключает live-сессию совместного редактирования.
// Приходящие от других участников снапшоты вливаются в документ
// merge'ем, каждая строка stdin дописывается к тексту и уходит
// остальным участникам сразу.
func (c *Cli) runCollab(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: notesync collab <id>")
	}
	id := args[0]

	doc, err := c.docs.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.RemoteID == "" {
		return fmt.Errorf("document is not synced yet, run 'notesync sync' first")
	}

	token, err := c.session.Token(ctx)
	if err != nil {
		return err
	}

	// Гидратация до подключения: пока сессия жива, снапшоты закрыты
	if _, err := c.docs.Open(ctx, id); err != nil {
		return err
	}

	wsURL := strings.Replace(c.serverURL, "http", "ws", 1) + "/api/v1/ws/documents/" + doc.RemoteID
	sess, err := collab.Dial(ctx, wsURL, token, id, c.engine, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			c.logger.Debug("Session close", "error", err)
		}
	}()

	fmt.Printf("Live session on %s, every line is appended. Ctrl-D to leave.\n", id)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-sess.Done():
			fmt.Println("Session closed by server.")
			return nil

		case line, ok := <-lines:
			if !ok {
				return nil
			}

			text := c.engine.Text(id)
			if text != "" {
				text += "\n"
			}
			if err := c.docs.SetText(ctx, id, text+line); err != nil {
				return err
			}
			if err := sess.SendUpdate(); err != nil {
				return err
			}
		}
	}
}
