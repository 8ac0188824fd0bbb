package cli

import (
	"context"
	"flag"
	"fmt"
)

// runSync выполняет немедленный проход обработки очереди.
// С --batch очередь workspace уходит одним пакетным запросом;
// --atomic просит сервер применить пакет целиком или никак.
func (c *Cli) runSync(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("sync", flag.ContinueOnError)
	useBatch := flags.Bool("batch", false, "Push workspace queue as a single batch request")
	atomic := flags.Bool("atomic", false, "All-or-nothing batch (implies --batch)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if !c.monitor.IsOnline() {
		return fmt.Errorf("offline: changes stay queued until network is available")
	}

	pending, err := c.queue.PendingForUser(ctx)
	if err != nil {
		return fmt.Errorf("count pending changes: %w", err)
	}
	if pending == 0 {
		fmt.Println("Nothing to sync.")
		return nil
	}

	if *useBatch || *atomic {
		workspaceID, err := c.activeWorkspace(ctx)
		if err != nil {
			return err
		}
		if err := c.batch.SyncBatch(ctx, workspaceID, *atomic); err != nil {
			return err
		}
	} else {
		if err := c.queue.ProcessQueue(ctx, ""); err != nil {
			return err
		}
	}

	remaining, err := c.queue.PendingForUser(ctx)
	if err != nil {
		return fmt.Errorf("count pending changes: %w", err)
	}

	fmt.Printf("Synced %d change(s), %d remaining\n", pending-remaining, remaining)
	if remaining > 0 {
		fmt.Println("Run 'notesync conflicts' to check for unresolved conflicts.")
	}
	return nil
}
