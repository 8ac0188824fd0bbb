package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/notesync/internal/models"
)

// runConflicts печатает неразрешенные конфликты
func (c *Cli) runConflicts(ctx context.Context) error {
	conflicts, err := c.detector.List(ctx)
	if err != nil {
		return err
	}

	if len(conflicts) == 0 {
		fmt.Println("No unresolved conflicts.")
		return nil
	}

	for _, conflict := range conflicts {
		fmt.Printf("Conflict %s (%s)\n", conflict.ID, conflict.Kind)
		fmt.Printf("  Entity:  %s\n", conflict.EntityID)
		fmt.Printf("  Local:   v%d %q (updated %s)\n",
			conflict.Local.Version, conflict.Local.Title, conflict.Local.UpdatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Remote:  v%d %q (updated %s)\n",
			conflict.Remote.Version, conflict.Remote.Title, conflict.Remote.UpdatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Resolve: notesync resolve %s local|remote\n", conflict.ID)
		fmt.Println()
	}
	return nil
}

// runResolve разрешает конфликт выбором пользователя
func (c *Cli) runResolve(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: notesync resolve <conflict-id> <local|remote>")
	}

	var choice models.ConflictChoice
	switch args[1] {
	case "local":
		choice = models.ChoiceLocal
	case "remote":
		choice = models.ChoiceRemote
	default:
		return fmt.Errorf("choice must be 'local' or 'remote', got %q", args[1])
	}

	if err := c.resolver.Resolve(ctx, args[0], choice); err != nil {
		return err
	}

	fmt.Printf("Conflict %s resolved (%s)\n", args[0], choice)
	if choice == models.ChoiceLocal {
		fmt.Println("Local version queued for upload, run 'notesync sync' to push.")
	}
	return nil
}
