package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/notesync/internal/client/session"
	"github.com/iudanet/notesync/internal/models"
)

// Время, отведенное на выталкивание очереди перед logout
const logoutDrainTimeout = 30 * time.Second

// runRegister регистрирует нового пользователя
func (c *Cli) runRegister(ctx context.Context) error {
	username, err := readInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password confirmation: %w", err)
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	userID, err := c.session.Register(ctx, username, password)
	if err != nil {
		return err
	}

	fmt.Printf("Registered successfully. User ID: %s\n", userID)
	fmt.Println("Run 'notesync login' to start syncing.")
	return nil
}

// runLogin выполняет вход и запускает reconciliation workspace:
// накопленные offline документы встают в очередь на отправку
func (c *Cli) runLogin(ctx context.Context) error {
	username, err := readInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if err := c.session.Login(ctx, username, password); err != nil {
		return err
	}
	c.monitor.SetOnline(true)

	fmt.Printf("Logged in as %s\n", username)

	workspaceID, err := c.workspaces.Active(ctx)
	if err == nil && workspaceID != "" {
		enqueued, rerr := c.batch.ReconcileWorkspace(ctx, workspaceID, c.queue.Enqueue)
		if rerr != nil {
			fmt.Printf("Warning: workspace reconciliation failed: %v\n", rerr)
		} else if enqueued > 0 {
			fmt.Printf("Queued %d offline document(s) for upload\n", enqueued)
		}
	}

	return nil
}

// runLogout завершает сессию.
// Неотправленная очередь — это реальная работа пользователя: сначала
// пробуем дослать, остаток теряется только после явного подтверждения.
func (c *Cli) runLogout(ctx context.Context) error {
	pending, err := c.queue.PendingForUser(ctx)
	if err != nil {
		return fmt.Errorf("count pending changes: %w", err)
	}

	if pending > 0 && c.monitor.IsOnline() {
		fmt.Printf("Pushing %d unsynced change(s) before logout...\n", pending)
		if err := c.queue.DrainWorkspace(ctx, "", logoutDrainTimeout); err != nil {
			fmt.Printf("Warning: drain failed: %v\n", err)
		}

		pending, err = c.queue.PendingForUser(ctx)
		if err != nil {
			return fmt.Errorf("count pending changes: %w", err)
		}
	}

	if pending > 0 {
		fmt.Printf("%d change(s) could not be synced and will be LOST on logout.\n", pending)
		answer, err := readInput("Logout anyway? [y/N]: ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.ToLower(answer) != "y" && strings.ToLower(answer) != "yes" {
			fmt.Println("Logout cancelled.")
			return nil
		}

		if err := c.queue.ClearQueue(ctx); err != nil {
			return fmt.Errorf("clear queue: %w", err)
		}
	}

	if err := c.session.Logout(ctx); err != nil {
		return err
	}

	fmt.Println("Logged out.")
	return nil
}

// runStatus печатает состояние сессии, сети и очереди
func (c *Cli) runStatus(ctx context.Context) error {
	current, err := c.session.Current(ctx)
	switch {
	case errors.Is(err, session.ErrNotLoggedIn):
		fmt.Println("Session:   not logged in")
	case err != nil:
		return err
	case current.IsExpired():
		fmt.Printf("Session:   %s (expired, login again)\n", current.Username)
	default:
		fmt.Printf("Session:   %s @ %s\n", current.Username, current.ServerURL)
	}

	if c.monitor.IsOnline() {
		fmt.Printf("Network:   online (%s)\n", c.monitor.Activity())
	} else {
		fmt.Println("Network:   offline")
	}

	pending, err := c.queue.PendingForUser(ctx)
	if err != nil {
		return fmt.Errorf("count pending changes: %w", err)
	}
	fmt.Printf("Queue:     %d pending change(s)\n", pending)

	conflicts, err := c.detector.List(ctx)
	if err != nil {
		return fmt.Errorf("list conflicts: %w", err)
	}
	fmt.Printf("Conflicts: %d unresolved\n", len(conflicts))

	workspaceID, err := c.workspaces.Active(ctx)
	if err == nil && workspaceID != "" {
		status, serr := c.queue.WorkspaceStatus(ctx, workspaceID)
		if serr != nil {
			return serr
		}
		if status == "" {
			status = models.SyncStatusLocal
		}
		fmt.Printf("Workspace: %s (%s)\n", workspaceID, status)
	}

	return nil
}
