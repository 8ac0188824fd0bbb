package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iudanet/notesync/internal/models"
)

// runList печатает документы активного workspace
func (c *Cli) runList(ctx context.Context) error {
	workspaceID, err := c.activeWorkspace(ctx)
	if err != nil {
		return err
	}

	documents, err := c.docs.List(ctx, workspaceID)
	if err != nil {
		return err
	}

	if len(documents) == 0 {
		fmt.Println("No documents. Run 'notesync new <title>' to create one.")
		return nil
	}

	fmt.Printf("%-45s %-30s %-12s %s\n", "ID", "TITLE", "MODE", "STATUS")
	for _, doc := range documents {
		title := doc.Title
		if len(title) > 30 {
			title = title[:27] + "..."
		}
		fmt.Printf("%-45s %-30s %-12s %s\n", doc.LocalID, title, doc.SyncMode, doc.SyncStatus)
	}
	return nil
}

// runNew создает документ в активном workspace
func (c *Cli) runNew(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: notesync new <title> [--local]")
	}
	title := args[0]

	mode := models.SyncModePendingSync
	for _, arg := range args[1:] {
		if arg == "--local" {
			mode = models.SyncModeLocalOnly
		}
	}

	workspaceID, err := c.activeWorkspace(ctx)
	if err != nil {
		return err
	}

	doc, err := c.docs.Create(ctx, workspaceID, "", title, mode)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s (%s)\n", doc.LocalID, doc.SyncMode)
	return nil
}

// runShow печатает текст документа
func (c *Cli) runShow(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: notesync show <id>")
	}

	text, err := c.docs.Open(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}

// runEdit заменяет текст документа содержимым stdin
func (c *Cli) runEdit(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: notesync edit <id> < file")
	}
	localID := args[0]

	// Гидратация перед правкой: правка поверх загруженного состояния,
	// а не поверх пустого документа
	if _, err := c.docs.Open(ctx, localID); err != nil {
		return err
	}

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	text := strings.TrimRight(string(content), "\n")
	if err := c.docs.SetText(ctx, localID, text); err != nil {
		return err
	}

	fmt.Printf("Saved %s\n", localID)
	return nil
}

// runRename меняет заголовок документа
func (c *Cli) runRename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: notesync rename <id> <title>")
	}

	if err := c.docs.Rename(ctx, args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("Renamed %s\n", args[0])
	return nil
}

// runDelete удаляет документ
func (c *Cli) runDelete(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: notesync delete <id>")
	}

	if err := c.docs.Delete(ctx, args[0]); err != nil {
		return err
	}

	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

// runCloud включает облачную синхронизацию LocalOnly документа
func (c *Cli) runCloud(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: notesync cloud <id>")
	}

	if err := c.docs.EnableCloudSync(ctx, args[0]); err != nil {
		return err
	}

	fmt.Printf("Cloud sync enabled for %s\n", args[0])
	return nil
}
