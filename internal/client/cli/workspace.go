package cli

import (
	"context"
	"fmt"
)

// runWorkspace обрабатывает подкоманды workspace
func (c *Cli) runWorkspace(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: notesync workspace <create|list|use> [args]")
	}

	switch args[0] {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("usage: notesync workspace create <name>")
		}
		ws, err := c.workspaces.CreateWorkspace(ctx, args[1])
		if err != nil {
			return err
		}
		if err := c.workspaces.SetActive(ctx, ws.LocalID); err != nil {
			return err
		}
		fmt.Printf("Created workspace %s (now active)\n", ws.LocalID)
		return nil

	case "list":
		list, err := c.workspaces.ListWorkspaces(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No workspaces. Run 'notesync workspace create <name>'.")
			return nil
		}

		active, err := c.workspaces.Active(ctx)
		if err != nil {
			return err
		}
		for _, ws := range list {
			marker := " "
			if ws.LocalID == active {
				marker = "*"
			}
			fmt.Printf("%s %-45s %s\n", marker, ws.LocalID, ws.Name)
		}
		return nil

	case "use":
		if len(args) < 2 {
			return fmt.Errorf("usage: notesync workspace use <id>")
		}
		if err := c.workspaces.SetActive(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("Active workspace: %s\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown workspace subcommand %q", args[0])
	}
}

// runFolder обрабатывает подкоманды folder
func (c *Cli) runFolder(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: notesync folder <create|list|delete> [args]")
	}

	switch args[0] {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("usage: notesync folder create <name>")
		}
		workspaceID, err := c.activeWorkspace(ctx)
		if err != nil {
			return err
		}
		folder, err := c.workspaces.CreateFolder(ctx, workspaceID, "", args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Created folder %s\n", folder.LocalID)
		return nil

	case "list":
		workspaceID, err := c.activeWorkspace(ctx)
		if err != nil {
			return err
		}
		folders, err := c.workspaces.ListFolders(ctx, workspaceID)
		if err != nil {
			return err
		}
		if len(folders) == 0 {
			fmt.Println("No folders.")
			return nil
		}
		for _, folder := range folders {
			fmt.Printf("%-45s %s\n", folder.LocalID, folder.Name)
		}
		return nil

	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: notesync folder delete <id>")
		}
		if err := c.workspaces.DeleteFolder(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted folder %s\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown folder subcommand %q", args[0])
	}
}
