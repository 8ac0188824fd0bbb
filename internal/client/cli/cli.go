// Package cli реализует команды консольного клиента
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/iudanet/notesync/internal/client/batch"
	"github.com/iudanet/notesync/internal/client/conflict"
	"github.com/iudanet/notesync/internal/client/docs"
	"github.com/iudanet/notesync/internal/client/netmon"
	"github.com/iudanet/notesync/internal/client/session"
	"github.com/iudanet/notesync/internal/client/syncqueue"
	"github.com/iudanet/notesync/internal/client/workspaces"
	"github.com/iudanet/notesync/internal/crdt"
)

// Cli связывает команды консольного клиента с сервисами
type Cli struct {
	session    *session.Service
	docs       *docs.Service
	workspaces *workspaces.Service
	queue      *syncqueue.Manager
	batch      *batch.Coordinator
	detector   *conflict.Detector
	resolver   *conflict.Resolver
	monitor    *netmon.Monitor
	engine     *crdt.Engine
	logger     *slog.Logger
	ping       func(ctx context.Context) error
	serverURL  string
}

// New создает CLI поверх собранных сервисов
func New(
	sessionSvc *session.Service,
	docsSvc *docs.Service,
	workspacesSvc *workspaces.Service,
	queue *syncqueue.Manager,
	batchCoord *batch.Coordinator,
	detector *conflict.Detector,
	resolver *conflict.Resolver,
	monitor *netmon.Monitor,
	engine *crdt.Engine,
	ping func(ctx context.Context) error,
	serverURL string,
	logger *slog.Logger,
) *Cli {
	return &Cli{
		session:    sessionSvc,
		docs:       docsSvc,
		workspaces: workspacesSvc,
		queue:      queue,
		batch:      batchCoord,
		detector:   detector,
		resolver:   resolver,
		monitor:    monitor,
		engine:     engine,
		logger:     logger,
		ping:       ping,
		serverURL:  serverURL,
	}
}

// Run выполняет команду. Ошибки печатаются в stderr, процесс
// завершается с ненулевым кодом.
func (c *Cli) Run(ctx context.Context, command string, args []string) {
	var err error

	switch command {
	case "register":
		err = c.runRegister(ctx)
	case "login":
		err = c.runLogin(ctx)
	case "logout":
		err = c.runLogout(ctx)
	case "status":
		err = c.runStatus(ctx)
	case "sync":
		err = c.runSync(ctx, args)
	case "watch":
		err = c.runWatch(ctx, args)
	case "collab":
		err = c.runCollab(ctx, args)
	case "list":
		err = c.runList(ctx)
	case "new":
		err = c.runNew(ctx, args)
	case "show":
		err = c.runShow(ctx, args)
	case "edit":
		err = c.runEdit(ctx, args)
	case "rename":
		err = c.runRename(ctx, args)
	case "delete":
		err = c.runDelete(ctx, args)
	case "cloud":
		err = c.runCloud(ctx, args)
	case "conflicts":
		err = c.runConflicts(ctx)
	case "resolve":
		err = c.runResolve(ctx, args)
	case "workspace":
		err = c.runWorkspace(ctx, args)
	case "folder":
		err = c.runFolder(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// PrintUsage печатает справку по командам
func PrintUsage() {
	fmt.Println("NoteSync Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  notesync [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version            Show version information")
	fmt.Println("  --server URL         Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH            Path to local database (default: notesync-client.db)")
	fmt.Println("  --offline            Start in offline mode, queue changes without network")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  register                     Register new user")
	fmt.Println("  login                        Login to server")
	fmt.Println("  logout                       Logout (warns about unsynced changes)")
	fmt.Println("  status                       Show session, network and queue status")
	fmt.Println("  sync [--batch] [--atomic]    Push queued changes to server")
	fmt.Println("  watch [id]                   Run background sync; with id, edit document from stdin")
	fmt.Println("  collab <id>                  Join live collaboration session for a synced document")
	fmt.Println("  list                         List documents of active workspace")
	fmt.Println("  new <title>                  Create document in active workspace")
	fmt.Println("  show <id>                    Print document text")
	fmt.Println("  edit <id>                    Replace document text from stdin")
	fmt.Println("  rename <id> <title>          Rename document")
	fmt.Println("  delete <id>                  Delete document")
	fmt.Println("  cloud <id>                   Enable cloud sync for local-only document")
	fmt.Println("  conflicts                    List unresolved conflicts")
	fmt.Println("  resolve <id> <local|remote>  Resolve conflict")
	fmt.Println("  workspace create <name>      Create workspace")
	fmt.Println("  workspace list               List workspaces")
	fmt.Println("  workspace use <id>           Select active workspace")
	fmt.Println("  folder create <name>         Create folder in active workspace")
	fmt.Println("  folder list                  List folders of active workspace")
	fmt.Println("  folder delete <id>           Delete folder")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  notesync register")
	fmt.Println("  notesync login")
	fmt.Println("  notesync workspace create notes")
	fmt.Println("  notesync new 'Meeting notes'")
	fmt.Println("  echo 'first line' | notesync edit document_b692f5c0-...")
	fmt.Println("  notesync --offline new 'Written on a plane'")
	fmt.Println("  notesync sync --batch")
}

// activeWorkspace возвращает выбранный workspace или ошибку с подсказкой
func (c *Cli) activeWorkspace(ctx context.Context) (string, error) {
	workspaceID, err := c.workspaces.Active(ctx)
	if err != nil {
		return "", fmt.Errorf("load active workspace: %w", err)
	}
	if workspaceID == "" {
		return "", fmt.Errorf("no active workspace. Run 'notesync workspace create <name>' or 'notesync workspace use <id>'")
	}
	return workspaceID, nil
}

// readInput читает строку из stdin
func readInput(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// readPassword читает пароль без отображения на экране
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Переход на новую строку после ввода пароля
	if err != nil {
		return "", err
	}
	return string(passwordBytes), nil
}
