package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/notesync/internal/client/netmon"
	"github.com/iudanet/notesync/internal/client/syncqueue"
)

// Параметры длительной сессии
const (
	editDebounce    = 2 * time.Second
	pingInterval    = 30 * time.Second
	idleAfter       = 2 * time.Minute
	backgroundAfter = 10 * time.Minute
)

// runWatch запускает длительную сессию синхронизации: планировщик
// очереди работает в фоне, сетевая доступность перепроверяется
// периодически. С id документа строки stdin становятся правками:
// каждая строка дописывается к тексту, в очередь правка встает
// один раз на паузу в наборе, а не на каждую строку.
func (c *Cli) runWatch(ctx context.Context, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Протухшие записи чистятся на старте, дальше чистка идет
	// по таймеру планировщика
	if err := c.queue.CleanupStale(ctx); err != nil {
		return fmt.Errorf("cleanup stale changes: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- c.queue.Run(ctx) }()
	go c.watchNetwork(ctx)

	var editErr error
	if len(args) > 0 {
		editErr = c.watchEdit(ctx, args[0])
	} else {
		// Без документа процесс — фоновый демон синхронизации
		c.monitor.SetActivity(netmon.ActivityBackground)
		fmt.Println("Watching queue, Ctrl-C to stop.")
		<-ctx.Done()
	}

	stop()
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return editErr
}

// watchNetwork периодически перепроверяет доступность сервера,
// чтобы переход offline→online запускал выталкивание очереди
func (c *Cli) watchNetwork(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.monitor.SetOnline(c.ping(ctx) == nil)
		}
	}
}

// watchEdit читает строки stdin как правки документа
func (c *Cli) watchEdit(ctx context.Context, id string) error {
	text, err := c.docs.Open(ctx, id)
	if err != nil {
		return err
	}

	debouncer := syncqueue.NewDebouncer(editDebounce)
	defer debouncer.Flush()

	// Пауза в наборе понижает уровень активности, и интервал фоновых
	// проходов растягивается вслед за ним
	idle := time.AfterFunc(idleAfter, func() { c.monitor.SetActivity(netmon.ActivityIdle) })
	defer idle.Stop()
	background := time.AfterFunc(backgroundAfter, func() { c.monitor.SetActivity(netmon.ActivityBackground) })
	defer background.Stop()

	fmt.Printf("Editing %s, every line is appended. Ctrl-D to finish.\n", id)

	edited := false
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		edited = true
		if text != "" {
			text += "\n"
		}
		text += scanner.Text()

		c.monitor.SetActivity(netmon.ActivityActive)
		idle.Reset(idleAfter)
		background.Reset(backgroundAfter)

		current := text
		debouncer.Debounce(id, func() {
			if err := c.docs.SetText(ctx, id, current); err != nil {
				fmt.Fprintf(os.Stderr, "Save failed: %v\n", err)
			}
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	if !edited {
		return nil
	}

	// Финальное сохранение без ожидания паузы: дальше ждать нечего
	debouncer.Flush()
	if err := c.docs.SetText(ctx, id, text); err != nil {
		return err
	}
	return nil
}
