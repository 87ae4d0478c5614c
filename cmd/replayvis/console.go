package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/dispatcher"
	"github.com/loganintech/rl-replay-zone-visualizer/internal/driver"
)

// registerControls binds playback commands to the driver.
func registerControls(d *dispatcher.Dispatcher, play *driver.Driver) {
	d.Register("pause", func(e dispatcher.Event) (any, error) {
		play.TogglePause()
		return "ok", nil
	}, dispatcher.Logged())

	d.Register("seek", func(e dispatcher.Event) (any, error) {
		if len(e.Args) == 0 {
			return nil, fmt.Errorf("seek requires a signed frame offset")
		}
		offset, err := strconv.Atoi(e.Args[0])
		if err != nil {
			return nil, fmt.Errorf("bad seek offset %q: %w", e.Args[0], err)
		}
		play.Seek(offset)
		return "ok", nil
	}, dispatcher.Logged())

	d.Register("fwd", func(e dispatcher.Event) (any, error) {
		play.SeekForward()
		return "ok", nil
	})

	d.Register("back", func(e dispatcher.Event) (any, error) {
		play.SeekBackward()
		return "ok", nil
	})

	d.Register("faster", func(e dispatcher.Event) (any, error) {
		play.Faster()
		return "ok", nil
	})

	d.Register("slower", func(e dispatcher.Event) (any, error) {
		play.Slower()
		return "ok", nil
	})

	d.Register("status", func(e dispatcher.Event) (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		st, err := play.Status(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(st)
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	}, dispatcher.Logged())
}

// runConsole reads control commands from stdin until ctx is cancelled or
// stdin closes. One command per line, arguments space-separated.
func runConsole(ctx context.Context, d *dispatcher.Dispatcher, logger *slog.Logger) {
	fmt.Println("commands: pause | seek <±frames> | fwd | back | faster | slower | status | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		command := strings.ToLower(fields[0])

		if command == "quit" || command == "exit" {
			// Let the signal handler path shut everything down in order.
			p, err := os.FindProcess(os.Getpid())
			if err == nil {
				_ = p.Signal(os.Interrupt)
			}
			return
		}

		result, err := d.Dispatch(dispatcher.Event{
			Command:   command,
			Args:      fields[1:],
			Timestamp: time.Now(),
		})
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if s, ok := result.(string); ok && s != "ok" {
			fmt.Println(s)
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Warn("Console read error", "error", err)
	}
}
