package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mindflow/mindflow/internal/engine"
	"github.com/mindflow/mindflow/internal/inference"
	"github.com/mindflow/mindflow/internal/models"
	"github.com/mindflow/mindflow/internal/store"
)

func newChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive counseling session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			audit, err := store.NewAuditStore(cfg.Store.AuditPath)
			if err != nil {
				return err
			}
			defer audit.Close()

			archive, err := store.NewArchive(cfg.Store.ArchiveDir)
			if err != nil {
				return err
			}
			defer archive.Close()

			// The snapshot store is optional; a single-host session works
			// without Redis.
			snapshots, err := store.NewSnapshotStore(cmd.Context(), cfg.Snapshot)
			if err != nil {
				logger.Warn("snapshot store unavailable", zap.Error(err))
				snapshots = nil
			} else {
				defer snapshots.Close()
			}

			eng := engine.New(engine.Config{
				SessionID: sessionID,
				Backend:   inference.NewClient(cfg.Backend),
				Recorder:  audit,
				Logger:    logger,
			})

			return runChatLoop(cmd.Context(), eng, archive, snapshots, sessionID)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "resume or name a session ID (default: random)")
	return cmd
}

func runChatLoop(ctx context.Context, eng *engine.Engine, archive *store.Archive, snapshots *store.SnapshotStore, sessionID string) error {
	fmt.Printf("Session %s started. Type /help for commands.\n\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := handleCommand(eng, archive, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
			if done {
				break
			}
			continue
		}

		result, err := eng.ProcessMessage(ctx, line)
		if err != nil {
			if errors.Is(err, engine.ErrTurnInFlight) {
				fmt.Fprintln(os.Stderr, "A turn is still being processed.")
				continue
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			continue
		}

		fmt.Printf("\n%s\n\n", result.AssistantText)
		fmt.Printf("[stage: %s | emotion: %s/%s | strategy: %s]\n\n",
			eng.CurrentStage(),
			result.Emotion.Category, result.Emotion.Intensity,
			result.Plan.Strategy.Technique.Name)

		if snapshots != nil {
			if err := snapshots.Save(ctx, eng.Snapshot()); err != nil {
				fmt.Fprintln(os.Stderr, "Warning: snapshot save failed:", err)
			}
		}
	}

	if err := archive.Save(eng.Export()); err != nil {
		return fmt.Errorf("archiving session: %w", err)
	}
	fmt.Println("Session archived.")
	return scanner.Err()
}

// handleCommand runs a slash command. The returned bool reports whether
// the loop should exit.
func handleCommand(eng *engine.Engine, archive *store.Archive, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		fmt.Println(`Commands:
  /report          print the session report
  /export          print the transcript as JSON
  /stage [name]    show the stage, or force one (initial, assessment,
                   goal_setting, intervention, closing)
  /clear           clear the history and restart from the initial stage
  /exit            archive the session and quit`)
		return false, nil

	case "/report":
		return false, printJSON(eng.GenerateReport())

	case "/export":
		return false, printJSON(eng.Export())

	case "/stage":
		if len(fields) < 2 {
			fmt.Println("Current stage:", eng.CurrentStage())
			return false, nil
		}
		target := models.Stage(fields[1])
		if !eng.ForceTransition(target) {
			return false, fmt.Errorf("unknown stage %q", fields[1])
		}
		fmt.Println("Stage set to", target)
		return false, nil

	case "/clear":
		eng.ClearHistory()
		fmt.Println("History cleared.")
		return false, nil

	case "/exit", "/quit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q, try /help", fields[0])
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
