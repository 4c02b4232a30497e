package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a running chatgate server",
		Long: `Stop a chatgate server that was started with 'chatgate serve', using its PID file.
The server drains in-flight chat requests before exiting, so the default wait
is longer than server.shutdown_timeout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(wait)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 35*time.Second, "How long to wait for the server to exit")

	return cmd
}

func runStop(wait time.Duration) error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no running server found (missing PID file at %s)", pidFilePath())
	}

	if !isProcessRunning(pid) {
		removePID()
		return fmt.Errorf("server (PID %d) is not running (stale PID file removed)", pid)
	}

	fmt.Printf("Stopping chatgate server (PID %d)...\n", pid)

	if err := stopProcess(pid); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		if !isProcessRunning(pid) {
			removePID()
			fmt.Println("Server stopped.")
			return nil
		}
	}

	return fmt.Errorf("server (PID %d) did not stop within %s; it may still be draining connections", pid, wait)
}
