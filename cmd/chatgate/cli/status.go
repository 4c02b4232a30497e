package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chatgate/chatgate/internal/model"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check if the chatgate server is running",
		Long:  "Check the status of the chatgate server, including process state and credential store readiness.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	pid, err := readPID()
	if err != nil {
		fmt.Println("Server is not running (no PID file found).")
		return nil
	}

	if !isProcessRunning(pid) {
		removePID()
		fmt.Println("Server is not running (stale PID file removed).")
		return nil
	}

	// Server process is alive, ask it whether the store is reachable.
	port := viper.GetInt("server.port")
	if port == 0 {
		port = 8080
	}
	host := viper.GetString("server.host")
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}

	readyAddr := fmt.Sprintf("http://%s:%d/readyz", host, port)
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(readyAddr)
	if err != nil {
		fmt.Printf("Server process is running (PID %d) but not responding to HTTP.\n", pid)
		return nil
	}
	defer resp.Body.Close()

	var status model.StatusResponse
	json.NewDecoder(resp.Body).Decode(&status)

	fmt.Printf("Server is running (PID %d)\n", pid)
	fmt.Printf("  Ready:   %s (%d %s)\n", readyAddr, resp.StatusCode, status.Status)
	for name, check := range status.Checks {
		fmt.Printf("  %-8s %s\n", name+":", check)
	}
	return nil
}
