package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/oceanridge/ordinator/internal/apienvelope"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Send one SystemMessage (read as JSON from stdin or --file) to a running ordinatord and print its response",
	Long: `request posts a single apienvelope.SystemMessage to the server's
/v1/messages endpoint and prints the decoded SystemResponse as JSON.

Its process exit code follows the documented convention: 0 on success, 2 when the server
rejects the request as unknown asset/actor, 3 on any other error. cobra's
own error-printing path is bypassed here since those codes differ from its
default exit(1).`,
	Run: runRequest,
}

func init() {
	requestCmd.Flags().String("addr", "http://localhost:8080", "ordinatord base URL")
	requestCmd.Flags().String("file", "", "Path to a JSON SystemMessage file (defaults to reading stdin)")
}

func runRequest(cmd *cobra.Command, args []string) {
	os.Exit(apienvelope.ExitCode(doRequest(cmd)))
}

func doRequest(cmd *cobra.Command) error {
	addr, _ := cmd.Flags().GetString("addr")
	file, _ := cmd.Flags().GetString("file")

	var body []byte
	var err error
	if file != "" {
		body, err = os.ReadFile(file)
	} else {
		body, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}

	var msg apienvelope.SystemMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("parse SystemMessage: %w", err)
	}

	resp, err := http.Post(addr+"/v1/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &apiErr)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", apienvelope.ErrUnknownAsset, apiErr.Error)
		}
		return fmt.Errorf("server error: %s", apiErr.Error)
	}

	fmt.Println(string(respBody))
	return nil
}
