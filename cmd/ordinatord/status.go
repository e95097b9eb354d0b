package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/oceanridge/ordinator/internal/apienvelope"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print strategic, tactical and supervisor status for one asset",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("addr", "http://localhost:8080", "ordinatord base URL")
	statusCmd.Flags().String("asset", "", "Asset id (required)")
	statusCmd.Flags().String("supervisor", "default", "Supervisor actor id to query")
	statusCmd.MarkFlagRequired("asset")
}

func runStatus(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	asset, _ := cmd.Flags().GetString("asset")
	supervisorID, _ := cmd.Flags().GetString("supervisor")

	queries := []apienvelope.SystemMessage{
		{Kind: apienvelope.KindStrategic, Strategic: &apienvelope.StrategicRequest{Asset: asset, Msg: apienvelope.StrategicStatus}},
		{Kind: apienvelope.KindTactical, Tactical: &apienvelope.TacticalRequest{Asset: asset, Msg: apienvelope.TacticalStatus}},
		{Kind: apienvelope.KindSupervisor, Supervisor: &apienvelope.SupervisorRequest{Asset: asset, ID: supervisorID, Msg: apienvelope.SupervisorStatus}},
	}

	report := make(map[string]any, len(queries))
	for _, msg := range queries {
		resp, err := postMessage(addr, msg)
		if err != nil {
			report[string(msg.Kind)] = err.Error()
			continue
		}
		report[string(msg.Kind)] = resp
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func postMessage(addr string, msg apienvelope.SystemMessage) (any, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(addr+"/v1/messages", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	var out any
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return out, nil
}
