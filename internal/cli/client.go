package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// multiplierState mirrors the control surface's multiplier payload.
type multiplierState struct {
	Multiplier float64 `json:"multiplier"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

func controlURL(addr string) string {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return strings.TrimSuffix(addr, "/") + "/api/multiplier"
}

func fetchMultiplier(addr string) (multiplierState, error) {
	var state multiplierState

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(controlURL(addr))
	if err != nil {
		return state, fmt.Errorf("querying control surface: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return state, fmt.Errorf("control surface returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return state, fmt.Errorf("decoding response: %w", err)
	}
	return state, nil
}

func pushMultiplier(addr string, m float64) (multiplierState, error) {
	var state multiplierState

	body, err := json.Marshal(map[string]float64{"multiplier": m})
	if err != nil {
		return state, err
	}
	req, err := http.NewRequest(http.MethodPut, controlURL(addr), bytes.NewReader(body))
	if err != nil {
		return state, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return state, fmt.Errorf("updating control surface: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return state, fmt.Errorf("control surface returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return state, fmt.Errorf("decoding response: %w", err)
	}
	return state, nil
}

func newGetCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current multiplier of a running engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := fetchMultiplier(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "multiplier: %g (bounds %g..%g)\n", state.Multiplier, state.Min, state.Max)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "control surface address")
	return cmd
}

func newSetCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "set <multiplier>",
		Short: "Set the multiplier of a running engine",
		Long: `Sets the multiplier on a running engine. Values outside the configured
bounds are clamped; the printed value is the one actually installed.`,
		Example: `  timewarp set 2
  timewarp set 0.5 --addr localhost:9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requested, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid multiplier %q", args[0])
			}
			state, err := pushMultiplier(addr, requested)
			if err != nil {
				return err
			}
			if state.Multiplier != requested {
				fmt.Fprintf(cmd.OutOrStdout(), "multiplier set to %g (requested %g, clamped)\n", state.Multiplier, requested)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "multiplier set to %g\n", state.Multiplier)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "control surface address")
	return cmd
}
