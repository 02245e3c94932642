package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// RunState is the outcome shown in the run-all banner
type RunState string

const (
	RunStateSuccess RunState = "success"
	RunStateError   RunState = "error"
)

// RunAllResponse is the body returned by the run trigger endpoint.
// OK selects the shape: successes always carry exit code, duration and output,
// failures always carry Error and the rest only when known.
type RunAllResponse struct {
	OK              bool
	ExitCode        *int
	DurationSeconds *float64
	Stdout          *string
	Stderr          *string
	Error           string
	Timeout         bool
}

type runAllSuccess struct {
	OK              bool    `json:"ok"`
	ExitCode        int     `json:"exit_code"`
	DurationSeconds float64 `json:"duration_seconds"`
	Stdout          string  `json:"stdout"`
	Stderr          string  `json:"stderr"`
}

type runAllFailure struct {
	OK              bool     `json:"ok"`
	Error           string   `json:"error"`
	Timeout         *bool    `json:"timeout,omitempty"`
	ExitCode        *int     `json:"exit_code,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	Stdout          *string  `json:"stdout,omitempty"`
	Stderr          *string  `json:"stderr,omitempty"`
}

// MarshalJSON writes the success or failure shape
func (r RunAllResponse) MarshalJSON() ([]byte, error) {
	if r.OK {
		out := runAllSuccess{OK: true}
		if r.ExitCode != nil {
			out.ExitCode = *r.ExitCode
		}
		if r.DurationSeconds != nil {
			out.DurationSeconds = *r.DurationSeconds
		}
		if r.Stdout != nil {
			out.Stdout = *r.Stdout
		}
		if r.Stderr != nil {
			out.Stderr = *r.Stderr
		}
		return json.Marshal(out)
	}

	out := runAllFailure{
		Error:           r.Error,
		ExitCode:        r.ExitCode,
		DurationSeconds: r.DurationSeconds,
		Stdout:          r.Stdout,
		Stderr:          r.Stderr,
	}
	if r.Timeout {
		t := true
		out.Timeout = &t
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads either shape
func (r *RunAllResponse) UnmarshalJSON(data []byte) error {
	var in runAllFailure
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = RunAllResponse{
		OK:              in.OK,
		ExitCode:        in.ExitCode,
		DurationSeconds: in.DurationSeconds,
		Stdout:          in.Stdout,
		Stderr:          in.Stderr,
		Error:           in.Error,
		Timeout:         in.Timeout != nil && *in.Timeout,
	}
	return nil
}

// RunResult is the display form of a finished run
type RunResult struct {
	State           RunState `json:"state" yaml:"state"`
	Message         string   `json:"message" yaml:"message"`
	DurationSeconds *float64 `json:"durationSeconds,omitempty" yaml:"duration_seconds,omitempty"`
	Stdout          string   `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr          string   `json:"stderr,omitempty" yaml:"stderr,omitempty"`
}

// RunResultFromResponse maps a run trigger response to its banner.
// A nil response means the request itself failed; callErr is then used as the message.
func RunResultFromResponse(resp *RunAllResponse, callErr error) RunResult {
	if resp == nil {
		msg := "Failed to run dotnet tests."
		if callErr != nil {
			msg = callErr.Error()
		}
		return RunResult{State: RunStateError, Message: msg}
	}

	result := RunResult{DurationSeconds: resp.DurationSeconds}
	if resp.Stdout != nil {
		result.Stdout = *resp.Stdout
	}
	if resp.Stderr != nil {
		result.Stderr = *resp.Stderr
	}

	if resp.OK && callErr == nil {
		result.State = RunStateSuccess
		if resp.DurationSeconds != nil {
			result.Message = fmt.Sprintf("All tests passed in %.2fs.", *resp.DurationSeconds)
		} else {
			result.Message = "All tests passed."
		}
		return result
	}

	result.State = RunStateError
	switch {
	case resp.Error != "":
		result.Message = resp.Error
	case resp.ExitCode != nil:
		result.Message = fmt.Sprintf("dotnet test failed (exit code %d).", *resp.ExitCode)
	default:
		result.Message = "dotnet test failed."
	}
	return result
}

// TestRunner executes the project's test command
type TestRunner interface {
	// Run executes the tests and reports the outcome; it never returns a nil response
	Run(ctx context.Context) *RunAllResponse
}
