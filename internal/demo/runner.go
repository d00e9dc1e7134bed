// Package demo implements the standalone colorized demo harness for relay.
package demo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// ANSI color constants.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
	colorBgBlue = "\033[44m"
)

// Runner holds the demo execution state.
type Runner struct {
	binPath     string
	dbPath      string
	registryDir string
	agent       string
	out         io.Writer
	color       bool
	fast        bool
}

// NewRunner creates a new demo runner. binPath is resolved to an absolute
// path so the binary stays invocable regardless of the working directory.
func NewRunner(binPath, dbPath, registryDir, agent string, out io.Writer, fast bool) *Runner {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	if abs, err := filepath.Abs(binPath); err == nil {
		binPath = abs
	}
	return &Runner{
		binPath:     binPath,
		dbPath:      dbPath,
		registryDir: registryDir,
		agent:       agent,
		out:         out,
		color:       color,
		fast:        fast,
	}
}

func (r *Runner) colorize(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + colorReset
}

// printAct prints an act header.
func (r *Runner) printAct(number int, name string) {
	header := fmt.Sprintf("  Act %d: %s  ", number, name)
	if r.color {
		fmt.Fprintf(r.out, "\n%s%s%s\n", colorBold+colorBgBlue+colorWhite, header, colorReset)
	} else {
		fmt.Fprintf(r.out, "\n=== Act %d: %s ===\n", number, name)
	}
}

// printNarration prints narration lines.
func (r *Runner) printNarration(lines []string) {
	for _, line := range lines {
		fmt.Fprintf(r.out, "  %s\n", r.colorize(colorWhite, line))
	}
	fmt.Fprintln(r.out)
}

// printStep prints a step name.
func (r *Runner) printStep(name string) {
	fmt.Fprintf(r.out, "  %s %s\n", r.colorize(colorBold+colorCyan, "●"), r.colorize(colorBold+colorCyan, name))
}

// printCommand prints the command being run.
func (r *Runner) printCommand(args []string) {
	fmt.Fprintf(r.out, "    %s\n", r.colorize(colorDim, "$ relay "+strings.Join(args, " ")))
}

// printPass prints a pass indicator.
func (r *Runner) printPass(detail string) {
	msg := r.colorize(colorGreen, "✓")
	if detail != "" {
		fmt.Fprintf(r.out, "    %s %s\n", msg, r.colorize(colorGreen, detail))
	} else {
		fmt.Fprintf(r.out, "    %s\n", msg)
	}
}

// printFail prints a failure indicator.
func (r *Runner) printFail(err error) {
	fmt.Fprintf(r.out, "    %s %s\n", r.colorize(colorRed, "✗"), r.colorize(colorRed, err.Error()))
}

// printDetail prints a detail line.
func (r *Runner) printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(r.out, "      %s\n", r.colorize(colorDim, msg))
}

// printInsight prints a post-step insight in a distinctive dim style.
func (r *Runner) printInsight(msg string) {
	if msg == "" {
		return
	}
	if r.color {
		fmt.Fprintf(r.out, "    %s %s\n", colorDim+colorWhite+"→"+colorReset, colorDim+colorWhite+msg+colorReset)
	} else {
		fmt.Fprintf(r.out, "    → %s\n", msg)
	}
}

// parseLastJSON parses the last valid JSON line from multi-line output.
// Commands print exactly one JSON envelope on stdout, but we stay tolerant
// of extra lines by taking the last parseable JSON object.
func parseLastJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	lines := strings.Split(raw, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err == nil {
			return m, nil
		}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parse JSON: %w (output: %s)", err, raw)
	}
	return m, nil
}

// relay runs the relay binary as the runner's default agent.
func (r *Runner) relay(args ...string) (map[string]any, string, error) {
	return r.relayAs(r.agent, args...)
}

// relayAs runs the relay binary as a specific agent. Every invocation pins
// --db-path and --registry-dir so the demo never touches real state.
func (r *Runner) relayAs(agent string, args ...string) (map[string]any, string, error) {
	fullArgs := append([]string{"--db-path", r.dbPath, "--registry-dir", r.registryDir, "--agent", agent}, args...)
	r.printCommand(args)
	cmd := exec.Command(r.binPath, fullArgs...)
	// Neutralize ambient relay configuration so the demo is hermetic.
	cmd.Env = append(os.Environ(),
		"RELAY_DB_PATH=", "RELAY_REGISTRY_DIR=", "RELAY_BACKEND=",
		"RELAY_PROJECT=", "RELAY_AGENT=", "RELAY_SESSION_ID=", "RELAY_PRETTY_JSON=")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	_ = cmd.Run()
	raw := strings.TrimSpace(stdout.String())
	if raw == "" {
		return nil, raw, nil
	}
	m, err := parseLastJSON(raw)
	if err != nil {
		return nil, raw, err
	}
	return m, raw, nil
}

// mustSuccess returns an error if success != true.
func (r *Runner) mustSuccess(m map[string]any, raw string) error {
	if m == nil {
		return fmt.Errorf("nil response (raw: %s)", raw)
	}
	if m["success"] != true {
		return fmt.Errorf("success=false: %s", raw)
	}
	return nil
}

// mustFailWith returns an error unless the response failed with the given
// error code.
func (r *Runner) mustFailWith(code string, m map[string]any, raw string) error {
	if m == nil {
		return fmt.Errorf("nil response (raw: %s)", raw)
	}
	if m["success"] == true {
		return fmt.Errorf("expected failure with %s, got success: %s", code, raw)
	}
	if got := getStr(m, "error_code"); got != code {
		return fmt.Errorf("expected error_code %s, got %q: %s", code, got, raw)
	}
	return nil
}

// getStr extracts a nested string field from the parsed JSON.
func getStr(m map[string]any, keys ...string) string {
	var cur any = m
	for _, k := range keys {
		if mm, ok := cur.(map[string]any); ok {
			cur = mm[k]
		} else {
			return ""
		}
	}
	if s, ok := cur.(string); ok {
		return s
	}
	return ""
}

// getNum extracts a nested numeric field from the parsed JSON.
func getNum(m map[string]any, keys ...string) float64 {
	var cur any = m
	for _, k := range keys {
		if mm, ok := cur.(map[string]any); ok {
			cur = mm[k]
		} else {
			return 0
		}
	}
	if n, ok := cur.(float64); ok {
		return n
	}
	return 0
}

// getBool extracts a nested bool field from the parsed JSON.
func getBool(m map[string]any, keys ...string) bool {
	var cur any = m
	for _, k := range keys {
		if mm, ok := cur.(map[string]any); ok {
			cur = mm[k]
		} else {
			return false
		}
	}
	b, _ := cur.(bool)
	return b
}

// RunAll runs all acts in order, returning pass/fail counts.
func (r *Runner) RunAll(continueOnError bool) (passed, failed int) {
	ctx := &DemoContext{}

	acts := BuildActs()

	for _, act := range acts {
		r.printAct(act.Number, act.Name)
		r.printNarration(act.Narration)

		for _, step := range act.Steps {
			r.printStep(step.Name)
			err := step.Fn(r, ctx)
			if err != nil {
				r.printFail(err)
				failed++
				if !continueOnError {
					fmt.Fprintf(r.out, "\n%s\n", r.colorize(colorRed+colorBold, "Stopped on first failure. Use --continue-on-error to proceed."))
					return passed, failed
				}
			} else {
				r.printPass("")
				r.printInsight(step.Insight)
				passed++
				if !r.fast {
					time.Sleep(2 * time.Second)
				}
			}
		}
	}

	return passed, failed
}
