package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildBinary builds the command into a temporary directory
func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("builds the binary with cgo")
	}

	bin := filepath.Join(t.TempDir(), "sqhell")
	cmd := exec.Command("go", "build", "-o", bin, ".")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}
	return bin
}

// TestCLIHelp tests the help display functionality
func TestCLIHelp(t *testing.T) {
	bin := buildBinary(t)

	output, err := exec.Command(bin, "--help").CombinedOutput()
	if err != nil {
		t.Fatalf("Expected exit code 0, got %v\n%s", err, output)
	}

	outputStr := string(output)
	if !strings.Contains(outputStr, "sqhell - SQL scripted graphics runner") {
		t.Error("Help output should contain title")
	}
	if !strings.Contains(outputStr, "sqhell [options] <sql file>") {
		t.Error("Help output should show usage")
	}
}

// TestCLIExitCode tests that exit(n) in a headless script becomes the process status
func TestCLIExitCode(t *testing.T) {
	bin := buildBinary(t)

	tests := []struct {
		name   string
		args   func(dir string) []string
		code   int
		stdout string
	}{
		{
			name: "script exit code",
			args: func(dir string) []string {
				script := filepath.Join(dir, "exit.sql")
				os.WriteFile(script, []byte("SELECT print('bye'); SELECT exit(5);"), 0644)
				return []string{"--headless", "-t", "10", script}
			},
			code:   5,
			stdout: "bye",
		},
		{
			name: "argument error is fatal",
			args: func(dir string) []string {
				script := filepath.Join(dir, "bad.sql")
				os.WriteFile(script, []byte("SELECT glClearColor('red', 0, 0); SELECT print('unreachable');"), 0644)
				return []string{"--headless", "-t", "10", script}
			},
			code: 1,
		},
		{
			name: "missing script argument",
			args: func(string) []string { return nil },
			code: 1,
		},
		{
			name: "unreadable script",
			args: func(dir string) []string { return []string{"--headless", filepath.Join(dir, "none.sql")} },
			code: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(bin, tt.args(t.TempDir())...)
			output, err := cmd.Output()

			code := 0
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			} else if err != nil {
				t.Fatalf("Failed to run: %v", err)
			}
			if code != tt.code {
				t.Errorf("Expected exit code %d, got %d", tt.code, code)
			}
			if string(output) != tt.stdout {
				t.Errorf("Expected script output %q, got %q", tt.stdout, output)
			}
		})
	}
}
