package commands

import (
	"bytes"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  bool
		contains []string
	}{
		{
			name:     "list",
			args:     []string{"list"},
			contains: []string{"SCENARIO", "upload", "descriptors", "nativetest"},
		},
		{
			name:     "version",
			args:     []string{"version"},
			contains: []string{"vkrestrace " + Version},
		},
		{
			name:     "run one scenario",
			args:     []string{"run", "lineloop", "--frames", "2"},
			contains: []string{"== lineloop on nativetest, 2 frames", "index buffers", "DrawIndexed"},
		},
		{
			name:     "run without trace",
			args:     []string{"run", "descriptors", "--trace=false"},
			contains: []string{"native pools", "pending releases"},
		},
		{
			name:    "unknown scenario",
			args:    []string{"run", "nope"},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			args:    []string{"run", "upload", "--backend", "metal"},
			wantErr: true,
		},
		{
			name:    "invalid frames",
			args:    []string{"run", "upload", "--frames", "-1"},
			wantErr: true,
		},
		{
			name:    "list takes no arguments",
			args:    []string{"list", "extra"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestRunWithoutTraceOmitsCommands(t *testing.T) {
	out, err := execute(t, "run", "lineloop", "--trace=false")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "trace (") {
		t.Errorf("trace printed with --trace=false:\n%s", out)
	}
}
