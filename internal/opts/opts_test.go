package opts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	defer Reset()

	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, o Options)
		wantErr bool
	}{
		{
			name:    "error limit and style",
			content: "error_limit = 5\nmessage_style = \"compact\"\n",
			check: func(t *testing.T, o Options) {
				if o.ErrorLimit != 5 {
					t.Errorf("ErrorLimit = %d", o.ErrorLimit)
				}
				if o.Style != MessageCompact {
					t.Errorf("Style = %v", o.Style)
				}
			},
		},
		{
			name:    "defaults preserved",
			content: "debug = true\n",
			check: func(t *testing.T, o Options) {
				if !o.Debug {
					t.Errorf("Debug not set")
				}
				if o.ErrorLimit != 20 {
					t.Errorf("ErrorLimit = %d, want default 20", o.ErrorLimit)
				}
			},
		},
		{
			name:    "unknown style",
			content: "message_style = \"fancy\"\n",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			Reset()

			path := filepath.Join(t.TempDir(), "volta.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}

			err := Load(path)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tc.check(t, Get())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	defer Reset()

	if err := Load(filepath.Join(t.TempDir(), "absent.toml")); err != nil {
		t.Errorf("missing config file should not be an error: %v", err)
	}
}
