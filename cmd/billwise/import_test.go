package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCmdFlags(t *testing.T) {
	cmd := importCmd()

	tests := []struct {
		name      string
		flag      string
		shorthand string
		defValue  string
	}{
		{name: "start date", flag: "start-date", shorthand: "s", defValue: ""},
		{name: "end date", flag: "end-date", shorthand: "e", defValue: ""},
		{name: "days", flag: "days", shorthand: "d", defValue: "90"},
		{name: "dry run", flag: "dry-run", shorthand: "", defValue: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, f, "flag %s should be registered", tt.flag)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.defValue, f.DefValue)
			assert.NotEmpty(t, f.Usage)
			assert.False(t, strings.ContainsAny(f.Usage, "\n\""),
				"usage for %s should be a single plain line", tt.flag)
		})
	}
}

func TestImportCmdHasOFXSubcommand(t *testing.T) {
	cmd := importCmd()

	sub, _, err := cmd.Find([]string{"ofx"})
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "ofx <file or glob>...", sub.Use)
	require.NotNil(t, sub.Flags().Lookup("dry-run"))
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantStart string
		wantEnd   string
		wantErr   string
	}{
		{
			name:      "explicit range",
			args:      []string{"--start-date", "2024-01-01", "--end-date", "2024-03-31"},
			wantStart: "2024-01-01",
			wantEnd:   "2024-03-31",
		},
		{
			name:      "days before explicit end",
			args:      []string{"--end-date", "2024-03-31", "--days", "30"},
			wantStart: "2024-03-01",
			wantEnd:   "2024-03-31",
		},
		{
			name:    "invalid start date",
			args:    []string{"--start-date", "01/15/2024"},
			wantErr: "invalid start date",
		},
		{
			name:    "invalid end date",
			args:    []string{"--end-date", "yesterday"},
			wantErr: "invalid end date",
		},
		{
			name:    "start after end",
			args:    []string{"--start-date", "2024-04-01", "--end-date", "2024-03-01"},
			wantErr: "is after end date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := importCmd()
			require.NoError(t, cmd.Flags().Parse(tt.args))

			start, end, err := parseDateRange(cmd)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start.Format("2006-01-02"))
			assert.Equal(t, tt.wantEnd, end.Format("2006-01-02"))
		})
	}
}

func TestParseDateRangeDefaultWindow(t *testing.T) {
	cmd := importCmd()
	require.NoError(t, cmd.Flags().Parse(nil))

	start, end, err := parseDateRange(cmd)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now(), end, time.Minute)
	assert.WithinDuration(t, end.AddDate(0, 0, -90), start, time.Minute)
}
