package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chrissnell/solarstats/pkg/config"
)

const plantCSV = `Date-Hour(NMT),WindSpeed,Radiation,SystemProduction
05.01.2020-10:00,1.5,100,10
05.01.2020-11:00,2.0,200,20
06.01.2020-10:00,1.0,150,15
07.01.2020-10:00,3.0,50,5
`

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plant.csv")
	if err := os.WriteFile(path, []byte(plantCSV), 0o644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewReportCommand(&out)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReportText(t *testing.T) {
	out, err := run(t, "--source", writeSource(t), "--start", "2020-01-05", "--end", "2020-01-06")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Status: ok", "SystemProduction", "Mean", "Totals (daily)", "10:00", "R squared"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReportJSON(t *testing.T) {
	out, err := run(t, "--source", writeSource(t), "--json", "--bucket", "monthly", "--column", "SystemProduction")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Status string `json:"status"`
		Column string `json:"column"`
		Trend  struct {
			Bucket string `json:"bucket"`
			Points []struct {
				Value float64 `json:"value"`
			} `json:"points"`
		} `json:"trend"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Status != "ok" || got.Column != "SystemProduction" {
		t.Errorf("unexpected report: %+v", got)
	}
	if got.Trend.Bucket != "monthly" || len(got.Trend.Points) != 1 || got.Trend.Points[0].Value != 50 {
		t.Errorf("unexpected trend: %+v", got.Trend)
	}
}

func TestReportExports(t *testing.T) {
	dir := t.TempDir()
	xlsx := filepath.Join(dir, "report.xlsx")
	pdf := filepath.Join(dir, "report.pdf")

	if _, err := run(t, "--source", writeSource(t), "--xlsx", xlsx, "--pdf", pdf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		path   string
		prefix string
	}{
		{xlsx, "PK"},
		{pdf, "%PDF"},
	}
	for _, tt := range tests {
		data, err := os.ReadFile(tt.path)
		if err != nil {
			t.Fatalf("expected %s to be written: %v", tt.path, err)
		}
		if !bytes.HasPrefix(data, []byte(tt.prefix)) {
			t.Errorf("%s does not start with %q", tt.path, tt.prefix)
		}
	}
}

func TestReportErrors(t *testing.T) {
	source := writeSource(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantOut string
	}{
		{
			name:    "no source",
			args:    nil,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "missing file",
			args:    []string{"--source", filepath.Join(t.TempDir(), "absent.csv")},
			wantErr: ErrIncomplete,
			wantOut: "Status: source-unavailable",
		},
		{
			name:    "text column",
			args:    []string{"--source", source, "--column", "DATE_TIME"},
			wantErr: ErrIncomplete,
		},
		{
			name:    "empty range",
			args:    []string{"--source", source, "--start", "2021-01-01", "--end", "2021-01-31"},
			wantErr: ErrIncomplete,
			wantOut: "Status: empty-filtered-range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantOut != "" && !strings.Contains(out, tt.wantOut) {
				t.Errorf("output missing %q:\n%s", tt.wantOut, out)
			}
		})
	}
}

func TestReportBadFlags(t *testing.T) {
	source := writeSource(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad date", []string{"--source", source, "--start", "05.01.2020"}},
		{"bad bucket", []string{"--source", source, "--bucket", "yearly"}},
		{"unknown flag", []string{"--source", source, "--colour"}},
		{"positional argument", []string{"--source", source, "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
