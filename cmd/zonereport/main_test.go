package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const salesCSV = `fecha,hora,latitud,longitud,producto,categoria,cantidad,precio
2024-01-01,9:00 AM,4.6000,-74.0800,Arroz,Food,1,100
2024-01-02,10:00 AM,4.6001,-74.0801,Pan,Food,2,100
2024-02-01,11:00 AM,4.6002,-74.0802,Arroz,Food,3,100
2024-02-02,1:00 PM,4.7000,-74.1000,Aspirina,Medicine,1,50
2024-02-03,2:00 PM,4.7001,-74.1001,Aspirina,Medicine,1,50
2024-03-04,3:00 PM,4.7002,-74.1002,Jarabe,Medicine,1,50
`

func writeSales(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ventas.csv")
	if err := os.WriteFile(path, []byte(salesCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRunZonesText(t *testing.T) {
	out, err := runCLI(t, writeSales(t))
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	for _, want := range []string{"ZONE", "#0", "#1", "$600.00", "2 zones, 0 noise points"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q:\n%s", want, out)
		}
	}
}

func TestRunTrendJSON(t *testing.T) {
	out, err := runCLI(t, "-report", "trend", "-format", "json", writeSales(t))
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	var report struct {
		Period string `json:"period"`
		Points []struct {
			Period    string  `json:"period"`
			Value     float64 `json:"value"`
			GrowthPct float64 `json:"growth_pct"`
		} `json:"points"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if report.Period != "monthly" || len(report.Points) != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Points[1].Value != 400 || report.Points[1].GrowthPct != 33.33 {
		t.Errorf("unexpected February point %+v", report.Points[1])
	}
}

func TestRunTrendChart(t *testing.T) {
	out, err := runCLI(t, "-report", "trend", "-format", "chart", "-period", "mensual", writeSales(t))
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out, "monthly revenue, 2024-01 to 2024-03") {
		t.Errorf("chart should carry a caption:\n%s", out)
	}
}

func TestRunOverrides(t *testing.T) {
	out, err := runCLI(t, "-eps", "0.5", "-min-samples", "6", writeSales(t))
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out, "1 zones, 0 noise points (eps 0.5, min_samples 6)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRunErrors(t *testing.T) {
	path := writeSales(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no file", nil, "input file"},
		{"unknown report", []string{"-report", "forecast", path}, "unknown report"},
		{"unknown format", []string{"-format", "yaml", path}, "unknown format"},
		{"chart unsupported", []string{"-report", "heatmap", "-format", "chart", path}, "chart output"},
		{"bad period", []string{"-report", "trend", "-period", "hourly", path}, "unknown period"},
		{"bad extension", []string{filepath.Join(t.TempDir(), "ventas.txt")}, "unsupported file format"},
		{"missing file", []string{filepath.Join(t.TempDir(), "nada.csv")}, "load"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("run() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
