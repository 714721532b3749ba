package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestText(t *testing.T) {
	got := Text("STUDENT PROFILE:\n- Name: Lakshay\n", "RECOMMENDED COURSE: BCA")

	expected := Header + "\n" + strings.Repeat("=", 80) + "\n\n" +
		"STUDENT PROFILE:\n- Name: Lakshay\n" +
		"\n" + strings.Repeat("=", 80) + "\n\n" +
		"RECOMMENDED COURSE: BCA"
	if got != expected {
		t.Errorf("Text() layout mismatch:\n%s", got)
	}
}

func TestProfileText(t *testing.T) {
	got := ProfileText(map[string]string{
		"name":        "Asha Bhat",
		"district":    "Baramulla",
		"email":       "",
		"career_goal": "Government job",
	})

	expected := "STUDENT PROFILE:\n- career_goal: Government job\n- district: Baramulla\n- name: Asha Bhat\n"
	if got != expected {
		t.Errorf("ProfileText() = %q, expected %q", got, expected)
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2025, 3, 7, 9, 5, 2, 0, time.UTC)

	tests := []struct {
		name     string
		ext      string
		expected string
	}{
		{"Lakshay Kumar", ".txt", "Career_Report_Lakshay_Kumar_20250307_090502.txt"},
		{"", ".pdf", "Career_Report_Student_20250307_090502.pdf"},
		{"A/B", ".txt", "Career_Report_A_B_20250307_090502.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := Filename(tt.name, at, tt.ext); got != tt.expected {
				t.Errorf("Filename() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestSaveText(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	path, err := SaveText(dir, "Asha Bhat", at, "profile\n", "guidance")
	if err != nil {
		t.Fatalf("SaveText() error = %v", err)
	}
	if filepath.Base(path) != "Career_Report_Asha_Bhat_20250102_030405.txt" {
		t.Errorf("unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), Header) || !strings.HasSuffix(string(data), "guidance") {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	guidance := strings.Repeat("Month 1: revise Physics daily, fees ₹12,000 per year.\n", 200)

	if err := PDF(&buf, "Lakshay Kumar", "- Name: Lakshay Kumar\n", guidance); err != nil {
		t.Fatalf("PDF() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
}
