package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/surveyclust/internal/report"
)

// resetFlags clears values and Changed state that persist across
// invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

func execCmd(args ...string) error {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	os.Setenv("HOME", home)
	return home
}

// writeSurvey writes 60 responses drawn from three answer profiles plus an
// identifier and a mostly empty free-text column.
func writeSurvey(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("submission_id,q1,q2,q3,q4,q5,comments\n")
	for i := 0; i < 60; i++ {
		g := i % 3
		fields := []string{fmt.Sprintf("S%02d", i)}
		for j := 0; j < 5; j++ {
			v := fmt.Sprintf("a%d", g)
			if (i+j)%7 == 0 {
				v = fmt.Sprintf("a%d", (g+1)%3)
			}
			fields = append(fields, v)
		}
		comment := ""
		if i%4 == 0 {
			comment = "great coffee"
		}
		fields = append(fields, comment)
		b.WriteString(strings.Join(fields, ",") + "\n")
	}
	path := filepath.Join(dir, "survey.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write survey: %v", err)
	}
	return path
}

func TestCLI_Prepare_Profile(t *testing.T) {
	home := setupHome(t)
	survey := writeSurvey(t, home)
	clean := filepath.Join(home, "data", "data_clean")

	runCmd(t, "prepare", survey, "--clean-output", clean)
	b, err := os.ReadFile(clean)
	if err != nil {
		t.Fatalf("read cleaned table: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if lines[0] != "q1,q2,q3,q4,q5" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if len(lines) != 61 {
		t.Fatalf("expected 60 data rows, got %d", len(lines)-1)
	}

	md := filepath.Join(home, "profile.md")
	runCmd(t, "profile", survey, "-o", md)
	pb, err := os.ReadFile(md)
	if err != nil {
		t.Fatalf("read profile: %v", err)
	}
	if !strings.Contains(string(pb), "- comments: missing 45 (75.000%)") {
		t.Fatalf("profile missing comments line:\n%s", pb)
	}
}

func TestCLI_Evaluate_Stability_Cluster(t *testing.T) {
	home := setupHome(t)
	survey := writeSurvey(t, home)
	plots := filepath.Join(home, "plots")

	runCmd(t, "config", "set", "output_dir", plots)
	runCmd(t, "config", "set", "n_init", "3")
	runCmd(t, "config", "set", "stability_y_min", "0")
	runCmd(t, "config", "set", "stability_y_max", "0")

	runCmd(t, "evaluate", survey, "--max-k", "3", "--no-persist", "--workbook")
	runCmd(t, "stability", survey, "-k", "2", "--runs", "3", "--no-persist", "--html=false")

	runs, err := report.ListRuns(plots)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	for _, r := range runs {
		want := map[string][]string{
			"evaluate":  {"evaluation.csv", "elbow.png", "elbow.html", "evaluation.xlsx"},
			"stability": {"stability.csv", "stability.png"},
		}[r.Kind]
		if len(r.Artifacts) != len(want) {
			t.Fatalf("%s: expected %d artifacts, got %+v", r.Kind, len(want), r.Artifacts)
		}
		for i, a := range r.Artifacts {
			if a.Name != want[i] {
				t.Fatalf("%s: artifact %d is %s, want %s", r.Kind, i, a.Name, want[i])
			}
			if _, err := os.Stat(a.Path); err != nil {
				t.Fatalf("artifact missing: %v", err)
			}
		}
	}
	runCmd(t, "runs")

	labelled := filepath.Join(home, "labelled.csv")
	runCmd(t, "cluster", survey, "-k", "3", "-o", labelled, "--no-persist")
	b, err := os.ReadFile(labelled)
	if err != nil {
		t.Fatalf("read labelled table: %v", err)
	}
	if !strings.HasPrefix(string(b), "q1,q2,q3,q4,q5,cluster\n") {
		t.Fatalf("unexpected labelled header: %q", strings.SplitN(string(b), "\n", 2)[0])
	}
}

func TestCLI_ClusterUsesConfiguredK(t *testing.T) {
	home := setupHome(t)
	survey := writeSurvey(t, home)

	runCmd(t, "config", "set", "n_init", "3")
	runCmd(t, "config", "set", "cluster_k", "2")
	labelled := filepath.Join(home, "labelled.csv")
	runCmd(t, "cluster", survey, "-o", labelled, "--no-persist")

	b, err := os.ReadFile(labelled)
	if err != nil {
		t.Fatalf("read labelled table: %v", err)
	}
	seen := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n")[1:] {
		seen[line[strings.LastIndex(line, ",")+1:]] = true
	}
	if len(seen) != 2 || !seen["0"] || !seen["1"] {
		t.Fatalf("expected labels 0 and 1, got %v", seen)
	}

	if err := execCmd("config", "set", "cluster_k", "0"); err == nil {
		t.Fatalf("expected error for cluster_k 0")
	}
}

func TestCLI_StabilityWorkbookHasOnlyStabilitySheet(t *testing.T) {
	home := setupHome(t)
	survey := writeSurvey(t, home)
	plots := filepath.Join(home, "plots")

	runCmd(t, "config", "set", "output_dir", plots)
	runCmd(t, "config", "set", "n_init", "2")
	runCmd(t, "stability", survey, "-k", "2", "--runs", "2", "--no-persist", "--no-charts", "--workbook")

	runs, err := report.ListRuns(plots)
	if err != nil || len(runs) != 1 {
		t.Fatalf("list runs: %v (%d runs)", err, len(runs))
	}
	var xlsx string
	for _, a := range runs[0].Artifacts {
		if strings.HasSuffix(a.Name, ".xlsx") {
			xlsx = a.Path
		}
	}
	if xlsx == "" {
		t.Fatalf("no workbook artifact in %+v", runs[0].Artifacts)
	}
	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if got := f.GetSheetList(); len(got) != 1 || got[0] != "Stability" {
		t.Fatalf("unexpected sheets: %v", got)
	}
}

func TestCLI_RejectsInvalidInput(t *testing.T) {
	home := setupHome(t)
	survey := writeSurvey(t, home)

	if err := execCmd("evaluate", survey, "--max-k", "1", "--no-persist", "--no-charts"); err == nil || !strings.Contains(err.Error(), "max_k") {
		t.Fatalf("expected max_k range error, got %v", err)
	}
	if err := execCmd("stability", survey, "--runs", "0", "--no-persist", "--no-charts"); err == nil {
		t.Fatalf("expected runs range error")
	}
	if err := execCmd("prepare", filepath.Join(home, "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if err := execCmd("config", "set", "init", "kmeans"); err == nil {
		t.Fatalf("expected error for unknown init")
	}
	if err := execCmd("config", "set", "bogus", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
