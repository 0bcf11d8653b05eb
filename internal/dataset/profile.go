package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// Profile summarizes per-column missingness of a raw table.
type Profile struct {
	Name string
	Rows int
	Cols []ColumnMissing
}

// ColumnMissing captures missing-value accounting for one column.
type ColumnMissing struct {
	Name    string
	Missing int
	Unique  int
	// Fraction is Missing/Rows rounded to 5 decimals (0.001 percent).
	Fraction float64
	Top      []CategoryCount
}

// CategoryCount is a value and its number of occurrences.
type CategoryCount struct {
	Value string
	Count int
}

const topValues = 3

// ProfileMissing computes per-column missing counts and fractions of df.
// Columns keep their original order.
func ProfileMissing(name string, df dataframe.DataFrame) *Profile {
	p := &Profile{Name: name, Rows: df.Nrow()}
	for _, col := range df.Names() {
		s := df.Col(col)
		cm := ColumnMissing{Name: col}
		counts := make(map[string]int)
		for i, isNaN := range s.IsNaN() {
			if isNaN {
				cm.Missing++
				continue
			}
			counts[s.Elem(i).String()]++
		}
		if p.Rows > 0 {
			cm.Fraction = math.Round(float64(cm.Missing)/float64(p.Rows)*1e5) / 1e5
		}
		cm.Unique = len(counts)
		cm.Top = topCounts(counts, topValues)
		p.Cols = append(p.Cols, cm)
	}
	return p
}

// Retained returns the names of columns whose missing fraction is at most
// threshold, ordered by ascending fraction with ties kept in table order.
func (p *Profile) Retained(threshold float64) []string {
	cols := make([]ColumnMissing, 0, len(p.Cols))
	for _, c := range p.Cols {
		if c.Fraction <= threshold {
			cols = append(cols, c)
		}
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Fraction < cols[j].Fraction })
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// Excluded returns the names of columns above threshold, in table order.
func (p *Profile) Excluded(threshold float64) []string {
	var names []string
	for _, c := range p.Cols {
		if c.Fraction > threshold {
			names = append(names, c.Name)
		}
	}
	return names
}

// Markdown renders the profile as a plain-text report.
func (p *Profile) Markdown(threshold float64) string {
	var b strings.Builder
	b.WriteString("[DATASET PROFILE]\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(p.Cols)))

	b.WriteString(fmt.Sprintf("[MISSINGNESS] (threshold %.1f%%)\n", threshold*100))
	for _, c := range p.Cols {
		verdict := "kept"
		if c.Fraction > threshold {
			verdict = "excluded"
		}
		b.WriteString(fmt.Sprintf("- %s: missing %d (%.3f%%), unique %d, %s", c.Name, c.Missing, c.Fraction*100, c.Unique, verdict))
		if len(c.Top) > 0 {
			b.WriteString("; top: ")
			for i, kv := range c.Top {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", kv.Value, kv.Count))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func topCounts(counts map[string]int, n int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, CategoryCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
