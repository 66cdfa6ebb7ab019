// internal/opal/stages_test.go
package opal

import (
	"reflect"
	"testing"
)

func TestParse_SplitsOnPipes(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "single stage",
			query: "filter body ~ error",
			want:  []string{"filter body ~ error"},
		},
		{
			name:  "multiple stages trimmed",
			query: `filter body ~ error |  statsby count:count() `,
			want:  []string{"filter body ~ error", "statsby count:count()"},
		},
		{
			name:  "pipe inside string literal is payload",
			query: `filter body ~ "a|b" | sort desc(time)`,
			want:  []string{`filter body ~ "a|b"`, "sort desc(time)"},
		},
		{
			name:  "escaped quote inside literal",
			query: `filter body = "say \"hi|bye\"" | limit 10`,
			want:  []string{`filter body = "say \"hi|bye\""`, "limit 10"},
		},
		{
			name:  "empty segments dropped",
			query: "filter a | | filter b |",
			want:  []string{"filter a", "filter b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.query).Stages()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) stages = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestPipeline_Verb(t *testing.T) {
	p := Parse("Filter body ~ x | statsby c:count()")
	if got := p.Verb(0); got != "filter" {
		t.Errorf("Verb(0) = %q, want filter", got)
	}
	if got := p.Verb(1); got != "statsby" {
		t.Errorf("Verb(1) = %q, want statsby", got)
	}
	if got := p.Verb(5); got != "" {
		t.Errorf("Verb(5) = %q, want empty", got)
	}
}

func TestPipeline_InsertRemove(t *testing.T) {
	p := Parse("filter a | statsby c:count()")

	p.Insert(1, "make_col f:if(x, 1, 0)")
	want := "filter a | make_col f:if(x, 1, 0) | statsby c:count()"
	if got := p.Render(); got != want {
		t.Fatalf("Render() after Insert = %q, want %q", got, want)
	}
	if !p.WellFormed() {
		t.Error("WellFormed() = false after Insert, want true")
	}

	p.Remove(0)
	want = "make_col f:if(x, 1, 0) | statsby c:count()"
	if got := p.Render(); got != want {
		t.Fatalf("Render() after Remove = %q, want %q", got, want)
	}
	if !p.WellFormed() {
		t.Error("WellFormed() = false after Remove, want true")
	}
}

func TestPipeline_WellFormed_Empty(t *testing.T) {
	if Parse("").WellFormed() {
		t.Error("WellFormed() = true for empty query, want false")
	}
	if Parse("   |  ").WellFormed() {
		t.Error("WellFormed() = true for pipe-only query, want false")
	}
}

func TestScanBalanced(t *testing.T) {
	tests := []struct {
		s    string
		open int
		want int
	}{
		{"f(a, b)", 1, 6},
		{"f(g(x), h(y))", 1, 12},
		{`f("a)b")`, 1, 7},
		{"f(unclosed", 1, -1},
	}
	for _, tt := range tests {
		if got := scanBalanced(tt.s, tt.open); got != tt.want {
			t.Errorf("scanBalanced(%q, %d) = %d, want %d", tt.s, tt.open, got, tt.want)
		}
	}
}
