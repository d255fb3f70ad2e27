package output

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/roster/internal/models"
)

func person(id int64, synced bool) models.Person {
	return models.Person{
		ID: id,
		Contact: models.Contact{
			FirstName:   "Ana",
			LastName:    "Diaz",
			DocumentID:  "1020",
			PhoneNumber: "3005550000",
			Email:       "ana@example.com",
		},
		CreatedAt:      time.Now().Add(-2 * time.Hour),
		IsSynchronized: synced,
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()
	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(-1 * time.Minute), "1m ago"},
		{now.Add(-45 * time.Minute), "45m ago"},
		{now.Add(-1 * time.Hour), "1h ago"},
		{now.Add(-5 * time.Hour), "5h ago"},
		{now.Add(-24 * time.Hour), "1d ago"},
		{now.Add(-3 * 24 * time.Hour), "3d ago"},
	}
	for _, tt := range tests {
		if got := FormatTimeAgo(tt.t); got != tt.want {
			t.Errorf("FormatTimeAgo(%v) = %q, want %q", now.Sub(tt.t), got, tt.want)
		}
	}

	old := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	if got := FormatTimeAgo(old); got != "2024-03-09" {
		t.Errorf("FormatTimeAgo(old) = %q", got)
	}
}

func TestFormatPersonShort(t *testing.T) {
	p := person(7, false)
	got := ansi.Strip(FormatPersonShort(&p))
	for _, want := range []string{"#7", "Ana Diaz", "ana@example.com", "[pending]"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatPersonShort missing %q: %q", want, got)
		}
	}
}

func TestFormatPersonLong(t *testing.T) {
	p := person(3, true)
	got := ansi.Strip(FormatPersonLong(&p))
	for _, want := range []string{"#3: Ana Diaz", "[synced]", "Document: 1020", "Phone: 3005550000", "Created 2h ago"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatPersonLong missing %q: %q", want, got)
		}
	}
}

func TestFormatStateUnknown(t *testing.T) {
	if got := FormatState("weird"); got != "weird" {
		t.Errorf("FormatState(weird) = %q", got)
	}
}

func TestPeopleTable(t *testing.T) {
	if PeopleTable(nil) != "" {
		t.Error("empty table should render nothing")
	}

	p := person(1, false)
	p.Email = "a|b@example.com"
	q := person(2, true)
	q.FirstName = strings.Repeat("X", 50)

	table := PeopleTable([]models.Person{p, q})
	lines := strings.Split(strings.TrimSpace(table), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), table)
	}
	if !strings.Contains(lines[2], `a\|b@example.com`) {
		t.Errorf("pipe not escaped: %s", lines[2])
	}
	if !strings.Contains(lines[3], "…") || strings.Contains(lines[3], strings.Repeat("X", 31)) {
		t.Errorf("long name not truncated: %s", lines[3])
	}
	if !strings.HasSuffix(lines[3], "| synced |") {
		t.Errorf("state column: %s", lines[3])
	}
}

func TestRenderMarkdownWithWidthEmpty(t *testing.T) {
	out, err := RenderMarkdownWithWidth("   ", 80)
	if err != nil || out != "" {
		t.Errorf("got %q, %v", out, err)
	}
}
