package notify

import (
	"encoding/json"
	"testing"
	"time"

	"siriuswatch/internal/api"
)

func parseEvent(t *testing.T, raw string) api.Event {
	t.Helper()
	var ev api.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("parsing event: %v", err)
	}
	return ev
}

func TestEventEmbed_OnlyStartTime(t *testing.T) {
	ev := parseEvent(t, `{"id": 42, "starts_at": "2024-05-01T10:00:00.000+0200"}`)

	embed := EventEmbed("BI-LA1.21", ev)

	if embed.Title != "[BI-LA1.21]" {
		t.Errorf("unexpected title %q", embed.Title)
	}
	if len(embed.Fields) != 1 {
		t.Fatalf("expected exactly one field, got %+v", embed.Fields)
	}
	if embed.Fields[0].Name != "Starts" {
		t.Errorf("unexpected field %+v", embed.Fields[0])
	}
	want := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC).Unix()
	if got := timeToken(time.Unix(want, 0)); embed.Fields[0].Value != got {
		t.Errorf("expected %q, got %q", got, embed.Fields[0].Value)
	}
	if embed.Footer != nil {
		t.Errorf("expected no footer, got %+v", embed.Footer)
	}
}

func TestEventEmbed_AllFields(t *testing.T) {
	ev := parseEvent(t, `{
		"id": 42,
		"starts_at": "2024-05-01T10:00:00.000+0200",
		"ends_at": "2024-05-01T11:30:00.000+0200",
		"capacity": 30,
		"occupied": 12,
		"links": {"room": "TH:A-1242", "teachers": ["novakji9", "doe"]},
		"note": {"cs": "Prineste si kalkulacku"}
	}`)

	embed := EventEmbed("BI-LA1.21", ev)

	names := make([]string, 0, len(embed.Fields))
	for _, f := range embed.Fields {
		names = append(names, f.Name)
	}
	want := []string{"Starts", "Ends", "Capacity", "Occupied", "Room", "Note"}
	if len(names) != len(want) {
		t.Fatalf("expected fields %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected fields %v, got %v", want, names)
		}
	}

	if embed.Footer == nil || embed.Footer.Text != "novakji9; doe" {
		t.Errorf("unexpected footer %+v", embed.Footer)
	}
}

func TestEventEmbed_FieldsIndependent(t *testing.T) {
	// Room without timestamps: absence of one field never suppresses
	// another.
	ev := parseEvent(t, `{"id": 1, "links": {"room": "T9:155"}, "capacity": 10}`)

	embed := EventEmbed("BI-AG1", ev)

	if len(embed.Fields) != 2 {
		t.Fatalf("expected capacity and room, got %+v", embed.Fields)
	}
	if embed.Fields[0].Name != "Capacity" || embed.Fields[1].Name != "Room" {
		t.Errorf("unexpected fields %+v", embed.Fields)
	}
}

func TestNewsEmbed(t *testing.T) {
	item := api.NewsItem{
		ID:          "n-1",
		Title:       "Exam moved",
		Content:     "The exam moved to Friday.",
		CreatedBy:   api.NewsAuthor{Name: "Doe"},
		PublishedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}

	embed := NewsEmbed(item)

	if embed.Title != "Exam moved" || embed.Description != "The exam moved to Friday." {
		t.Errorf("unexpected embed %+v", embed)
	}
	if len(embed.Fields) != 1 || embed.Fields[0].Name != "Published" {
		t.Errorf("unexpected fields %+v", embed.Fields)
	}
	if embed.Footer == nil || embed.Footer.Text != "Doe" {
		t.Errorf("unexpected footer %+v", embed.Footer)
	}
}

func TestPingContent(t *testing.T) {
	got := PingContent([]int64{7, 9})
	want := "<@&7> <@&9> new events were posted!"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
