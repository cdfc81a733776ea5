package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"siriuswatch/internal/api"
	"siriuswatch/internal/discord"
)

// accentColor is the embed stripe color.
const accentColor = 0x0076D7

// timeToken renders a timestamp as a Discord time token, which the
// client localizes for each reader.
func timeToken(t time.Time) string {
	return fmt.Sprintf("<t:%d:f>", t.Unix())
}

// EventEmbed renders one course event. Every field is independent:
// absent source fields are simply left out and never suppress the
// rest.
func EventEmbed(course string, ev api.Event) discord.Embed {
	embed := discord.Embed{
		Title: "[" + course + "]",
		Color: accentColor,
	}

	if !ev.StartsAt.IsZero() {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name: "Starts", Value: timeToken(ev.StartsAt.Time), Inline: true,
		})
	}
	if !ev.EndsAt.IsZero() {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name: "Ends", Value: timeToken(ev.EndsAt.Time), Inline: true,
		})
	}
	if ev.Capacity != nil {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name: "Capacity", Value: strconv.Itoa(*ev.Capacity), Inline: true,
		})
	}
	if ev.Occupied != nil {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name: "Occupied", Value: strconv.Itoa(*ev.Occupied), Inline: true,
		})
	}
	if ev.Links.Room != "" {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name: "Room", Value: ev.Links.Room, Inline: true,
		})
	}
	if ev.Note.CS != "" {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name: "Note", Value: ev.Note.CS,
		})
	}
	if len(ev.Links.Teachers) > 0 {
		embed.Footer = &discord.EmbedFooter{Text: strings.Join(ev.Links.Teachers, "; ")}
	}

	return embed
}

// NewsEmbed renders one course-pages message.
func NewsEmbed(item api.NewsItem) discord.Embed {
	embed := discord.Embed{
		Title:       item.Title,
		Description: item.Content,
		Color:       accentColor,
	}

	if !item.PublishedAt.IsZero() {
		embed.Fields = append(embed.Fields, discord.EmbedField{
			Name: "Published", Value: timeToken(item.PublishedAt), Inline: true,
		})
	}
	if item.CreatedBy.Name != "" {
		embed.Footer = &discord.EmbedFooter{Text: item.CreatedBy.Name}
	}

	return embed
}

// PingContent renders the aggregated role-mention message.
func PingContent(pings []int64) string {
	mentions := make([]string, 0, len(pings))
	for _, id := range pings {
		mentions = append(mentions, fmt.Sprintf("<@&%d>", id))
	}
	return strings.Join(mentions, " ") + " new events were posted!"
}
