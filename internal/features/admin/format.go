package admin

import (
	"fmt"
	"html"
	"strings"
	"time"

	"serotonyl.ru/teamhub-bot/internal/common"
	"serotonyl.ru/teamhub-bot/internal/features/discovery"
	"serotonyl.ru/teamhub-bot/internal/features/drivers"
	"serotonyl.ru/teamhub-bot/internal/features/rating"
)

const (
	textNoDrivers = "⚠️ No active drivers found."
	separator     = "-----------------\n"
)

func profileLink(d *drivers.Driver) string {
	return fmt.Sprintf("<a href='tg://user?id=%d'>%s</a>", d.UserID, html.EscapeString(d.DisplayName()))
}

func scoreLine(d *drivers.Driver) string {
	score := d.Rating.Value
	return fmt.Sprintf("⭐️ %.1f (%.2f) %s | 🆔 <code>%d</code>",
		rating.Stars(score), score, rating.CategoryOf(score).Badge(), d.UserID)
}

// formatDriverList — список активных водителей для /drivers.
func formatDriverList(list []*drivers.Driver, now time.Time) string {
	if len(list) == 0 {
		return textNoDrivers
	}
	var b strings.Builder
	b.WriteString("🚙 <b>Active Drivers List</b>\n\n")
	for _, d := range list {
		fmt.Fprintf(&b, "👤 %s\n", profileLink(d))
		fmt.Fprintf(&b, "📍 %s | 🕒 %s\n", html.EscapeString(d.Location.Label()), common.FormatSeen(now, d.LastActiveAt))
		b.WriteString(scoreLine(d) + "\n")
		b.WriteString(separator)
	}
	return b.String()
}

// formatDiscovery — ответ на /find.
func formatDiscovery(res discovery.Result) string {
	phrase := html.EscapeString(res.Phrase)

	var b strings.Builder
	switch res.Outcome {
	case discovery.OutcomeEmptyDirectory:
		return textNoDrivers
	case discovery.OutcomeNotFound:
		return fmt.Sprintf("❌ Location '%s' not found and no text matches.", phrase)
	case discovery.OutcomeRanked:
		fmt.Fprintf(&b, "📍 <b>Nearest to %s:</b>\n\n", phrase)
	default:
		fmt.Fprintf(&b, "🔍 <b>Text Matches for '%s':</b>\n\n", phrase)
	}

	if len(res.Entries) == 0 {
		b.WriteString("—")
		return b.String()
	}

	for _, e := range res.Entries {
		d := e.Driver
		fmt.Fprintf(&b, "👤 %s\n", profileLink(d))
		fmt.Fprintf(&b, "📍 %s | 🕒 %s\n", html.EscapeString(d.Location.Label()), e.Seen)
		if e.HasDistance() {
			fmt.Fprintf(&b, "📏 <b>%.1f miles away</b>\n", e.Distance)
		}
		fmt.Fprintf(&b, "⭐️ %.1f (%.2f) | 🆔 <code>%d</code>\n", e.Stars, e.Score, d.UserID)
		fmt.Fprintf(&b, "👉 /rate_%d\n\n", d.UserID)
	}
	return b.String()
}

// formatNewDriver — уведомление группе о новой заявке.
func formatNewDriver(d *drivers.Driver) string {
	phone := d.Phone
	if phone == "" {
		phone = "—"
	}
	return fmt.Sprintf(
		"🔔 <b>New Driver Request!</b>\n\n"+
			"👤 <b>Name:</b> %s\n"+
			"📱 <b>Phone:</b> <code>%s</code>\n"+
			"🗣 <b>Lang:</b> %s\n"+
			"🆔 <b>ID:</b> <code>%d</code> | <a href='tg://user?id=%d'>Profile</a>",
		html.EscapeString(d.DisplayName()), html.EscapeString(phone), d.Language, d.UserID, d.UserID,
	)
}

// formatScore — итог оценки.
func formatScore(passed bool, driverID int64, s rating.Score) string {
	verdict := "👎 BAD"
	if passed {
		verdict = "✅ GOOD"
	}
	return fmt.Sprintf(
		"Rating Saved: <b>%s</b>\n🆔 <code>%d</code>\n⭐️ %s · %s\n📊 score %.2f, confidence %.0f%%",
		verdict, driverID, rating.FormatStars(s.Value), rating.CategoryOf(s.Value).Badge(), s.Value, s.Confidence*100,
	)
}

// formatAudit — журнал /log.
func formatAudit(entries []AuditEntry, loc *time.Location) string {
	if len(entries) == 0 {
		return "🧾 Journal is empty."
	}
	var b strings.Builder
	b.WriteString("🧾 <b>Recent actions</b>\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "• %s <b>%s</b> <code>%d</code> by <code>%d</code>",
			e.CreatedAt.In(loc).Format("01-02 15:04"), e.Action, e.TargetID, e.AdminID)
		if e.Details != "" {
			fmt.Fprintf(&b, " (%s)", html.EscapeString(e.Details))
		}
		b.WriteString("\n")
	}
	return b.String()
}

const helpText = "🛠 <b>Admin Commands</b>\n\n" +
	"<b>Drivers:</b>\n" +
	"• <code>/drivers</code> - List all active drivers\n" +
	"• <code>/find</code> - Find driver (Menu)\n" +
	"• <code>/find NY</code> - Find by State shortcut\n" +
	"• <code>/find IL Chicago</code> - Find near a city\n" +
	"• <code>/rate</code> - Rate driver (Menu)\n" +
	"• <code>/rate ID</code> - Rate driver (buttons)\n" +
	"• <code>/rate ID good|bad [from] [to]</code> - Rate a trip\n" +
	"• <code>/delete</code> - Delete driver (Menu)\n" +
	"• <code>/approve ID</code> - Quick approve\n\n" +
	"<b>System:</b>\n" +
	"• <code>/log</code> - Recent admin actions\n" +
	"• <code>/id</code> - Chat ID\n"
