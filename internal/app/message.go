package app

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/domain"
)

const eventTimeLayout = "Mon Jan 2 15:04"

// headline is the first block of every reminder body: the title and, when an
// event is known, when and where it happens.
func headline(title string, event *domain.Event, loc *time.Location) string {
	if event == nil {
		return title
	}

	if loc == nil {
		loc = time.UTC
	}

	when := fmt.Sprintf("%s starts %s", event.Title, event.Start.In(loc).Format(eventTimeLayout))
	if event.HasLocation() {
		when += " at " + strings.TrimSpace(event.Location)
	}

	return title + "\n" + when + "."
}

func trafficSection(traffic *domain.TrafficInfo, leaveBy time.Time, loc *time.Location) string {
	if traffic == nil {
		return ""
	}

	if leaveBy.IsZero() {
		return traffic.Summary()
	}

	if loc == nil {
		loc = time.UTC
	}

	return fmt.Sprintf("Leave by %s. %s", leaveBy.In(loc).Format("15:04"), traffic.Summary())
}

func weatherSection(weather *domain.WeatherInfo) string {
	if weather == nil {
		return ""
	}

	parts := append([]string{weather.Summary()}, weather.Guidance()...)

	return strings.Join(parts, " ")
}

func joinSections(sections ...string) string {
	kept := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}

	return strings.Join(kept, "\n")
}

func toHTML(body string) string {
	var b strings.Builder

	for _, line := range strings.Split(body, "\n") {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}

	return b.String()
}
