package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go-huddle/core/config"
	"go-huddle/core/logger"
	eventEntity "go-huddle/modules/event/entity"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const GoogleCalendarAPI = "https://www.googleapis.com/calendar/v3"

// GoogleCalendar reads timed events from a user's primary Google calendar.
type GoogleCalendar struct {
	oauth   *oauth2.Config
	baseURL string
}

func NewGoogleCalendar(cfg config.GoogleAPIConfig, baseURL string) *GoogleCalendar {
	return &GoogleCalendar{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/calendar.readonly",
			},
		},
		baseURL: baseURL,
	}
}

type googleEventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type googleEvent struct {
	Summary      string          `json:"summary"`
	Status       string          `json:"status"`
	Transparency string          `json:"transparency"`
	Start        googleEventTime `json:"start"`
	End          googleEventTime `json:"end"`
}

type googleEventList struct {
	Items         []googleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

// Configured reports whether the OAuth client credentials are set.
func (g *GoogleCalendar) Configured() bool {
	return g.oauth.ClientID != "" && g.oauth.ClientSecret != "" && g.oauth.RedirectURL != ""
}

// AuthCodeURL is the consent page URL. Offline access is requested so a
// refresh token is issued.
func (g *GoogleCalendar) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (g *GoogleCalendar) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return g.oauth.Exchange(ctx, code)
}

// ListBusy returns the busy events between from and to. The returned token
// differs from tok when the access token was refreshed.
func (g *GoogleCalendar) ListBusy(ctx context.Context, tok *oauth2.Token, from, to time.Time) ([]eventEntity.CalendarBusyEvent, *oauth2.Token, error) {
	source := g.oauth.TokenSource(ctx, tok)
	client := oauth2.NewClient(ctx, source)
	client.Timeout = 30 * time.Second

	var busy []eventEntity.CalendarBusyEvent
	pageToken := ""
	for {
		page, err := g.listPage(ctx, client, from, to, pageToken)
		if err != nil {
			return nil, nil, err
		}
		busy = append(busy, toBusyEvents(page.Items)...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	current, err := source.Token()
	if err != nil {
		return nil, nil, err
	}
	return busy, current, nil
}

func (g *GoogleCalendar) listPage(ctx context.Context, client *http.Client, from, to time.Time, pageToken string) (*googleEventList, error) {
	q := url.Values{}
	q.Set("timeMin", from.Format(time.RFC3339))
	q.Set("timeMax", to.Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	q.Set("maxResults", "250")
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/calendars/primary/events?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("google calendar events: status %d: %s", resp.StatusCode, body)
	}

	var page googleEventList
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, err
	}
	return &page, nil
}

// toBusyEvents keeps timed, opaque, confirmed events and floors each start to
// its half-hour label.
func toBusyEvents(items []googleEvent) []eventEntity.CalendarBusyEvent {
	busy := make([]eventEntity.CalendarBusyEvent, 0, len(items))
	for _, item := range items {
		if item.Start.DateTime == "" || item.Status == "cancelled" || item.Transparency == "transparent" {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			logger.Warn("GoogleCalendar:toBusyEvents:BadStart", "value", item.Start.DateTime, "error", err)
			continue
		}
		label, ok := eventEntity.LabelAt(start.Hour(), start.Minute())
		if !ok {
			continue
		}

		duration := 0
		if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil && end.After(start) {
			duration = int(end.Sub(start).Minutes())
		}

		title := item.Summary
		if title == "" {
			title = "Busy"
		}
		busy = append(busy, eventEntity.CalendarBusyEvent{
			Title:           title,
			StartTime:       label,
			DurationMinutes: duration,
		})
	}
	return busy
}
