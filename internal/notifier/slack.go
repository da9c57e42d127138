package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/atsprobe/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// maxListedCompanies caps the per-company lines in one Slack message.
const maxListedCompanies = 15

// SlackNotifier sends batch summaries to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each batch summary to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends one Block Kit message per batch. Batches with no changes and
// no errors are not sent.
func (s *SlackNotifier) Notify(ctx context.Context, report model.BatchReport) error {
	if report.Totals.IsZero() && report.Errors == 0 {
		s.logger.Debug("nothing to report to slack", "processed", report.Processed)
		return nil
	}

	body, err := json.Marshal(buildPayload(report))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryAfter):
		}

		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack summary sent", "companies", report.Processed, "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack summary sent", "companies", report.Processed)
	return nil
}

// post sends body to the webhook and returns the status and any Retry-After delay.
func (s *SlackNotifier) post(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a sample batch summary to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	report := model.BatchReport{
		Processed:  2,
		Discovered: 1,
		Errors:     1,
		Totals:     model.SyncDelta{Created: 3, Updated: 1},
		Companies: []model.CompanyReport{
			{Domain: "example.com", Provider: model.ProviderGreenhouse, Slug: "example", Fetched: 4, Delta: model.SyncDelta{Created: 3, Updated: 1}},
			{Domain: "example.org", Err: "test notification, integration verified"},
		},
	}
	return n.Notify(ctx, report)
}

func buildPayload(r model.BatchReport) slackPayload {
	summary := fmt.Sprintf("atsprobe: %d created, %d updated, %d closed across %d companies",
		r.Totals.Created, r.Totals.Updated, r.Totals.Deactivated, r.Processed)

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("🔎 Sync finished: %d companies", r.Processed)},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Created:*\n" + strconv.Itoa(r.Totals.Created)},
				{Type: "mrkdwn", Text: "*Updated:*\n" + strconv.Itoa(r.Totals.Updated)},
				{Type: "mrkdwn", Text: "*Closed:*\n" + strconv.Itoa(r.Totals.Deactivated)},
				{Type: "mrkdwn", Text: "*Discovered:*\n" + strconv.Itoa(r.Discovered)},
			},
		},
	}

	var changed, failed []string
	for _, c := range r.Companies {
		switch {
		case c.Err != "":
			failed = append(failed, fmt.Sprintf("• `%s`: %s", c.Domain, c.Err))
		case !c.Delta.IsZero():
			changed = append(changed, fmt.Sprintf("• *%s* (%s) +%d ~%d -%d",
				c.Domain, c.Provider, c.Delta.Created, c.Delta.Updated, c.Delta.Deactivated))
		}
	}

	if len(changed) > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Changes*\n" + listLines(changed)},
		})
	}
	if len(failed) > 0 {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Errors*\n" + listLines(failed)},
		})
	}

	blocks = append(blocks,
		slackBlock{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("%d skipped, %d errors", r.Skipped, r.Errors)},
			},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Text: summary, Blocks: blocks}
}

// listLines joins lines, truncating after maxListedCompanies.
func listLines(lines []string) string {
	if len(lines) <= maxListedCompanies {
		return strings.Join(lines, "\n")
	}
	more := len(lines) - maxListedCompanies
	return strings.Join(lines[:maxListedCompanies], "\n") + fmt.Sprintf("\n…and %d more", more)
}
