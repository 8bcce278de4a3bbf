// Package mailer sends respondents a copy of their submitted answers.
// Dispatch goes through Resend's HTTPS API; rendering is a plain HTML table
// numbered Q1..Qn.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
	"github.com/pkg/errors"
)

type Mailer interface {
	SendResponseCopy(ctx context.Context, to, surveyTitle string, questions []model.Question, answers map[string]model.Answer) error
}

// Disabled is the Mailer used when no API key is configured. Sending fails,
// which the submit path logs and swallows.
type Disabled struct{}

func (Disabled) SendResponseCopy(context.Context, string, string, []model.Question, map[string]model.Answer) error {
	return errors.New("mailer is not configured")
}

const resendEndpoint = "https://api.resend.com/emails"

// Resend dispatches through https://resend.com.
type Resend struct {
	apiKey string
	from   string
	client *http.Client
}

func NewResend(apiKey, from string) *Resend {
	return &Resend{
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *Resend) SendResponseCopy(ctx context.Context, to, surveyTitle string, questions []model.Question, answers map[string]model.Answer) error {
	html, err := RenderResponseCopy(surveyTitle, questions, answers)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"from":    m.from,
		"to":      to,
		"subject": "【回答コピー】" + surveyTitle,
		"html":    html,
	})
	if err != nil {
		return errors.Wrap(err, "marshal email")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build email request")
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send email")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("send email: %s: %s", resp.Status, detail)
	}
	return nil
}

var responseCopyTemplate = template.Must(template.New("responseCopy").Parse(`<html lang="ja">
<body style="margin:0;padding:0;font-family:sans-serif;background:#f9fafb">
<div style="max-width:600px;margin:24px auto;background:#fff;border:1px solid #e5e7eb;border-radius:8px">
<div style="padding:24px;background:#f3f4f6;border-bottom:1px solid #e5e7eb">
<h1 style="margin:0;font-size:18px;color:#111">【回答コピー】{{.Title}}</h1>
<p style="margin:8px 0 0;font-size:14px;color:#666">以下はあなたの回答内容です。</p>
</div>
<div style="padding:24px">
<table style="width:100%;border-collapse:collapse;font-size:14px">
{{range .Rows}}<tr>
<td style="padding:8px 12px;border-bottom:1px solid #eee;color:#666;white-space:nowrap;vertical-align:top">{{.Number}}</td>
<td style="padding:8px 12px;border-bottom:1px solid #eee;font-weight:600">{{.Label}}</td>
<td style="padding:8px 12px;border-bottom:1px solid #eee">{{.Value}}</td>
</tr>
{{end}}</table>
</div>
<div style="padding:16px 24px;background:#f9fafb;border-top:1px solid #e5e7eb">
<p style="margin:0;font-size:12px;color:#999">このメールは自動送信されました。</p>
</div>
</div>
</body>
</html>
`))

type summaryRow struct {
	Number string
	Label  string
	Value  string
}

// RenderResponseCopy builds the HTML answer summary: one row per question in
// survey order, list answers joined with "、", unanswered questions blank.
func RenderResponseCopy(surveyTitle string, questions []model.Question, answers map[string]model.Answer) (string, error) {
	rows := make([]summaryRow, len(questions))
	for i, q := range questions {
		value := ""
		if a, ok := answers[q.ID]; ok {
			if a.IsList {
				value = strings.Join(a.List, "、")
			} else {
				value = a.Text
			}
		}
		rows[i] = summaryRow{
			Number: fmt.Sprintf("Q%d", i+1),
			Label:  q.Label,
			Value:  value,
		}
	}

	var buf bytes.Buffer
	err := responseCopyTemplate.Execute(&buf, map[string]any{
		"Title": surveyTitle,
		"Rows":  rows,
	})
	if err != nil {
		return "", errors.Wrap(err, "render email")
	}
	return buf.String(), nil
}
