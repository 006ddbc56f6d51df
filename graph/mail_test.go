package graph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	neturl "net/url"
	"testing"
)

func newMailFixture(t *testing.T, handler http.HandlerFunc) *MailService {
	t.Helper()
	client, _ := newTestClient(t, handler, &scriptedTokens{tokens: []string{"tok-1"}})
	return NewMailService(client)
}

func Test_ListMail_defaults(t *testing.T) {
	var got neturl.Values
	svc := newMailFixture(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[
			{"id":"m1","subject":"Hello","from":{"emailAddress":{"address":"sender@example.com"}},"receivedDateTime":"2025-03-03T08:12:00Z","bodyPreview":"Hi there","isRead":false}
		]}`))
	})

	out, err := svc.List(context.Background(), &ListMailInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got.Get("$top") != "10" {
		t.Fatalf("unexpected $top: %q", got.Get("$top"))
	}
	if got.Get("$orderby") != "receivedDateTime DESC" {
		t.Fatalf("unexpected $orderby: %q", got.Get("$orderby"))
	}
	if got.Has("$filter") {
		t.Fatalf("unexpected $filter: %q", got.Get("$filter"))
	}
	if len(out.Messages) != 1 || out.Messages[0].From != "sender@example.com" || out.Messages[0].IsRead {
		t.Fatalf("unexpected messages: %+v", out.Messages)
	}
	if out.Messages[0].Received != "Mon, 03 Mar 2025 08:12" {
		t.Fatalf("unexpected received display: %q", out.Messages[0].Received)
	}
}

func Test_ListMail_window_filter(t *testing.T) {
	var got neturl.Values
	svc := newMailFixture(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[]}`))
	})

	_, err := svc.List(context.Background(), &ListMailInput{SinceISO: "2025-03-01T00:00:00Z", UntilISO: "2025-03-02T00:00:00Z"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := "receivedDateTime ge 2025-03-01T00:00:00Z and receivedDateTime le 2025-03-02T00:00:00Z"
	if got.Get("$filter") != want {
		t.Fatalf("unexpected filter: %q", got.Get("$filter"))
	}
}

func Test_ListMail_search_excludes_orderby(t *testing.T) {
	var got neturl.Values
	svc := newMailFixture(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[]}`))
	})

	_, err := svc.List(context.Background(), &ListMailInput{Search: "quarterly report", SinceISO: "2025-03-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got.Get("$search") != `"quarterly report"` {
		t.Fatalf("unexpected search: %q", got.Get("$search"))
	}
	if got.Has("$orderby") || got.Has("$filter") {
		t.Fatalf("search must not carry orderby/filter: %v", got)
	}
}

func Test_GetMail(t *testing.T) {
	svc := newMailFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/messages/m1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"m1","subject":"Hello","isRead":true,
			"from":{"emailAddress":{"address":"sender@example.com"}},
			"toRecipients":[{"emailAddress":{"address":"to@example.com"}}],
			"ccRecipients":[{"emailAddress":{"address":"cc@example.com"}}],
			"body":{"contentType":"Text","content":"full body"}
		}`))
	})

	out, err := svc.Get(context.Background(), &GetMailInput{MessageID: "m1"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Body != "full body" || len(out.To) != 1 || len(out.Cc) != 1 {
		t.Fatalf("unexpected detail: %+v", out)
	}
}

func Test_SendMail(t *testing.T) {
	var got sendMailPayload
	svc := newMailFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/me/sendMail" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	})

	err := svc.Send(context.Background(), &SendMailInput{
		To:       []string{"to@example.com"},
		Cc:       []string{"cc@example.com"},
		Subject:  "Status",
		BodyText: "all green",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !got.SaveToSentItems {
		t.Fatal("sent mail must land in Sent Items")
	}
	if got.Message.Body.ContentType != "Text" || got.Message.Body.Content != "all green" {
		t.Fatalf("unexpected body: %+v", got.Message.Body)
	}
	if len(got.Message.ToRecipients) != 1 || got.Message.ToRecipients[0].EmailAddress.Address != "to@example.com" {
		t.Fatalf("unexpected recipients: %+v", got.Message.ToRecipients)
	}
}

func Test_SendMail_html_body(t *testing.T) {
	var got sendMailPayload
	svc := newMailFixture(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
		w.WriteHeader(http.StatusAccepted)
	})
	err := svc.Send(context.Background(), &SendMailInput{
		To:       []string{"to@example.com"},
		Subject:  "Report",
		BodyHTML: "<b>done</b>",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Message.Body.ContentType != "HTML" || got.Message.Body.Content != "<b>done</b>" {
		t.Fatalf("unexpected body: %+v", got.Message.Body)
	}
}
