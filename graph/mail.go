package graph

import (
	"context"
	"fmt"
	neturl "net/url"
	"strconv"
)

// MailService exposes the mailbox operations over the shared gateway.
type MailService struct{ client *Client }

func NewMailService(c *Client) *MailService { return &MailService{client: c} }

type rawMessage struct {
	ID               string        `json:"id"`
	Subject          string        `json:"subject"`
	BodyPreview      string        `json:"bodyPreview,omitempty"`
	ReceivedDateTime string        `json:"receivedDateTime,omitempty"`
	IsRead           bool          `json:"isRead"`
	From             recipient     `json:"from"`
	ToRecipients     []recipient   `json:"toRecipients,omitempty"`
	CcRecipients     []recipient   `json:"ccRecipients,omitempty"`
	Body             *itemBody     `json:"body,omitempty"`
}

func (m *rawMessage) reshape() Message {
	return Message{
		ID:       m.ID,
		Subject:  m.Subject,
		From:     m.From.EmailAddress.Address,
		Received: formatGraphTime(m.ReceivedDateTime),
		Preview:  m.BodyPreview,
		IsRead:   m.IsRead,
	}
}

func (s *MailService) List(ctx context.Context, in *ListMailInput) (*ListMailOutput, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	top := in.Top
	if top <= 0 {
		top = 10
	}
	q := neturl.Values{}
	q.Set("$top", strconv.Itoa(top))
	q.Set("$select", "id,subject,from,receivedDateTime,bodyPreview,isRead")
	if in.Search != "" {
		// $search and $orderby are mutually exclusive on messages.
		q.Set("$search", strconv.Quote(in.Search))
	} else {
		q.Set("$orderby", "receivedDateTime DESC")
		if filter := mailFilter(in); filter != "" {
			q.Set("$filter", filter)
		}
	}
	var payload struct {
		Value []rawMessage `json:"value"`
	}
	if err := s.client.Get(ctx, "/me/messages", q, &payload); err != nil {
		return nil, err
	}
	out := &ListMailOutput{}
	for i := range payload.Value {
		out.Messages = append(out.Messages, payload.Value[i].reshape())
	}
	return out, nil
}

// mailFilter derives the $filter expression; an explicit Filter wins over the
// since/until pair.
func mailFilter(in *ListMailInput) string {
	if in.Filter != "" {
		return in.Filter
	}
	filter := ""
	if in.SinceISO != "" {
		filter = fmt.Sprintf("receivedDateTime ge %s", in.SinceISO)
	}
	if in.UntilISO != "" {
		if filter != "" {
			filter += " and "
		}
		filter += fmt.Sprintf("receivedDateTime le %s", in.UntilISO)
	}
	return filter
}

func (s *MailService) Get(ctx context.Context, in *GetMailInput) (*MessageDetail, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var msg rawMessage
	path := "/me/messages/" + neturl.PathEscape(in.MessageID)
	if err := s.client.Get(ctx, path, nil, &msg); err != nil {
		return nil, err
	}
	out := &MessageDetail{Message: msg.reshape()}
	for _, r := range msg.ToRecipients {
		if addr := r.EmailAddress.Address; addr != "" {
			out.To = append(out.To, addr)
		}
	}
	for _, r := range msg.CcRecipients {
		if addr := r.EmailAddress.Address; addr != "" {
			out.Cc = append(out.Cc, addr)
		}
	}
	if msg.Body != nil {
		out.Body = msg.Body.Content
	}
	return out, nil
}

type messagePayload struct {
	Subject       string      `json:"subject"`
	Body          itemBody    `json:"body"`
	ToRecipients  []recipient `json:"toRecipients"`
	CcRecipients  []recipient `json:"ccRecipients,omitempty"`
	BccRecipients []recipient `json:"bccRecipients,omitempty"`
	Importance    string      `json:"importance,omitempty"`
}

type sendMailPayload struct {
	Message         messagePayload `json:"message"`
	SaveToSentItems bool           `json:"saveToSentItems"`
}

func (s *MailService) Send(ctx context.Context, in *SendMailInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	body := itemBody{ContentType: "Text", Content: in.BodyText}
	if in.BodyHTML != "" {
		body = itemBody{ContentType: "HTML", Content: in.BodyHTML}
	}
	payload := &sendMailPayload{
		Message: messagePayload{
			Subject:       in.Subject,
			Body:          body,
			ToRecipients:  toRecipients(in.To),
			CcRecipients:  toRecipients(in.Cc),
			BccRecipients: toRecipients(in.Bcc),
			Importance:    in.Importance,
		},
		SaveToSentItems: true,
	}
	return s.client.Post(ctx, "/me/sendMail", payload, nil)
}

func (s *MailService) Delete(ctx context.Context, in *DeleteMailInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	return s.client.Delete(ctx, "/me/messages/"+neturl.PathEscape(in.MessageID))
}
