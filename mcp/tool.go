package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	protoserver "github.com/viant/mcp-protocol/server"

	"github.com/kacase/mcp-outlook/auth"
	"github.com/kacase/mcp-outlook/graph"
)

//go:embed tools/outlookListEvents.md
var outlookListEventsDesc string

//go:embed tools/outlookCreateEvent.md
var outlookCreateEventDesc string

//go:embed tools/outlookUpdateEvent.md
var outlookUpdateEventDesc string

//go:embed tools/outlookDeleteEvent.md
var outlookDeleteEventDesc string

//go:embed tools/outlookAddAttendees.md
var outlookAddAttendeesDesc string

//go:embed tools/outlookListMail.md
var outlookListMailDesc string

//go:embed tools/outlookGetMail.md
var outlookGetMailDesc string

//go:embed tools/outlookSendMail.md
var outlookSendMailDesc string

//go:embed tools/outlookDeleteMail.md
var outlookDeleteMailDesc string

//go:embed tools/outlookSearchPeople.md
var outlookSearchPeopleDesc string

//go:embed tools/outlookGetSchedule.md
var outlookGetScheduleDesc string

//go:embed tools/outlookFindMeetingTimes.md
var outlookFindMeetingTimesDesc string

//go:embed tools/outlookSignOut.md
var outlookSignOutDesc string

func registerTools(base *protoserver.DefaultHandler, h *Handler) error {
	svc := h.service
	ops := h.ops

	// Surface the sign-in page out of band when an interactive flow starts,
	// so the tool call itself can keep waiting for the token.
	if ops != nil && ops.Implements(schema.MethodElicitationCreate) {
		svc.SetPendingNotifier(func(p *PendingAuth) {
			url := p.AuthURL
			if pageBase := strings.TrimRight(svc.BaseURL(), "/"); pageBase != "" {
				url = pageBase + "/outlook/auth/status/" + p.UUID
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				_, _ = ops.Elicit(ctx, &jsonrpc.TypedRequest[*schema.ElicitRequest]{Request: &schema.ElicitRequest{
					Params: schema.ElicitRequestParams{ElicitationId: p.UUID, Message: "Sign in to Outlook", Mode: string(schema.ElicitRequestParamsModeUrl), Url: url},
				}})
			}()
		})
	}

	// Calendar

	if err := protoserver.RegisterTool[*graph.ListEventsInput, *graph.ListEventsOutput](base.Registry, "outlookListEvents", outlookListEventsDesc, func(ctx context.Context, in *graph.ListEventsInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := svc.calendar.List(ctx, in)
		if err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.CreateEventInput, *graph.Event](base.Registry, "outlookCreateEvent", outlookCreateEventDesc, func(ctx context.Context, in *graph.CreateEventInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := svc.calendar.Create(ctx, in)
		if err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.UpdateEventInput, *graph.Event](base.Registry, "outlookUpdateEvent", outlookUpdateEventDesc, func(ctx context.Context, in *graph.UpdateEventInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := svc.calendar.Update(ctx, in)
		if err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.DeleteEventInput, *struct{}](base.Registry, "outlookDeleteEvent", outlookDeleteEventDesc, func(ctx context.Context, in *graph.DeleteEventInput) (*schema.CallToolResult, *jsonrpc.Error) {
		if err := svc.calendar.Delete(ctx, in); err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, map[string]any{"status": "deleted"})
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.AddAttendeesInput, *graph.Event](base.Registry, "outlookAddAttendees", outlookAddAttendeesDesc, func(ctx context.Context, in *graph.AddAttendeesInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := svc.calendar.AddAttendees(ctx, in)
		if err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	// Mail

	if err := protoserver.RegisterTool[*graph.ListMailInput, *graph.ListMailOutput](base.Registry, "outlookListMail", outlookListMailDesc, func(ctx context.Context, in *graph.ListMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := svc.mail.List(ctx, in)
		if err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.GetMailInput, *graph.MessageDetail](base.Registry, "outlookGetMail", outlookGetMailDesc, func(ctx context.Context, in *graph.GetMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := svc.mail.Get(ctx, in)
		if err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.SendMailInput, *struct{}](base.Registry, "outlookSendMail", outlookSendMailDesc, func(ctx context.Context, in *graph.SendMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		if err := svc.mail.Send(ctx, in); err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, map[string]any{"status": "sent"})
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.DeleteMailInput, *struct{}](base.Registry, "outlookDeleteMail", outlookDeleteMailDesc, func(ctx context.Context, in *graph.DeleteMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		if err := svc.mail.Delete(ctx, in); err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, map[string]any{"status": "deleted"})
	}); err != nil {
		return err
	}

	// People

	if err := protoserver.RegisterTool[*graph.SearchPeopleInput, *graph.SearchPeopleOutput](base.Registry, "outlookSearchPeople", outlookSearchPeopleDesc, func(ctx context.Context, in *graph.SearchPeopleInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := svc.people.Search(ctx, in)
		if err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	// Schedule

	if err := protoserver.RegisterTool[*graph.GetScheduleInput, *graph.GetScheduleOutput](base.Registry, "outlookGetSchedule", outlookGetScheduleDesc, func(ctx context.Context, in *graph.GetScheduleInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := svc.schedule.GetSchedule(ctx, in)
		if err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*graph.FindMeetingTimesInput, *graph.FindMeetingTimesOutput](base.Registry, "outlookFindMeetingTimes", outlookFindMeetingTimesDesc, func(ctx context.Context, in *graph.FindMeetingTimesInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := svc.schedule.FindMeetingTimes(ctx, in)
		if err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	// Auth

	if err := protoserver.RegisterTool[*struct{}, *struct{}](base.Registry, "outlookSignOut", outlookSignOutDesc, func(ctx context.Context, _ *struct{}) (*schema.CallToolResult, *jsonrpc.Error) {
		if err := svc.Manager().SignOut(ctx); err != nil {
			return buildFailureResult(svc, err)
		}
		return buildSuccessResult(svc, map[string]any{"status": "signedOut"})
	}); err != nil {
		return err
	}

	return nil
}

// failureCondition classifies an operation failure for the tool result.
func failureCondition(err error) string {
	var verr *graph.ValidationError
	if errors.As(err, &verr) {
		return "ValidationFailed"
	}
	var rerr *graph.RemoteError
	if errors.As(err, &rerr) {
		return "RemoteRequestFailed"
	}
	if errors.Is(err, auth.ErrInteractionRequired) {
		return "InteractionRequired"
	}
	if errors.Is(err, auth.ErrAuthenticationFailed) {
		return "AuthenticationFailed"
	}
	return "RequestFailed"
}

// buildFailureResult converts an operation failure into a tool result: invalid
// input is a protocol-level error, everything else is an IsError result that
// carries the failure condition so the model can react.
func buildFailureResult(service *Service, err error) (*schema.CallToolResult, *jsonrpc.Error) {
	var verr *graph.ValidationError
	if errors.As(err, &verr) {
		return nil, jsonrpc.NewError(jsonrpc.InvalidParams, verr.Message, nil)
	}
	return buildToolErrorResult(service, failureCondition(err)+": "+err.Error()), nil
}

func buildSuccessResult(service *Service, payload any) (*schema.CallToolResult, *jsonrpc.Error) {
	if service.UseTextField() {
		b, _ := json.Marshal(payload)
		return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{{Type: "text", Text: string(b)}}}, nil
	}
	return &schema.CallToolResult{StructuredContent: map[string]any{"result": payload}}, nil
}

func buildToolErrorResult(service *Service, message string) *schema.CallToolResult {
	isErr := true
	if service.UseTextField() {
		return &schema.CallToolResult{IsError: &isErr, Content: []schema.CallToolResultContentElem{{Type: "text", Text: message}}}
	}
	return &schema.CallToolResult{IsError: &isErr, StructuredContent: map[string]any{"error": message}}
}
