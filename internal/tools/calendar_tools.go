package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/example/family-scheduler/internal/application"
	"github.com/example/family-scheduler/internal/identity"
	"github.com/example/family-scheduler/internal/logging"
	"github.com/example/family-scheduler/internal/timeparse"
)

// RegisterCalendarTools registers the scheduling tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, svc *application.CalendarService) {
	checkAvailabilityTool := mcp.NewTool("check_availability",
		mcp.WithDescription("Check whether a time slot is free in the shared family calendar"),
		mcp.WithString("start_time",
			mcp.Required(),
			mcp.Description("Slot start (RFC3339 with offset, e.g. '2026-01-07T21:00:00+03:00')"),
		),
		mcp.WithNumber("duration_minutes",
			mcp.Required(),
			mcp.Description("Slot length in minutes, must be positive"),
		),
	)
	s.AddTool(checkAvailabilityTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCheckAvailability(ctx, request, svc)
	})

	scheduleEventTool := mcp.NewTool("schedule_event",
		mcp.WithDescription("Schedule a new event in the shared family calendar"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("datetime",
			mcp.Required(),
			mcp.Description("Event start (RFC3339 with offset)"),
		),
		mcp.WithNumber("duration_minutes",
			mcp.Required(),
			mcp.Description("Event length in minutes, must be positive"),
		),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Event category: 'children', 'home', 'repair' or 'personal'"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status: 'proposed' (default) or 'confirmed'"),
		),
		mcp.WithString("participant_scope",
			mcp.Description("Who takes part: 'self' (default) or 'both'"),
		),
		mcp.WithBoolean("notify_partner",
			mcp.Description("Send the partner a notification about the new event"),
		),
		mcp.WithNumber("actor_id",
			mcp.Description("Acting user id; defaults to the ambient conversation identity"),
		),
	)
	s.AddTool(scheduleEventTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleScheduleEvent(ctx, request, svc)
	})

	getAgendaTool := mcp.NewTool("get_agenda",
		mcp.WithDescription("List the shared calendar events for one day"),
		mcp.WithString("target_date",
			mcp.Description("Day to list (ISO date, e.g. '2026-01-10'); defaults to today"),
		),
	)
	s.AddTool(getAgendaTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetAgenda(ctx, request, svc)
	})

	getAgendaForPeriodTool := mcp.NewTool("get_agenda_for_period",
		mcp.WithDescription("List the shared calendar events for an inclusive date range"),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("First day of the range (ISO date)"),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("Last day of the range (ISO date)"),
		),
	)
	s.AddTool(getAgendaForPeriodTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetAgendaForPeriod(ctx, request, svc)
	})

	updateEventTool := mcp.NewTool("update_event",
		mcp.WithDescription("Change fields of an event you created"),
		mcp.WithNumber("event_id",
			mcp.Required(),
			mcp.Description("Id of the event to change"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("datetime",
			mcp.Description("New start (RFC3339 with offset)"),
		),
		mcp.WithNumber("duration_minutes",
			mcp.Description("New length in minutes"),
		),
		mcp.WithString("category",
			mcp.Description("New category: 'children', 'home', 'repair' or 'personal'"),
		),
		mcp.WithNumber("actor_id",
			mcp.Description("Acting user id; defaults to the ambient conversation identity"),
		),
	)
	s.AddTool(updateEventTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleUpdateEvent(ctx, request, svc)
	})

	cancelEventsTool := mcp.NewTool("cancel_events",
		mcp.WithDescription("Cancel events you created, by id list or by date range with optional filters"),
		mcp.WithArray("event_ids",
			mcp.Description("Ids of the events to cancel"),
		),
		mcp.WithString("start_date",
			mcp.Description("First day of the range (ISO date); requires end_date"),
		),
		mcp.WithString("end_date",
			mcp.Description("Last day of the range (ISO date); requires start_date"),
		),
		mcp.WithString("category",
			mcp.Description("Only cancel events of this category"),
		),
		mcp.WithString("title_filter",
			mcp.Description("Only cancel events whose title contains this text"),
		),
		mcp.WithNumber("actor_id",
			mcp.Description("Acting user id; defaults to the ambient conversation identity"),
		),
	)
	s.AddTool(cancelEventsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCancelEvents(ctx, request, svc)
	})

	getCurrentDatetimeTool := mcp.NewTool("get_current_datetime",
		mcp.WithDescription("Get the current date and time in the family's timezone"),
	)
	s.AddTool(getCurrentDatetimeTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetCurrentDatetime(ctx, request, svc)
	})
}

func handleCheckAvailability(ctx context.Context, request mcp.CallToolRequest, svc *application.CalendarService) (*mcp.CallToolResult, error) {
	ctx, logger := turnContext(ctx, request, "check_availability")
	args := request.GetArguments()

	startStr, ok := args["start_time"].(string)
	if !ok || startStr == "" {
		return mcp.NewToolResultError("start_time is required"), nil
	}
	start, err := timeparse.ParseDateTime("start_time", startStr, svc.Location())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	duration, err := intArg(args, "duration_minutes", true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := svc.CheckAvailability(ctx, start, int(duration))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.IsAvailable {
		return mcp.NewToolResultText("The slot is free."), nil
	}

	logger.Info("slot unavailable", "start", startStr, "conflicts", len(result.ConflictingEvents))
	var sb strings.Builder
	fmt.Fprintf(&sb, "The slot is taken, %d conflicting event(s):\n", len(result.ConflictingEvents))
	for _, event := range result.ConflictingEvents {
		sb.WriteString(formatEventLine(event, svc.Location()))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func handleScheduleEvent(ctx context.Context, request mcp.CallToolRequest, svc *application.CalendarService) (*mcp.CallToolResult, error) {
	ctx, logger := turnContext(ctx, request, "schedule_event")
	args := request.GetArguments()

	title, ok := args["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	startStr, ok := args["datetime"].(string)
	if !ok || startStr == "" {
		return mcp.NewToolResultError("datetime is required"), nil
	}
	start, err := timeparse.ParseDateTime("datetime", startStr, svc.Location())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	duration, err := intArg(args, "duration_minutes", true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	categoryStr, ok := args["category"].(string)
	if !ok || categoryStr == "" {
		return mcp.NewToolResultError("category is required"), nil
	}
	category, err := application.ParseEventCategory(categoryStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	draft := application.EventDraft{
		Title:           strings.TrimSpace(title),
		Start:           start,
		DurationMinutes: int(duration),
		Category:        category,
	}

	if statusStr, ok := args["status"].(string); ok && statusStr != "" {
		status, err := application.ParseEventStatus(statusStr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		draft.Status = status
	}

	scope := application.ScopeSelf
	if scopeStr, ok := args["participant_scope"].(string); ok && scopeStr != "" {
		scope, err = application.ParseParticipantScope(scopeStr)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	notifyPartner := false
	if v, ok := args["notify_partner"].(bool); ok {
		notifyPartner = v
	}

	actorID, err := intArg(args, "actor_id", false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	draft.CreatorActorID = actorID

	result, err := svc.ScheduleEvent(ctx, draft, scope, notifyPartner)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !result.Success {
		logger.Info("schedule rejected", "title", draft.Title, "conflicts", len(result.Conflicts))
		var sb strings.Builder
		sb.WriteString(result.Message)
		for _, conflict := range result.Conflicts {
			sb.WriteString("\n")
			sb.WriteString(formatEventLine(conflict.ConflictingEvent, svc.Location()))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Scheduled %q, event id %d.", draft.Title, result.EventID)), nil
}

func handleGetAgenda(ctx context.Context, request mcp.CallToolRequest, svc *application.CalendarService) (*mcp.CallToolResult, error) {
	ctx, _ = turnContext(ctx, request, "get_agenda")
	args := request.GetArguments()

	var targetDate *timeparse.Date
	if raw, ok := args["target_date"].(string); ok && raw != "" {
		parsed, err := timeparse.ParseDate("target_date", raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		targetDate = &parsed
	}

	events, err := svc.Agenda(ctx, targetDate)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAgenda(events, svc.Location())), nil
}

func handleGetAgendaForPeriod(ctx context.Context, request mcp.CallToolRequest, svc *application.CalendarService) (*mcp.CallToolResult, error) {
	ctx, _ = turnContext(ctx, request, "get_agenda_for_period")
	args := request.GetArguments()

	startRaw, ok := args["start_date"].(string)
	if !ok || startRaw == "" {
		return mcp.NewToolResultError("start_date is required"), nil
	}
	startDate, err := timeparse.ParseDate("start_date", startRaw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	endRaw, ok := args["end_date"].(string)
	if !ok || endRaw == "" {
		return mcp.NewToolResultError("end_date is required"), nil
	}
	endDate, err := timeparse.ParseDate("end_date", endRaw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := svc.AgendaForPeriod(ctx, startDate, endDate)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAgenda(events, svc.Location())), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, svc *application.CalendarService) (*mcp.CallToolResult, error) {
	ctx, logger := turnContext(ctx, request, "update_event")
	args := request.GetArguments()

	eventID, err := intArg(args, "event_id", true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var patch application.EventPatch
	if title, ok := args["title"].(string); ok && title != "" {
		patch.Title = &title
	}
	if raw, ok := args["datetime"].(string); ok && raw != "" {
		start, err := timeparse.ParseDateTime("datetime", raw, svc.Location())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		patch.Start = &start
	}
	if _, ok := args["duration_minutes"]; ok {
		duration, err := intArg(args, "duration_minutes", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		d := int(duration)
		patch.DurationMinutes = &d
	}
	if raw, ok := args["category"].(string); ok && raw != "" {
		category, err := application.ParseEventCategory(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		patch.Category = &category
	}

	actorID, err := intArg(args, "actor_id", false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := svc.UpdateEvent(ctx, eventID, actorID, patch)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !result.Success {
		logger.Info("update rejected", "event_id", eventID, "reason", result.Message)
		var sb strings.Builder
		sb.WriteString(result.Message)
		for _, conflict := range result.Conflicts {
			sb.WriteString("\n")
			sb.WriteString(formatEventLine(conflict.ConflictingEvent, svc.Location()))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event %d updated.", eventID)), nil
}

func handleCancelEvents(ctx context.Context, request mcp.CallToolRequest, svc *application.CalendarService) (*mcp.CallToolResult, error) {
	ctx, logger := turnContext(ctx, request, "cancel_events")
	args := request.GetArguments()

	req := application.CancelRequest{}

	if rawIDs, ok := args["event_ids"].([]any); ok {
		for _, rawID := range rawIDs {
			id, ok := rawID.(float64)
			if !ok {
				return mcp.NewToolResultError("event_ids must contain integers"), nil
			}
			req.EventIDs = append(req.EventIDs, int64(id))
		}
	}

	if raw, ok := args["start_date"].(string); ok && raw != "" {
		startDate, err := timeparse.ParseDate("start_date", raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.StartDate = &startDate
	}
	if raw, ok := args["end_date"].(string); ok && raw != "" {
		endDate, err := timeparse.ParseDate("end_date", raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.EndDate = &endDate
	}
	if raw, ok := args["category"].(string); ok && raw != "" {
		category, err := application.ParseEventCategory(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Category = &category
	}
	if raw, ok := args["title_filter"].(string); ok {
		req.TitleSubstring = raw
	}

	actorID, err := intArg(args, "actor_id", false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req.CreatorActorID = actorID

	result, err := svc.CancelMatching(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	logger.Info("cancel finished", "cancelled", result.CancelledCount, "failed", len(result.FailedIDs))
	var sb strings.Builder
	sb.WriteString(result.Message)
	if len(result.CancelledIDs) > 0 {
		fmt.Fprintf(&sb, "\ncancelled ids: %v", result.CancelledIDs)
	}
	if len(result.FailedIDs) > 0 {
		fmt.Fprintf(&sb, "\nfailed ids: %v", result.FailedIDs)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func handleGetCurrentDatetime(ctx context.Context, request mcp.CallToolRequest, svc *application.CalendarService) (*mcp.CallToolResult, error) {
	_, _ = turnContext(ctx, request, "get_current_datetime")

	now := svc.CurrentDateTime()
	text := fmt.Sprintf("now: %s\ndate: %s\nweekday: %s\n%s",
		now.NowISO, now.DateISO, now.WeekdayRU, now.HumanRU)
	return mcp.NewToolResultText(text), nil
}

// turnContext tags the request context with a per-call id and, when the call
// supplies an actor_id argument, the ambient actor identity.
func turnContext(ctx context.Context, request mcp.CallToolRequest, tool string) (context.Context, *slog.Logger) {
	logger := logging.FromContext(ctx).With("tool", tool, "turn_id", uuid.NewString())
	ctx = logging.ContextWithLogger(ctx, logger)

	if id, ok := request.GetArguments()["actor_id"].(float64); ok && id > 0 {
		ctx = identity.WithActor(ctx, int64(id))
	}
	return ctx, logger
}

func intArg(args map[string]any, name string, required bool) (int64, error) {
	raw, ok := args[name]
	if !ok {
		if required {
			return 0, fmt.Errorf("%s is required", name)
		}
		return 0, nil
	}
	value, ok := raw.(float64)
	if !ok || value != float64(int64(value)) {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return int64(value), nil
}

func formatAgenda(events []application.Event, loc *time.Location) string {
	if len(events) == 0 {
		return "No events."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d event(s):\n", len(events))
	for _, event := range events {
		sb.WriteString(formatEventLine(event, loc))
	}
	return sb.String()
}

func formatEventLine(event application.Event, loc *time.Location) string {
	return fmt.Sprintf("- [%d] %s %s (%d min, %s, %s)\n",
		event.ID,
		event.Start.In(loc).Format("2006-01-02 15:04"),
		event.Title,
		event.DurationMinutes,
		event.Category,
		event.Status)
}
