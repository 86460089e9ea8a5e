// Package commands parses the command-palette input into typed commands
// and dispatches them to handlers supplied by the UI layer.
package commands

import (
	"fmt"
	"strconv"
	"strings"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeDone     Type = "done"
	TypeReopen   Type = "reopen"
	TypeNextUp   Type = "nextup"
	TypeAssign   Type = "assign"
	TypeDuration Type = "duration"
	TypeDelete   Type = "delete"
	TypeEnd      Type = "end"
	TypeShow     Type = "show"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AddArgs carries a quick-entry line. Inline tokens are stripped from
// the title: "#30min" sets the duration, "!high"/"!medium"/"!low" the
// importance, "!urgent" the urgency, "@work" a tag, "due:..." the due
// date and "every:..." the recurrence rule.
type AddArgs struct {
	Title           string
	DurationMinutes int
	Importance      string
	Urgent          bool
	Tags            []string
	Due             string
	Every           string
}

type DoneArgs struct {
	Target string
}

type ReopenArgs struct {
	Target string
}

type NextUpArgs struct {
	Target string
	Off    bool
}

type AssignArgs struct {
	Target string
	Block  string
}

type DurationArgs struct {
	Target  string
	Minutes int
}

// DeleteArgs removes one task, or with All set the whole open series the
// task belongs to (completed instances stay).
type DeleteArgs struct {
	Target string
	All    bool
}

type EndArgs struct {
	Group string
}

type ShowArgs struct {
	Subject string
	Tag     string
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Done     *DoneArgs
	Reopen   *ReopenArgs
	NextUp   *NextUpArgs
	Assign   *AssignArgs
	Duration *DurationArgs
	Delete   *DeleteArgs
	End      *EndArgs
	Show     *ShowArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone:
		return parseDone(input, args)
	case TypeReopen:
		return parseReopen(input, args)
	case TypeNextUp:
		return parseNextUp(input, args)
	case TypeAssign:
		return parseAssign(input, args)
	case TypeDuration:
		return parseDuration(input, args)
	case TypeDelete:
		return parseDelete(input, args)
	case TypeEnd:
		return parseEnd(input, args)
	case TypeShow:
		return parseShow(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}

	add := AddArgs{}
	var titleWords []string
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "#") && strings.HasSuffix(lower, "min"):
			minutes, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(lower, "#"), "min"))
			if err != nil || minutes <= 0 {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("bad duration token: %s", arg)}
			}
			add.DurationMinutes = minutes
		case lower == "!urgent":
			add.Urgent = true
		case lower == "!high" || lower == "!medium" || lower == "!low":
			add.Importance = strings.TrimPrefix(lower, "!")
		case strings.HasPrefix(arg, "@") && len(arg) > 1:
			add.Tags = append(add.Tags, strings.TrimPrefix(arg, "@"))
		case strings.HasPrefix(lower, "due:"):
			add.Due = strings.TrimPrefix(lower, "due:")
		case strings.HasPrefix(lower, "every:"):
			add.Every = strings.TrimPrefix(lower, "every:")
		default:
			titleWords = append(titleWords, arg)
		}
	}

	add.Title = strings.TrimSpace(strings.Join(titleWords, " "))
	if add.Title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &add}, nil
}

func parseDone(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "done requires a task id"}
	}
	return Command{Type: TypeDone, Raw: raw, Done: &DoneArgs{Target: args[0]}}, nil
}

func parseReopen(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "reopen requires a task id"}
	}
	return Command{Type: TypeReopen, Raw: raw, Reopen: &ReopenArgs{Target: args[0]}}, nil
}

func parseNextUp(raw string, args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "nextup requires a task id"}
	}
	off := false
	if len(args) == 2 {
		if strings.ToLower(args[1]) != "off" {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unexpected argument: %s", args[1])}
		}
		off = true
	}
	return Command{Type: TypeNextUp, Raw: raw, NextUp: &NextUpArgs{Target: args[0], Off: off}}, nil
}

func parseAssign(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "assign requires a task id and a block id"}
	}
	return Command{Type: TypeAssign, Raw: raw, Assign: &AssignArgs{Target: args[0], Block: args[1]}}, nil
}

func parseDuration(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "duration requires a task id and minutes"}
	}
	token := strings.TrimSuffix(strings.ToLower(args[1]), "min")
	minutes, err := strconv.Atoi(token)
	if err != nil || minutes < 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("bad minutes: %s", args[1])}
	}
	return Command{Type: TypeDuration, Raw: raw, Duration: &DurationArgs{Target: args[0], Minutes: minutes}}, nil
}

func parseDelete(raw string, args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "delete requires a task id"}
	}
	all := false
	if len(args) == 2 {
		if strings.ToLower(args[1]) != "all" {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unexpected argument: %s", args[1])}
		}
		all = true
	}
	return Command{Type: TypeDelete, Raw: raw, Delete: &DeleteArgs{Target: args[0], All: all}}, nil
}

func parseEnd(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "end requires a series group id"}
	}
	return Command{Type: TypeEnd, Raw: raw, End: &EndArgs{Group: args[0]}}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "show requires a subject"}
	}
	subject := strings.ToLower(args[0])
	switch subject {
	case "plan", "today", "week", "blocks", "someday":
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown subject: %s", subject)}
	}
	tag := ""
	for _, arg := range args[1:] {
		if strings.HasPrefix(strings.ToLower(arg), "tag:") {
			tag = strings.TrimSpace(strings.TrimPrefix(arg, "tag:"))
		}
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: subject, Tag: tag}}, nil
}
