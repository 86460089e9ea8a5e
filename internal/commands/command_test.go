package commands

import (
	"errors"
	"testing"
)

func TestParseAddQuickEntryTokens(t *testing.T) {
	cmd, err := Parse("/add Write launch email #45min !high !urgent @work due:tomorrow every:week")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cmd.Type != TypeAdd {
		t.Fatalf("Type = %v, want add", cmd.Type)
	}
	add := cmd.Add
	if add.Title != "Write launch email" {
		t.Fatalf("Title = %q", add.Title)
	}
	if add.DurationMinutes != 45 {
		t.Fatalf("DurationMinutes = %d, want 45", add.DurationMinutes)
	}
	if add.Importance != "high" || !add.Urgent {
		t.Fatalf("Importance = %q Urgent = %v", add.Importance, add.Urgent)
	}
	if len(add.Tags) != 1 || add.Tags[0] != "work" {
		t.Fatalf("Tags = %v, want [work]", add.Tags)
	}
	if add.Due != "tomorrow" || add.Every != "week" {
		t.Fatalf("Due = %q Every = %q", add.Due, add.Every)
	}
}

func TestParseAddPlainTitle(t *testing.T) {
	cmd, err := Parse("add Buy milk")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cmd.Add.Title != "Buy milk" {
		t.Fatalf("Title = %q", cmd.Add.Title)
	}
	if cmd.Add.DurationMinutes != 0 || cmd.Add.Urgent || cmd.Add.Importance != "" {
		t.Fatalf("plain add picked up stray tokens: %+v", cmd.Add)
	}
}

func TestParseAddRejectsBadDuration(t *testing.T) {
	if _, err := Parse("add Email #zeromin"); err == nil {
		t.Fatal("expected error for non-numeric duration token")
	}
	if _, err := Parse("add #30min"); err == nil {
		t.Fatal("expected error when only tokens remain and title is empty")
	}
}

func TestParseEmptyAndUnknown(t *testing.T) {
	if _, err := Parse("   "); err == nil {
		t.Fatal("expected error for empty input")
	}
	_, err := Parse("/frobnicate now")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != ErrCodeUnknownCommand {
		t.Fatalf("error = %v, want unknown_command", err)
	}
}

func TestParseNextUpToggle(t *testing.T) {
	cmd, err := Parse("nextup abc123 off")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cmd.NextUp.Target != "abc123" || !cmd.NextUp.Off {
		t.Fatalf("NextUp = %+v", cmd.NextUp)
	}
	if _, err := Parse("nextup abc123 sideways"); err == nil {
		t.Fatal("expected error for unexpected trailing argument")
	}
}

func TestParseDurationAcceptsMinSuffix(t *testing.T) {
	cmd, err := Parse("duration abc123 30min")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cmd.Duration.Minutes != 30 {
		t.Fatalf("Minutes = %d, want 30", cmd.Duration.Minutes)
	}
	cmd, err = Parse("duration abc123 0")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cmd.Duration.Minutes != 0 {
		t.Fatalf("Minutes = %d, want 0 (reverts to default)", cmd.Duration.Minutes)
	}
}

func TestParseDeleteScopes(t *testing.T) {
	cmd, err := Parse("delete abc123")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cmd.Delete.Target != "abc123" || cmd.Delete.All {
		t.Fatalf("Delete = %+v", cmd.Delete)
	}

	cmd, err = Parse("delete abc123 all")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cmd.Delete.Target != "abc123" || !cmd.Delete.All {
		t.Fatalf("Delete = %+v, want the whole-series scope", cmd.Delete)
	}

	if _, err := Parse("delete abc123 everything"); err == nil {
		t.Fatal("expected error for unexpected trailing argument")
	}
	if _, err := Parse("delete"); err == nil {
		t.Fatal("expected error for missing task id")
	}
}

func TestParseShowSubjects(t *testing.T) {
	cmd, err := Parse("show week tag:deep")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cmd.Show.Subject != "week" || cmd.Show.Tag != "deep" {
		t.Fatalf("Show = %+v", cmd.Show)
	}
	if _, err := Parse("show everything"); err == nil {
		t.Fatal("expected error for unknown subject")
	}
}

func TestExecuteDispatchAndMissingHandler(t *testing.T) {
	cmd, err := Parse("done abc123")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	called := ""
	handlers := Handlers{
		Done: func(args DoneArgs) (Result, error) {
			called = args.Target
			return Result{Message: "done"}, nil
		},
	}
	res, err := Execute(cmd, handlers)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if called != "abc123" || res.Message != "done" {
		t.Fatalf("handler got %q, result %+v", called, res)
	}

	_, err = Execute(cmd, Handlers{})
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != ErrCodeHandlerMissing {
		t.Fatalf("error = %v, want handler_missing", err)
	}
}
