package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add      func(AddArgs) (Result, error)
	Done     func(DoneArgs) (Result, error)
	Reopen   func(ReopenArgs) (Result, error)
	NextUp   func(NextUpArgs) (Result, error)
	Assign   func(AssignArgs) (Result, error)
	Duration func(DurationArgs) (Result, error)
	Delete   func(DeleteArgs) (Result, error)
	End      func(EndArgs) (Result, error)
	Show     func(ShowArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "add handler not configured"}
		}
		return handlers.Add(*cmd.Add)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "done handler not configured"}
		}
		return handlers.Done(*cmd.Done)
	case TypeReopen:
		if handlers.Reopen == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "reopen handler not configured"}
		}
		return handlers.Reopen(*cmd.Reopen)
	case TypeNextUp:
		if handlers.NextUp == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "nextup handler not configured"}
		}
		return handlers.NextUp(*cmd.NextUp)
	case TypeAssign:
		if handlers.Assign == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "assign handler not configured"}
		}
		return handlers.Assign(*cmd.Assign)
	case TypeDuration:
		if handlers.Duration == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "duration handler not configured"}
		}
		return handlers.Duration(*cmd.Duration)
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "delete handler not configured"}
		}
		return handlers.Delete(*cmd.Delete)
	case TypeEnd:
		if handlers.End == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "end handler not configured"}
		}
		return handlers.End(*cmd.End)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "show handler not configured"}
		}
		return handlers.Show(*cmd.Show)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
