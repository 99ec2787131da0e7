package bot

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"bankbot/internal/bankapi"
	"bankbot/internal/reply"
	"bankbot/internal/validate"
)

// ErrorKind is the closed set of failures a command can end with.
type ErrorKind int

const (
	KindNotLinked ErrorKind = iota + 1
	KindValidation
	KindTransport
	KindBackend
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotLinked:
		return "not_linked"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindBackend:
		return "backend"
	case KindUnexpected:
		return "unexpected"
	}
	return "unknown"
}

type Error struct {
	Kind    ErrorKind
	Title   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

var errNotLinked = &Error{Kind: KindNotLinked, Message: reply.NotLinkedMessage}

func invalidInput(title, message string) *Error {
	return &Error{Kind: KindValidation, Title: title, Message: message}
}

// classify maps any error returned by a handler onto an ErrorKind.
func classify(err error) *Error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	var ve *validate.Error
	if errors.As(err, &ve) {
		return &Error{Kind: KindValidation, Title: validationTitle(ve.Field), Message: ve.Message, Err: err}
	}
	var ae *bankapi.Error
	if errors.As(err, &ae) {
		if ae.Transport {
			return &Error{Kind: KindTransport, Message: ae.Message, Err: err}
		}
		return &Error{Kind: KindBackend, Message: ae.Message, Err: err}
	}
	return &Error{Kind: KindUnexpected, Err: err}
}

func validationTitle(field string) string {
	switch field {
	case "amount":
		return "Invalid amount"
	case "type_operation":
		return "Invalid operation type"
	case "compte_id":
		return "Invalid account"
	case "":
		return "Invalid input"
	}
	return "Invalid " + strings.ToLower(field)
}

// errorReply is the single place where failures become user-visible. action
// completes "Something went wrong while ...".
func errorReply(command, action string, e *Error) reply.Reply {
	switch e.Kind {
	case KindNotLinked:
		log.Printf("bot: command=%s user not linked", command)
		return reply.NotLinked()
	case KindValidation:
		log.Printf("bot: command=%s rejected input: %s", command, e.Message)
		title := e.Title
		if title == "" {
			title = "Invalid input"
		}
		return reply.New(reply.Error, title, e.Message)
	case KindTransport:
		log.Printf("bot: command=%s backend unreachable: %v", command, e)
		return reply.New(reply.Error, "Error", "The bank API could not be reached. Please try again later.")
	case KindBackend:
		log.Printf("bot: command=%s backend refused: %v", command, e)
		if e.Message == "" || e.Message == bankapi.MsgUnknownError {
			return reply.Failure(action)
		}
		return reply.New(reply.Error, "Error", e.Message)
	case KindUnexpected:
		log.Printf("bot: command=%s unexpected error: %v", command, e)
		return reply.Failure(action)
	}
	log.Printf("bot: command=%s unclassified error: %v", command, e)
	return reply.Failure(action)
}
