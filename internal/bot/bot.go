// Package bot holds the command handlers. It knows nothing about the chat
// platform: commands arrive as Invocations and replies leave through a
// Responder.
package bot

import (
	"context"
	"errors"
	"log"
	"runtime/debug"
	"time"

	"bankbot/internal/confirm"
	"bankbot/internal/config"
	"bankbot/internal/domain"
	"bankbot/internal/reply"
)

// Responder delivers replies for one invocation. Defer acknowledges the
// invocation, Respond replaces the visible reply and Notify sends a private
// message without touching it.
type Responder interface {
	Defer(ctx context.Context) error
	Respond(ctx context.Context, r reply.Reply) error
	Notify(ctx context.Context, r reply.Reply) error
}

// BankAPI is the subset of the backend client used by the handlers.
type BankAPI interface {
	Accounts(ctx context.Context, token string) (domain.AccountList, error)
	AccountDetails(ctx context.Context, token string, accountID int64) (domain.AccountDetail, error)
	AccountBalance(ctx context.Context, token string, accountID int64) (domain.Balance, error)
	AccountOperations(ctx context.Context, token string, accountID int64, limit, offset int) (domain.OperationPage, error)
	CreateOperation(ctx context.Context, token string, req domain.OperationRequest) (domain.CreatedOperation, error)
	SearchOperations(ctx context.Context, token string, f domain.SearchFilter) ([]domain.Operation, error)
	Profile(ctx context.Context, token string) (domain.Profile, error)
	Stats(ctx context.Context, token string) (domain.Stats, error)
	LinkStatus(ctx context.Context, token string) (domain.LinkStatus, error)
	UnlinkDiscord(ctx context.Context, token string) bool
}

type CredentialResolver interface {
	Resolve(ctx context.Context, externalID string) (string, bool)
	Forget(externalID string)
}

// Recorder receives flow lifecycle events. Payloads never carry credentials.
type Recorder interface {
	Record(ctx context.Context, eventType domain.EventType, userID string, payload map[string]interface{})
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, domain.EventType, string, map[string]interface{}) {}

type handlerFunc func(ctx context.Context, inv Invocation, rsp Responder) (reply.Reply, error)

type command struct {
	run handlerFunc
	// action completes "Something went wrong while ..." in generic errors.
	action string
}

type Bot struct {
	api      BankAPI
	resolver CredentialResolver
	flows    *confirm.Registry
	audit    Recorder
	loginURL string

	commands map[string]command
}

func New(cfg *config.Config, api BankAPI, resolver CredentialResolver, flows *confirm.Registry, audit Recorder) *Bot {
	if audit == nil {
		audit = nopRecorder{}
	}
	b := &Bot{
		api:      api,
		resolver: resolver,
		flows:    flows,
		audit:    audit,
		loginURL: cfg.WebsiteURL() + "/login.php",
	}
	b.commands = map[string]command{
		"accounts":   {b.accounts, "fetching your accounts"},
		"balance":    {b.balance, "fetching the balance"},
		"operations": {b.operations, "fetching the operations"},
		"stats":      {b.stats, "fetching your statistics"},
		"link":       {b.link, "preparing the link"},
		"unlink":     {b.unlink, "unlinking your account"},
		"status":     {b.status, "checking the link status"},
		"operation":  {b.operation, "creating the operation"},
		"search":     {b.search, "searching"},
	}
	return b
}

// Handle runs one command to completion. It always acknowledges the
// invocation and always ends with a reply, whatever happens in between.
func (b *Bot) Handle(ctx context.Context, inv Invocation, rsp Responder) {
	start := time.Now()
	outcome := b.handle(ctx, inv, rsp)
	commandsTotal.WithLabelValues(inv.Command, outcome).Inc()
	commandDuration.WithLabelValues(inv.Command).Observe(time.Since(start).Seconds())
}

func (b *Bot) handle(ctx context.Context, inv Invocation, rsp Responder) (outcome string) {
	cmd, known := b.commands[inv.Command]
	if !known {
		cmd = command{action: "running this command"}
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("bot: panic command=%s user=%s: %v\n%s", inv.Command, inv.UserID, rec, debug.Stack())
			b.respond(ctx, inv.Command, rsp, reply.Failure(cmd.action))
			outcome = "panic"
		}
	}()

	if err := rsp.Defer(ctx); err != nil {
		log.Printf("bot: defer failed command=%s user=%s: %v", inv.Command, inv.UserID, err)
	}

	if !known {
		b.respond(ctx, inv.Command, rsp, reply.New(reply.Error, "Unknown command", "This command does not exist."))
		return KindValidation.String()
	}

	r, err := cmd.run(ctx, inv, rsp)
	outcome = "ok"
	if err != nil {
		e := classify(err)
		r = errorReply(inv.Command, cmd.action, e)
		outcome = e.Kind.String()
	}
	b.respond(ctx, inv.Command, rsp, r)
	return outcome
}

func (b *Bot) respond(ctx context.Context, command string, rsp Responder, r reply.Reply) {
	if err := rsp.Respond(ctx, r); err != nil {
		log.Printf("bot: respond failed command=%s: %v", command, err)
	}
}

// HandleAction answers a confirm or cancel press on a prompt.
func (b *Bot) HandleAction(ctx context.Context, act Action, rsp Responder) {
	name := "cancel"
	if act.Confirm {
		name = "confirm"
	}
	outcome := "ok"
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("bot: panic action=%s flow=%s user=%s: %v\n%s", name, act.FlowID, act.UserID, rec, debug.Stack())
			b.respond(ctx, name, rsp, reply.Failure("processing your answer"))
			outcome = "panic"
		}
		commandsTotal.WithLabelValues(name, outcome).Inc()
	}()

	if err := rsp.Defer(ctx); err != nil {
		log.Printf("bot: defer failed action=%s flow=%s: %v", name, act.FlowID, err)
	}

	var (
		info confirm.Info
		r    reply.Reply
		err  error
	)
	if act.Confirm {
		info, r, err = b.flows.Confirm(ctx, act.FlowID, act.UserID)
	} else {
		info, err = b.flows.Cancel(act.FlowID, act.UserID)
		if err == nil {
			b.recordFlow(ctx, info, info.State, nil)
			r = reply.Cancelled(kindLabel(info.Kind))
		}
	}

	switch {
	case err == nil:
		b.respond(ctx, name, rsp, closedPrompt(r, info.ID))
	case errors.Is(err, confirm.ErrExpired):
		outcome = "expired"
		b.respond(ctx, name, rsp, closedPrompt(reply.Expired(), act.FlowID))
	case errors.Is(err, confirm.ErrNotOwner):
		outcome = "not_owner"
		b.notify(ctx, name, rsp, reply.NotYourFlow())
	default:
		outcome = "unavailable"
		b.notify(ctx, name, rsp, reply.FlowUnavailable())
	}
}

func (b *Bot) notify(ctx context.Context, command string, rsp Responder, r reply.Reply) {
	if err := rsp.Notify(ctx, r); err != nil {
		log.Printf("bot: notify failed command=%s: %v", command, err)
	}
}

// closedPrompt keeps the prompt's buttons visible but disabled.
func closedPrompt(r reply.Reply, flowID string) reply.Reply {
	r.Actions = &reply.Actions{
		FlowID:       flowID,
		Disabled:     true,
		ConfirmLabel: "Confirm",
		CancelLabel:  "Cancel",
	}
	return r
}

func (b *Bot) credential(ctx context.Context, userID string) (string, error) {
	token, ok := b.resolver.Resolve(ctx, userID)
	if !ok {
		return "", errNotLinked
	}
	return token, nil
}
