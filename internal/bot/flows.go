package bot

import (
	"context"
	"log"
	"strings"
	"time"

	"bankbot/internal/confirm"
	"bankbot/internal/domain"
	"bankbot/internal/reply"
	"bankbot/internal/validate"
)

const (
	flowOperation = "operation"
	flowUnlink    = "unlink"

	expiryEditTimeout = 10 * time.Second
)

var flowEvents = map[string]map[confirm.State]domain.EventType{
	flowOperation: {
		confirm.Proposed:  domain.EventOperationProposed,
		confirm.Confirmed: domain.EventOperationConfirmed,
		confirm.Cancelled: domain.EventOperationCancelled,
		confirm.Expired:   domain.EventOperationExpired,
	},
	flowUnlink: {
		confirm.Proposed:  domain.EventUnlinkProposed,
		confirm.Confirmed: domain.EventUnlinkConfirmed,
		confirm.Cancelled: domain.EventUnlinkCancelled,
		confirm.Expired:   domain.EventUnlinkExpired,
	},
}

func kindLabel(kind string) string {
	if kind == flowUnlink {
		return "unlink request"
	}
	return kind
}

func (b *Bot) unlink(ctx context.Context, inv Invocation, rsp Responder) (reply.Reply, error) {
	token, err := b.credential(ctx, inv.UserID)
	if err != nil {
		return reply.Reply{}, err
	}

	info, err := b.flows.Open(confirm.Proposal{
		Owner: inv.UserID,
		Kind:  flowUnlink,
		Action: func(ctx context.Context, info confirm.Info) reply.Reply {
			return b.confirmUnlink(ctx, info, token)
		},
		OnExpire: b.expiryHook(rsp, nil),
	})
	if err != nil {
		return reply.Reply{}, err
	}
	b.recordFlow(ctx, info, confirm.Proposed, nil)
	return reply.UnlinkPrompt(info.ID), nil
}

func (b *Bot) confirmUnlink(ctx context.Context, info confirm.Info, token string) reply.Reply {
	if !b.api.UnlinkDiscord(ctx, token) {
		log.Printf("bot: unlink failed user=%s flow=%s", info.Owner, info.ID)
		b.recordFlow(ctx, info, confirm.Confirmed, map[string]interface{}{"outcome": "failed"})
		return reply.Failure("unlinking your account")
	}
	b.resolver.Forget(info.Owner)
	b.recordFlow(ctx, info, confirm.Confirmed, map[string]interface{}{"outcome": "unlinked"})
	return reply.Unlinked()
}

func (b *Bot) operation(ctx context.Context, inv Invocation, rsp Responder) (reply.Reply, error) {
	token, err := b.credential(ctx, inv.UserID)
	if err != nil {
		return reply.Reply{}, err
	}

	req, err := operationRequest(inv.Options)
	if err != nil {
		return reply.Reply{}, err
	}

	summary := operationSummary(req)
	info, err := b.flows.Open(confirm.Proposal{
		Owner: inv.UserID,
		Kind:  flowOperation,
		Action: func(ctx context.Context, info confirm.Info) reply.Reply {
			return b.confirmOperation(ctx, info, token, req)
		},
		OnExpire: b.expiryHook(rsp, summary),
	})
	if err != nil {
		return reply.Reply{}, err
	}
	b.recordFlow(ctx, info, confirm.Proposed, summary)
	return reply.OperationPrompt(info.ID, req), nil
}

// operationRequest validates and sanitizes the operation arguments in the
// order a user would fix them: amount, type, then the free-text fields.
func operationRequest(opts Options) (domain.OperationRequest, error) {
	var req domain.OperationRequest

	id, err := requiredAccountID(opts)
	if err != nil {
		return req, err
	}
	amount, ok := opts.Float("montant")
	if !ok {
		return req, invalidInput("Invalid amount", "An amount is required")
	}
	if err := validate.Amount(amount); err != nil {
		return req, err
	}
	typ, _ := opts.String("type_operation")
	typ = strings.ToLower(strings.TrimSpace(typ))
	if err := validate.OperationType(typ); err != nil {
		return req, err
	}

	req = domain.OperationRequest{AccountID: id, Type: typ, Amount: amount}
	for _, field := range []struct {
		key    string
		name   string
		maxLen int
		dst    *string
	}{
		{"destinataire", "Recipient", maxRecipientLen, &req.Recipient},
		{"nature", "Nature", maxNatureLen, &req.Nature},
		{"description", "Description", maxDescriptionLen, &req.Description},
	} {
		raw, ok := opts.String(field.key)
		if !ok {
			continue
		}
		v := validate.Sanitize(raw)
		if v == "" {
			continue
		}
		if err := validate.StringLength(v, 1, field.maxLen, field.name); err != nil {
			return domain.OperationRequest{}, err
		}
		*field.dst = v
	}
	return req, nil
}

func (b *Bot) confirmOperation(ctx context.Context, info confirm.Info, token string, req domain.OperationRequest) reply.Reply {
	payload := operationSummary(req)

	created, err := b.api.CreateOperation(ctx, token, req)
	if err != nil {
		e := classify(err)
		payload["outcome"] = "failed"
		payload["error_kind"] = e.Kind.String()
		b.recordFlow(ctx, info, confirm.Confirmed, payload)
		return errorReply("operation", "recording the operation", e)
	}
	payload["outcome"] = "recorded"
	payload["operation_id"] = int64(created.Operation.ID)
	b.recordFlow(ctx, info, confirm.Confirmed, payload)
	return reply.OperationCreated(created)
}

// expiryHook closes the prompt once its flow has timed out.
func (b *Bot) expiryHook(rsp Responder, payload map[string]interface{}) func(confirm.Info) {
	return func(info confirm.Info) {
		ctx, cancel := context.WithTimeout(context.Background(), expiryEditTimeout)
		defer cancel()
		b.recordFlow(ctx, info, confirm.Expired, payload)
		if err := rsp.Respond(ctx, closedPrompt(reply.Expired(), info.ID)); err != nil {
			log.Printf("bot: expiry edit failed flow=%s: %v", info.ID, err)
		}
	}
}

func (b *Bot) recordFlow(ctx context.Context, info confirm.Info, state confirm.State, extra map[string]interface{}) {
	flowsTotal.WithLabelValues(info.Kind, string(state)).Inc()
	eventType, ok := flowEvents[info.Kind][state]
	if !ok {
		return
	}
	payload := map[string]interface{}{}
	for k, v := range extra {
		payload[k] = v
	}
	if info.ID != "" {
		payload["flow_id"] = info.ID
	}
	b.audit.Record(ctx, eventType, info.Owner, payload)
}

func operationSummary(req domain.OperationRequest) map[string]interface{} {
	return map[string]interface{}{
		"compte_id":      req.AccountID,
		"type_operation": req.Type,
		"montant":        req.Amount,
	}
}
