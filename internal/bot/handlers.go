package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"bankbot/internal/bankapi"
	"bankbot/internal/domain"
	"bankbot/internal/reply"
	"bankbot/internal/validate"
)

const (
	maxOperationsListed = 10
	defaultSearchLimit  = 10
	maxSearchLimit      = 20

	maxRecipientLen   = 255
	maxNatureLen      = 100
	maxDescriptionLen = 1000
)

var errAccountNotFound = &Error{Kind: KindBackend, Message: "Account not found or not accessible."}

func (b *Bot) accounts(ctx context.Context, inv Invocation, _ Responder) (reply.Reply, error) {
	token, err := b.credential(ctx, inv.UserID)
	if err != nil {
		return reply.Reply{}, err
	}
	list, err := b.api.Accounts(ctx, token)
	if err != nil {
		return reply.Reply{}, err
	}
	if len(list.Accounts) == 0 {
		return reply.NoAccounts(), nil
	}
	return reply.Accounts(list), nil
}

// balance without an account id lists every account.
func (b *Bot) balance(ctx context.Context, inv Invocation, _ Responder) (reply.Reply, error) {
	token, err := b.credential(ctx, inv.UserID)
	if err != nil {
		return reply.Reply{}, err
	}

	id, ok := inv.Options.Int("compte_id")
	if !ok {
		list, err := b.api.Accounts(ctx, token)
		if err != nil {
			return reply.Reply{}, err
		}
		return reply.Accounts(list), nil
	}
	if err := validate.AccountID(id); err != nil {
		return reply.Reply{}, err
	}

	bal, err := b.api.AccountBalance(ctx, token, id)
	if err != nil {
		return reply.Reply{}, accountError(err)
	}
	return reply.Balance(bal), nil
}

func (b *Bot) operations(ctx context.Context, inv Invocation, _ Responder) (reply.Reply, error) {
	token, err := b.credential(ctx, inv.UserID)
	if err != nil {
		return reply.Reply{}, err
	}

	id, err := requiredAccountID(inv.Options)
	if err != nil {
		return reply.Reply{}, err
	}
	limit := clampLimit(inv.Options, maxOperationsListed, maxOperationsListed)

	page, err := b.api.AccountOperations(ctx, token, id, limit, 0)
	if err != nil {
		return reply.Reply{}, accountError(err)
	}
	return reply.Operations(page.Operations, b.accountLabel(ctx, token, id), int(page.Pagination.Total)), nil
}

func (b *Bot) stats(ctx context.Context, inv Invocation, _ Responder) (reply.Reply, error) {
	token, err := b.credential(ctx, inv.UserID)
	if err != nil {
		return reply.Reply{}, err
	}
	stats, err := b.api.Stats(ctx, token)
	if err != nil {
		return reply.Reply{}, err
	}
	profile, err := b.api.Profile(ctx, token)
	if err != nil {
		return reply.Reply{}, err
	}
	return reply.Stats(stats, profile.FullName()), nil
}

func (b *Bot) link(ctx context.Context, inv Invocation, _ Responder) (reply.Reply, error) {
	if _, ok := b.resolver.Resolve(ctx, inv.UserID); ok {
		return reply.AlreadyLinked(), nil
	}
	return reply.LinkInstructions(b.loginURL), nil
}

func (b *Bot) status(ctx context.Context, inv Invocation, _ Responder) (reply.Reply, error) {
	token, ok := b.resolver.Resolve(ctx, inv.UserID)
	if !ok {
		return reply.StatusNotLinked(), nil
	}
	link, err := b.api.LinkStatus(ctx, token)
	if err != nil {
		return reply.Reply{}, err
	}
	profile, err := b.api.Profile(ctx, token)
	if err != nil {
		return reply.Reply{}, err
	}
	return reply.Status(profile, link), nil
}

func (b *Bot) search(ctx context.Context, inv Invocation, _ Responder) (reply.Reply, error) {
	token, err := b.credential(ctx, inv.UserID)
	if err != nil {
		return reply.Reply{}, err
	}

	f, criteria, err := searchFilter(inv.Options)
	if err != nil {
		return reply.Reply{}, err
	}

	ops, err := b.api.SearchOperations(ctx, token, f)
	if err != nil {
		return reply.Reply{}, err
	}
	if len(ops) == 0 {
		return reply.NoSearchResults(), nil
	}

	label := "All accounts"
	if f.AccountID > 0 {
		label = b.accountLabel(ctx, token, f.AccountID)
	}
	return reply.SearchResults(ops, label, criteria), nil
}

func searchFilter(opts Options) (domain.SearchFilter, []string, error) {
	var (
		f        domain.SearchFilter
		criteria []string
	)
	if id, ok := opts.Int("compte_id"); ok {
		if err := validate.AccountID(id); err != nil {
			return f, nil, err
		}
		f.AccountID = id
	}
	if t, ok := opts.String("type_operation"); ok && strings.TrimSpace(t) != "" {
		t = strings.ToLower(strings.TrimSpace(t))
		if err := validate.OperationType(t); err != nil {
			return f, nil, err
		}
		f.Type = t
		criteria = append(criteria, "Type: "+validate.OperationTypeLabel(t))
	}
	if n, ok := opts.String("nature"); ok {
		if f.Nature = validate.Sanitize(n); f.Nature != "" {
			criteria = append(criteria, "Nature: "+f.Nature)
		}
	}
	if r, ok := opts.String("destinataire"); ok {
		if f.Recipient = validate.Sanitize(r); f.Recipient != "" {
			criteria = append(criteria, "Recipient: "+f.Recipient)
		}
	}
	if v, ok := opts.Float("montant_min"); ok {
		if v < 0 {
			return f, nil, invalidInput("Invalid amount", "The minimum amount cannot be negative")
		}
		f.MinAmount = v
		criteria = append(criteria, "Min: "+reply.FormatCurrency(v))
	}
	if v, ok := opts.Float("montant_max"); ok {
		if v < 0 {
			return f, nil, invalidInput("Invalid amount", "The maximum amount cannot be negative")
		}
		f.MaxAmount = v
		criteria = append(criteria, "Max: "+reply.FormatCurrency(v))
	}
	if f.MinAmount > 0 && f.MaxAmount > 0 && f.MinAmount > f.MaxAmount {
		return f, nil, invalidInput("Invalid amount", "The minimum amount cannot exceed the maximum amount")
	}
	for _, d := range []struct {
		key   string
		label string
		dst   *string
	}{
		{"date_debut", "From", &f.DateFrom},
		{"date_fin", "To", &f.DateTo},
	} {
		v, ok := opts.String(d.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		v = strings.TrimSpace(v)
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return f, nil, invalidInput("Invalid date", "Dates must use the YYYY-MM-DD format")
		}
		*d.dst = v
		criteria = append(criteria, d.label+": "+v)
	}
	f.Limit = clampLimit(opts, defaultSearchLimit, maxSearchLimit)
	return f, criteria, nil
}

// accountLabel prefers the account number and falls back to the id.
func (b *Bot) accountLabel(ctx context.Context, token string, id int64) string {
	if det, err := b.api.AccountDetails(ctx, token, id); err == nil && det.Number != "" {
		return det.Number
	}
	return strconv.FormatInt(id, 10)
}

func requiredAccountID(opts Options) (int64, error) {
	id, ok := opts.Int("compte_id")
	if !ok {
		return 0, invalidInput("Invalid account", "An account ID is required")
	}
	if err := validate.AccountID(id); err != nil {
		return 0, err
	}
	return id, nil
}

// clampLimit reads the "limite" option, defaulting to def and bounded by
// [1, upper].
func clampLimit(opts Options, def, upper int) int {
	n, ok := opts.Int("limite")
	if !ok {
		return def
	}
	if n < 1 {
		return 1
	}
	if n > int64(upper) {
		return upper
	}
	return int(n)
}

// accountError turns a refused account lookup into the "not found" reply.
func accountError(err error) error {
	var ae *bankapi.Error
	if errors.As(err, &ae) && ae.NotFound() {
		return errAccountNotFound
	}
	return err
}
