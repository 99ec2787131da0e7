package bankapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"bankbot/internal/domain"
)

func (c *Client) Accounts(ctx context.Context, token string) (domain.AccountList, error) {
	var out domain.AccountList
	err := c.call(ctx, http.MethodGet, "/accounts", token, nil, nil, &out)
	return out, err
}

func (c *Client) AccountDetails(ctx context.Context, token string, accountID int64) (domain.AccountDetail, error) {
	var out domain.AccountDetail
	err := c.call(ctx, http.MethodGet, accountPath(accountID, ""), token, nil, nil, &out)
	return out, err
}

func (c *Client) AccountBalance(ctx context.Context, token string, accountID int64) (domain.Balance, error) {
	var out domain.Balance
	err := c.call(ctx, http.MethodGet, accountPath(accountID, "/balance"), token, nil, nil, &out)
	return out, err
}

func (c *Client) AccountOperations(ctx context.Context, token string, accountID int64, limit, offset int) (domain.OperationPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var out domain.OperationPage
	err := c.call(ctx, http.MethodGet, accountPath(accountID, "/operations"), token, nil, q, &out)
	return out, err
}

// CreateOperation posts a new operation. The returned error carries the
// backend's message when the operation is refused (insufficient funds, ...).
func (c *Client) CreateOperation(ctx context.Context, token string, req domain.OperationRequest) (domain.CreatedOperation, error) {
	var out domain.CreatedOperation
	err := c.call(ctx, http.MethodPost, "/operations", token, req, nil, &out)
	return out, err
}

func (c *Client) SearchOperations(ctx context.Context, token string, f domain.SearchFilter) ([]domain.Operation, error) {
	var out struct {
		Operations []domain.Operation `json:"operations"`
	}
	err := c.call(ctx, http.MethodGet, "/operations/search", token, nil, searchQuery(f), &out)
	return out.Operations, err
}

func (c *Client) Profile(ctx context.Context, token string) (domain.Profile, error) {
	var out domain.Profile
	err := c.call(ctx, http.MethodGet, "/user/profile", token, nil, nil, &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context, token string) (domain.Stats, error) {
	var out domain.Stats
	err := c.call(ctx, http.MethodGet, "/user/stats", token, nil, nil, &out)
	return out, err
}

func (c *Client) LinkStatus(ctx context.Context, token string) (domain.LinkStatus, error) {
	var out domain.LinkStatus
	err := c.call(ctx, http.MethodGet, "/user/discord", token, nil, nil, &out)
	return out, err
}

// UnlinkDiscord removes the link between the caller and their Discord
// identity. Any failure is reported as false.
func (c *Client) UnlinkDiscord(ctx context.Context, token string) bool {
	return c.Request(ctx, http.MethodDelete, "/user/discord", token, nil, nil).Success
}

func accountPath(id int64, suffix string) string {
	return "/accounts/" + strconv.FormatInt(id, 10) + suffix
}

func searchQuery(f domain.SearchFilter) url.Values {
	q := url.Values{}
	if f.AccountID > 0 {
		q.Set("compte_id", strconv.FormatInt(f.AccountID, 10))
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.Nature != "" {
		q.Set("nature", f.Nature)
	}
	if f.Recipient != "" {
		q.Set("destinataire", f.Recipient)
	}
	if f.MinAmount > 0 {
		q.Set("montant_min", strconv.FormatFloat(f.MinAmount, 'f', -1, 64))
	}
	if f.MaxAmount > 0 {
		q.Set("montant_max", strconv.FormatFloat(f.MaxAmount, 'f', -1, 64))
	}
	if f.DateFrom != "" {
		q.Set("date_debut", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("date_fin", f.DateTo)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}
