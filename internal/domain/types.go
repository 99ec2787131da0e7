package domain

import (
	"bytes"
	"strconv"
	"time"
)

type EventType string

const (
	EventOperationProposed  EventType = "OperationProposed"
	EventOperationConfirmed EventType = "OperationConfirmed"
	EventOperationCancelled EventType = "OperationCancelled"
	EventOperationExpired   EventType = "OperationExpired"
	EventUnlinkProposed     EventType = "UnlinkProposed"
	EventUnlinkConfirmed    EventType = "UnlinkConfirmed"
	EventUnlinkCancelled    EventType = "UnlinkCancelled"
	EventUnlinkExpired      EventType = "UnlinkExpired"
)

type Event struct {
	ID        string                 `json:"event_id"`
	UserID    string                 `json:"user_id,omitempty"`
	Type      EventType              `json:"event_type"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// Amount is a money value. The banking API serialises DECIMAL columns as
// strings, so both JSON numbers and numeric strings are accepted.
type Amount float64

func (a *Amount) UnmarshalJSON(raw []byte) error {
	f, err := parseNumber(raw)
	if err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

func (a Amount) Float() float64 { return float64(a) }

// Count is an integer counter or identifier with the same tolerance as Amount.
type Count int64

func (c *Count) UnmarshalJSON(raw []byte) error {
	f, err := parseNumber(raw)
	if err != nil {
		return err
	}
	*c = Count(f)
	return nil
}

func parseNumber(raw []byte) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if raw[0] == '"' {
		s, err := strconv.Unquote(string(raw))
		if err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	return strconv.ParseFloat(string(raw), 64)
}

type Account struct {
	ID             Count  `json:"id"`
	Number         string `json:"numero_compte"`
	Type           string `json:"type_compte"`
	Balance        Amount `json:"solde"`
	OverdraftLimit Amount `json:"negatif_autorise"`
	Status         string `json:"statut,omitempty"`
	Relation       string `json:"relation,omitempty"`
	CreatedAt      string `json:"date_creation,omitempty"`
	OwnerFirstName string `json:"prenom,omitempty"`
	OwnerLastName  string `json:"nom,omitempty"`
}

// AccountDetail is GET /accounts/{id}: the account plus its latest
// operations.
type AccountDetail struct {
	Account
	RecentOperations []Operation `json:"dernieres_operations,omitempty"`
}

type AccountList struct {
	Accounts     []Account `json:"comptes"`
	TotalBalance Amount    `json:"solde_total"`
	Count        Count     `json:"nombre_comptes,omitempty"`
}

type Balance struct {
	AccountID      Count  `json:"compte_id"`
	Number         string `json:"numero_compte"`
	AccountType    string `json:"type_compte"`
	Balance        Amount `json:"solde"`
	OverdraftLimit Amount `json:"negatif_autorise"`
	Available      Amount `json:"disponible"`
	Negative       bool   `json:"en_negatif"`
}

type Operation struct {
	ID            Count  `json:"id"`
	AccountID     Count  `json:"compte_id"`
	Type          string `json:"type_operation"`
	Amount        Amount `json:"montant"`
	Recipient     string `json:"destinataire,omitempty"`
	Nature        string `json:"nature,omitempty"`
	Description   string `json:"description,omitempty"`
	Date          string `json:"date_operation"`
	BalanceAfter  Amount `json:"solde_apres"`
	AccountNumber string `json:"numero_compte,omitempty"`
}

type Pagination struct {
	Total   Count `json:"total"`
	Limit   Count `json:"limit"`
	Offset  Count `json:"offset"`
	HasMore bool  `json:"has_more"`
}

type OperationPage struct {
	Operations []Operation `json:"operations"`
	Pagination Pagination  `json:"pagination"`
}

// OperationRequest is the body of POST /operations. Optional fields are
// omitted when empty.
type OperationRequest struct {
	AccountID   int64   `json:"compte_id"`
	Type        string  `json:"type_operation"`
	Amount      float64 `json:"montant"`
	Recipient   string  `json:"destinataire,omitempty"`
	Nature      string  `json:"nature,omitempty"`
	Description string  `json:"description,omitempty"`
}

type CreatedOperation struct {
	Operation  Operation `json:"operation"`
	OldBalance Amount    `json:"ancien_solde"`
	NewBalance Amount    `json:"nouveau_solde"`
}

// SearchFilter holds the optional criteria of GET /operations/search. Zero
// values are not sent.
type SearchFilter struct {
	AccountID int64
	Type      string
	Nature    string
	Recipient string
	MinAmount float64
	MaxAmount float64
	DateFrom  string
	DateTo    string
	Limit     int
}

type Profile struct {
	ID        Count  `json:"id"`
	FirstName string `json:"prenom"`
	LastName  string `json:"nom"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (p Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

type AccountStats struct {
	Count        Count  `json:"nombre"`
	TotalBalance Amount `json:"solde_total"`
}

type MonthStats struct {
	Count    Count  `json:"nombre"`
	Expenses Amount `json:"depenses"`
	Income   Amount `json:"revenus"`
	Net      Amount `json:"solde"`
}

type CreditStats struct {
	Count     Count  `json:"nombre"`
	Remaining Amount `json:"montant_restant"`
}

type Stats struct {
	Accounts  AccountStats `json:"comptes"`
	ThisMonth MonthStats   `json:"operations_mois"`
	Credits   CreditStats  `json:"credits"`
}

type DiscordLink struct {
	DiscordID string `json:"discord_id,omitempty"`
	Username  string `json:"discord_username,omitempty"`
	LinkedAt  string `json:"linked_at"`
	LastUsed  string `json:"last_used,omitempty"`
}

type LinkStatus struct {
	Linked  bool         `json:"linked"`
	Discord *DiscordLink `json:"discord,omitempty"`
	Message string       `json:"message,omitempty"`
}
