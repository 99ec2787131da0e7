package discord

type ApplicationCommand struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []CommandOption `json:"options,omitempty"`
}

type CommandOption struct {
	Type        int            `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Required    bool           `json:"required,omitempty"`
	MinValue    *float64       `json:"min_value,omitempty"`
	MaxValue    *float64       `json:"max_value,omitempty"`
	MaxLength   int            `json:"max_length,omitempty"`
	Choices     []OptionChoice `json:"choices,omitempty"`
}

type OptionChoice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var operationTypeChoices = []OptionChoice{
	{Name: "Crédit", Value: "credit"},
	{Name: "Débit", Value: "debit"},
	{Name: "Virement", Value: "virement"},
	{Name: "Dépôt", Value: "depot"},
	{Name: "Retrait", Value: "retrait"},
	{Name: "Prélèvement", Value: "prelevement"},
}

func bound(v float64) *float64 { return &v }

func accountOption(required bool) CommandOption {
	return CommandOption{Type: optionInteger, Name: "compte_id", Description: "Account ID", Required: required, MinValue: bound(1)}
}

func limitOption(upper float64) CommandOption {
	return CommandOption{Type: optionInteger, Name: "limite", Description: "Number of results", MinValue: bound(1), MaxValue: bound(upper)}
}

func textOption(name, description string, maxLen int) CommandOption {
	return CommandOption{Type: optionString, Name: name, Description: description, MaxLength: maxLen}
}

// Commands is the slash-command set registered at start-up.
func Commands() []ApplicationCommand {
	return []ApplicationCommand{
		{Name: "accounts", Description: "Show all your bank accounts"},
		{
			Name:        "balance",
			Description: "Show the balance of an account",
			Options:     []CommandOption{accountOption(false)},
		},
		{
			Name:        "operations",
			Description: "Show the latest operations of an account",
			Options:     []CommandOption{accountOption(true), limitOption(10)},
		},
		{Name: "stats", Description: "Show your banking statistics"},
		{Name: "link", Description: "Link your bank account to Discord"},
		{Name: "unlink", Description: "Unlink your Discord account from the bank account"},
		{Name: "status", Description: "Check the status of your Discord link"},
		{
			Name:        "operation",
			Description: "Record a new bank operation",
			Options: []CommandOption{
				accountOption(true),
				{Type: optionString, Name: "type_operation", Description: "Operation type", Required: true, Choices: operationTypeChoices},
				{Type: optionNumber, Name: "montant", Description: "Amount", Required: true, MinValue: bound(0.01), MaxValue: bound(1_000_000)},
				textOption("destinataire", "Recipient", 255),
				textOption("nature", "Nature of the operation", 100),
				textOption("description", "Description", 1000),
			},
		},
		{
			Name:        "search",
			Description: "Search operations",
			Options: []CommandOption{
				accountOption(false),
				{Type: optionString, Name: "type_operation", Description: "Operation type", Choices: operationTypeChoices},
				textOption("nature", "Nature of the operation", 100),
				textOption("destinataire", "Recipient", 255),
				{Type: optionNumber, Name: "montant_min", Description: "Minimum amount", MinValue: bound(0)},
				{Type: optionNumber, Name: "montant_max", Description: "Maximum amount", MinValue: bound(0)},
				textOption("date_debut", "From date (YYYY-MM-DD)", 10),
				textOption("date_fin", "To date (YYYY-MM-DD)", 10),
				limitOption(20),
			},
		},
	}
}
