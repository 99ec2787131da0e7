package reply

import (
	"fmt"
	"strconv"
	"strings"

	"bankbot/internal/domain"
	"bankbot/internal/validate"
)

const NotLinkedMessage = "You have not linked your bank account yet. Use `/link` to get started."

func NotLinked() Reply {
	return New(Error, "Account not linked", NotLinkedMessage)
}

// Failure is the generic apology shown for transport and unexpected errors.
func Failure(action string) Reply {
	return New(Error, "Error", "Something went wrong while "+action+".")
}

func Accounts(list domain.AccountList) Reply {
	r := newReply(Info, emojiBank+" Your bank accounts",
		"**Total balance:** "+FormatCurrency(list.TotalBalance.Float()))
	for _, a := range list.Accounts {
		indicator := emojiUp
		if a.Balance < 0 {
			indicator = emojiDown
		}
		value := fmt.Sprintf("**Type:** %s\n**Balance:** %s %s\n**Overdraft allowed:** %s",
			validate.Capitalize(a.Type),
			indicator, FormatCurrency(a.Balance.Float()),
			FormatCurrency(a.OverdraftLimit.Float()))
		if a.Relation != "" {
			value += "\n**Relation:** " + validate.Capitalize(a.Relation)
		}
		r.AddField(emojiCard+" Account "+a.Number, value, false)
	}
	r.Footer = "Number of accounts: " + strconv.Itoa(len(list.Accounts))
	return r
}

func Balance(b domain.Balance) Reply {
	category, indicator := Success, emojiUp
	if b.Negative {
		category, indicator = Error, emojiDown
	}
	r := newReply(category, emojiBank+" Balance of account "+b.Number, "")
	r.AddField(indicator+" Current balance", FormatCurrency(b.Balance.Float()), true)
	r.AddField(emojiMoney+" Available", FormatCurrency(b.Available.Float()), true)
	r.AddField("Account type", validate.Capitalize(b.AccountType), true)
	if b.Negative {
		r.AddField(Warning.Emoji()+" Warning", "Your account is overdrawn!", false)
	}
	return r
}

// Operations lists at most MaxListed operations of one account. total is the
// backend's count, 0 when unknown.
func Operations(ops []domain.Operation, accountLabel string, total int) Reply {
	r := newReply(Info, emojiChart+" Operations of account "+accountLabel, "")
	if len(ops) == 0 {
		r.Description = "No operations found."
		return r
	}
	if len(ops) > MaxListed {
		ops = ops[:MaxListed]
	}
	for _, op := range ops {
		r.AddField(operationHeading(op), operationSummary(op), false)
	}
	r.Footer = "Page 1"
	if total > 0 {
		r.Footer += " • Total: " + strconv.Itoa(total) + " operations"
	}
	return r
}

// SearchResults reuses the listing layout with the criteria as description.
func SearchResults(ops []domain.Operation, accountLabel string, criteria []string) Reply {
	r := Operations(ops, accountLabel, 0)
	r.Title = "🔍 Search results"
	if len(criteria) > 0 {
		r.Description = "**Criteria:** " + strings.Join(criteria, " • ")
	}
	return r
}

func NoSearchResults() Reply {
	return New(Info, "No results", "No operation matches your search criteria.")
}

func operationHeading(op domain.Operation) string {
	return fmt.Sprintf("%s %s - %s", Indicator(op.Type), typeLabel(op.Type), signedAmount(op.Type, op.Amount.Float()))
}

func operationSummary(op domain.Operation) string {
	parts := []string{"**Date:** " + FormatDate(op.Date)}
	if op.Recipient != "" {
		parts = append(parts, "**Recipient:** "+op.Recipient)
	}
	if op.Nature != "" {
		parts = append(parts, "**Nature:** "+op.Nature)
	}
	if op.Description != "" {
		parts = append(parts, "**Description:** "+Truncate(op.Description, maxListedDescription))
	}
	parts = append(parts, "**Balance after:** "+FormatCurrency(op.BalanceAfter.Float()))
	return strings.Join(parts, "\n")
}

// OperationCreated confirms a single operation; its description is shown in
// full.
func OperationCreated(c domain.CreatedOperation) Reply {
	op := c.Operation
	r := New(Success, "Operation recorded", "")
	r.AddField(Indicator(op.Type)+" Type", typeLabel(op.Type), true)
	r.AddField(emojiMoney+" Amount", FormatCurrency(op.Amount.Float()), true)
	if op.Date != "" {
		r.AddField(emojiCalendar+" Date", FormatDate(op.Date), true)
	}
	if op.Recipient != "" {
		r.AddField("Recipient", op.Recipient, true)
	}
	if op.Nature != "" {
		r.AddField("Nature", op.Nature, true)
	}
	r.AddField("Previous balance", FormatCurrency(c.OldBalance.Float()), true)
	r.AddField("New balance", FormatCurrency(c.NewBalance.Float()), true)
	if op.Description != "" {
		r.AddField("Description", op.Description, false)
	}
	return r
}

func Stats(s domain.Stats, name string) Reply {
	r := newReply(Info, emojiChart+" Statistics of "+name, "")
	r.AddField(emojiBank+" Accounts", fmt.Sprintf("**Count:** %d\n**Total balance:** %s",
		s.Accounts.Count, FormatCurrency(s.Accounts.TotalBalance.Float())), false)

	month := s.ThisMonth
	net := emojiUp
	if month.Net < 0 {
		net = emojiDown
	}
	r.AddField(emojiChart+" This month", fmt.Sprintf(
		"**Operations:** %d\n**Income:** %s %s\n**Expenses:** %s %s\n**Net:** %s %s",
		month.Count,
		emojiUp, FormatCurrency(month.Income.Float()),
		emojiDown, FormatCurrency(month.Expenses.Float()),
		net, FormatCurrency(month.Net.Float())), false)

	if s.Credits.Count > 0 {
		r.AddField(emojiCard+" Credits", fmt.Sprintf("**Count:** %d\n**Remaining:** %s",
			s.Credits.Count, FormatCurrency(s.Credits.Remaining.Float())), false)
	}
	return r
}

func NoAccounts() Reply {
	return New(Error, "No accounts", "You do not have any active bank account.")
}

func AccountNotFound() Reply {
	return New(Error, "Error", "Account not found or not accessible.")
}

func AlreadyLinked() Reply {
	return New(Info, "Account already linked",
		"Your Discord account is already linked to a bank account.\n"+
			"Use `/status` to see the details or `/unlink` to unlink it.")
}

// LinkInstructions explains the web linking procedure. loginURL points at
// the website login page.
func LinkInstructions(loginURL string) Reply {
	r := New(Info, "Link your account",
		"To link your bank account to Discord:\n\n"+
			"1. Log in to your bank account on the website\n"+
			"2. Open your profile\n"+
			"3. Click 'Link my Discord account'\n"+
			"4. Authorize the Discord application\n\n"+
			"Once linked you can use every bot command.")
	r.AddField("🔗 Direct link", "[Click here to log in]("+loginURL+")", false)
	r.Footer = "Linking is secure and can be revoked at any time"
	return r
}

// Status shows who the caller is linked to and when.
func Status(p domain.Profile, link domain.LinkStatus) Reply {
	r := New(Success, "Account linked",
		"Your Discord account is linked to the bank account of **"+p.FullName()+"**")
	r.AddField("👤 User", p.Username, true)
	r.AddField("📧 Email", p.Email, true)
	r.AddField(emojiBank+" Role", validate.Capitalize(p.Role), true)
	if link.Linked && link.Discord != nil {
		linkedAt := link.Discord.LinkedAt
		if linkedAt == "" {
			linkedAt = "N/A"
		}
		r.AddField("🔗 Linked since", FormatDate(linkedAt), true)
		if link.Discord.LastUsed != "" {
			r.AddField("🕒 Last used", FormatDate(link.Discord.LastUsed), true)
		}
	}
	r.Footer = "Use /unlink to unlink your account"
	return r
}

func StatusNotLinked() Reply {
	return New(Info, "Account not linked", NotLinkedMessage+"\n\nUse `/link` to link your account.")
}

func UnlinkPrompt(flowID string) Reply {
	r := New(Info, "Confirmation required",
		Warning.Emoji()+" Are you sure you want to unlink your Discord account?\n\n"+
			"You will not be able to use the bot commands until you link it again.")
	r.Actions = &Actions{FlowID: flowID, ConfirmLabel: "Confirm", CancelLabel: "Cancel", Destructive: true}
	return r
}

func Unlinked() Reply {
	return New(Success, "Account unlinked",
		"Your Discord account was unlinked.\nUse `/link` to link it again.")
}

// OperationPrompt asks the caller to confirm req before it is posted.
func OperationPrompt(flowID string, req domain.OperationRequest) Reply {
	r := New(Info, "Confirm operation", fmt.Sprintf(
		"%s You are about to record the following operation:\n\n**Type:** %s\n**Amount:** %s\n**Account ID:** %d",
		Warning.Emoji(), typeLabel(req.Type), FormatCurrency(req.Amount), req.AccountID))
	if req.Recipient != "" {
		r.AddField("Recipient", req.Recipient, true)
	}
	if req.Nature != "" {
		r.AddField("Nature", req.Nature, true)
	}
	if req.Description != "" {
		r.AddField("Description", req.Description, false)
	}
	r.Footer = "Confirm to record the operation"
	r.Actions = &Actions{FlowID: flowID, ConfirmLabel: "Confirm", CancelLabel: "Cancel"}
	return r
}

// Cancelled closes a prompt; what names the cancelled action.
func Cancelled(what string) Reply {
	return New(Info, "Cancelled", "The "+what+" was cancelled.")
}

func Expired() Reply {
	return New(Warning, "Expired", "This confirmation has expired. Run the command again.")
}

func FlowUnavailable() Reply {
	return New(Error, "Unavailable", "This confirmation is no longer active.")
}

func NotYourFlow() Reply {
	return New(Error, "Not allowed", "Only the user who ran the command can answer this prompt.")
}
