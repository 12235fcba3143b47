// Package notify posts expense lifecycle events to a Discord channel so
// project admins hear about submissions without polling the expense table.
package notify

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"expensetracker/internal/models"
)

// Discord sends expense notifications to a single configured channel
type Discord struct {
	session   *discordgo.Session
	channelID string
	log       *zap.Logger
}

// NewDiscord opens a Discord session for the notification bot
func NewDiscord(token, channelID string, log *zap.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection to Discord: %w", err)
	}
	return &Discord{session: session, channelID: channelID, log: log}, nil
}

// Close closes the Discord session
func (d *Discord) Close() {
	if d.session != nil {
		d.session.Close()
	}
}

// ExpenseCreated announces a newly submitted expense. Delivery failures are
// logged and never propagate to the submitting request.
func (d *Discord) ExpenseCreated(e models.Expense) {
	msg := fmt.Sprintf("💸 **%s** added expense **%s** (%s, %d) to project **%s** — status: %s",
		e.MemberName, e.ExpenseName, e.ExpenseType, e.Amount, e.ProjectName, e.ExpenseStatus)
	if _, err := d.session.ChannelMessageSend(d.channelID, msg); err != nil {
		d.log.Warn("failed to send expense-created notification",
			zap.Error(err), zap.Int("expense_id", e.ID))
	}
}

// ExpenseStatusChanged announces an expense status transition
func (d *Discord) ExpenseStatusChanged(e models.Expense, old models.ExpenseStatus) {
	msg := fmt.Sprintf("📋 Expense **%s** in project **%s** moved from %s to **%s**",
		e.ExpenseName, e.ProjectName, old, e.ExpenseStatus)
	if _, err := d.session.ChannelMessageSend(d.channelID, msg); err != nil {
		d.log.Warn("failed to send status-change notification",
			zap.Error(err), zap.Int("expense_id", e.ID))
	}
}
