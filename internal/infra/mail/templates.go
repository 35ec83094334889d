package mail

import (
	"fmt"
	"time"
)

// Email templates. Kept as plain Sprintf HTML; the mail API renders
// nothing itself, it just relays the html field.

const layout = `<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto;padding:24px;border:1px solid #e5e7eb;border-radius:8px">
<h2 style="color:#1e3a5f">First Capital Bank</h2>
%s
<p style="color:#6b7280;font-size:12px;margin-top:24px">This is an automated message. Please do not reply.</p>
</div>`

// Welcome returns the account-opened email.
func Welcome(name, accountNumber string) (subject, html string) {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Welcome aboard. Your account is ready to use.</p>
<p>Account number: <strong>%s</strong></p>
<p>You can now sign in, fund your account and start banking.</p>`, name, accountNumber)
	return "Welcome to First Capital Bank", fmt.Sprintf(layout, body)
}

// LoginAlert returns the new sign-in notification.
func LoginAlert(name string, at time.Time) (subject, html string) {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>We noticed a sign-in to your account on <strong>%s</strong>.</p>
<p>If this was you, no action is needed. If not, change your password immediately and contact support.</p>`,
		name, at.UTC().Format("Jan 2, 2006 at 15:04 MST"))
	return "New sign-in to your account", fmt.Sprintf(layout, body)
}

// TransferSent returns the outgoing transfer receipt.
func TransferSent(name, recipientName string, amount, newBalance float64) (subject, html string) {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your transfer of <strong>$%.2f</strong> to %s was successful.</p>
<p>New balance: <strong>$%.2f</strong></p>`, name, amount, recipientName, newBalance)
	return "Transfer successful", fmt.Sprintf(layout, body)
}

// TransferReceived returns the incoming transfer notification.
func TransferReceived(name, senderName string, amount float64) (subject, html string) {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>You received <strong>$%.2f</strong> from %s.</p>`, name, amount, senderName)
	return "You received a transfer", fmt.Sprintf(layout, body)
}

// DepositNotice returns the account-credited notification.
func DepositNotice(name string, amount, newBalance float64) (subject, html string) {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your account was credited with <strong>$%.2f</strong>.</p>
<p>New balance: <strong>$%.2f</strong></p>`, name, amount, newBalance)
	return "Your account was credited", fmt.Sprintf(layout, body)
}

// KYCDecision returns the KYC review outcome notification.
func KYCDecision(name, status string) (subject, html string) {
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your identity verification was reviewed. Status: <strong>%s</strong>.</p>`, name, status)
	return "Identity verification update", fmt.Sprintf(layout, body)
}
