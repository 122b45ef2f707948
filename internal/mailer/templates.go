package mailer

import (
	"fmt"
	"strings"
	"time"
)

func buildVerificationBody(name, link string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ccc; border-radius: 10px;">
	<h2 style="color: #333; text-align: center;">Email Verification</h2>
	<p style="font-size: 16px; color: #555;">Hi %s,</p>
	<p style="font-size: 16px; color: #555;">
		Thank you for registering. Please verify your email by clicking the button below:
	</p>
	<a href="%s" style="display: inline-block; margin-top: 20px; padding: 10px 20px; color: #fff; background-color: #007bff; text-decoration: none; border-radius: 5px;">Verify Email</a>
	<p style="font-size: 16px; color: #555; margin-top: 20px;">
		If the button above doesn't work, copy and paste the following link into your browser:
	</p>
	<p style="font-size: 16px; color: #007bff; word-break: break-all;">%s</p>
	<p style="font-size: 16px; color: #555; margin-top: 20px;">
		If you did not register for this account, please ignore this email.
	</p>
</body>
</html>`, name, link, link)
}

func buildPasswordResetBody(link string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="max-width: 600px; margin: 0 auto; border: 1px solid #ddd; border-radius: 8px; padding: 20px; font-size: 16px; line-height: 1.5;">
	<h2 style="color: #333; text-align: center;">Password Reset</h2>
	<p>You are receiving this because you (or someone else) requested a password reset for your account.</p>
	<p>Click the following link to complete the process:</p>
	<p><a href="%s" style="display: inline-block; padding: 10px 20px; color: white; background-color: #007bff; border-radius: 4px; text-decoration: none;">Reset Password</a></p>
	<p>If you did not request this, please ignore this email and your password will remain unchanged.</p>
	<p>Alternatively, copy and paste this link into your browser:</p>
	<p style="word-break: break-all;">%s</p>
</body>
</html>`, link, link)
}

func buildPaymentConfirmationBody(orderID string, amount int64, paymentMethod string, paidAt time.Time, clientURL string) string {
	method := paymentMethod
	if method != "" {
		method = strings.ToUpper(method[:1]) + method[1:]
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px; border: 1px solid #ddd; border-radius: 10px;">
	<h2 style="text-align: center; color: #4CAF50;">Payment Confirmation</h2>
	<p>Dear Customer,</p>
	<p>Thank you for your payment. Your order has been successfully processed.</p>
	<p><strong>Order ID:</strong> %s</p>
	<p><strong>Payment Date:</strong> %s</p>
	<p><strong>Payment Method:</strong> %s</p>
	<p><strong>Total Amount Paid:</strong> %s</p>
	<p>If you have any questions, feel free to contact our support team.</p>
	<div style="text-align: center; margin-top: 20px;">
		<a href="%s" style="padding: 10px 20px; color: white; background-color: #4CAF50; border-radius: 5px; text-decoration: none;">Visit Our Store</a>
	</div>
</body>
</html>`, orderID, paidAt.Format("January 2, 2006 15:04 MST"), method, formatAmount(amount), clientURL)
}

// formatAmount renders integer cents as a dollar string
func formatAmount(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
