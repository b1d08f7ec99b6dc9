package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"

	"github.com/lakecrest/podstay-backend/internal/models"
)

// Mailer sends the guest and admin notification emails. It is constructed
// once in main and passed to the components that fire notifications; sends
// are dispatched in goroutines by callers and failures are only logged.
type Mailer struct {
	from        string
	password    string
	smtpHost    string
	smtpPort    string
	companyName string
	baseURL     string
	adminEmail  string
}

func NewMailerFromEnv() *Mailer {
	return &Mailer{
		from:        os.Getenv("EMAIL_FROM"),
		password:    os.Getenv("EMAIL_PASSWORD"),
		smtpHost:    os.Getenv("SMTP_HOST"),
		smtpPort:    os.Getenv("SMTP_PORT"),
		companyName: "Podstay Lodges",
		baseURL:     os.Getenv("BASE_URL"),
		adminEmail:  os.Getenv("ADMIN_EMAIL"),
	}
}

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #2E7D32; margin: 0;">Podstay Lodges</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
			<p>© 2026 Podstay Lodges. All rights reserved.</p>
		</div>
	</div>
</body>
</html>
`

func (m *Mailer) send(to []string, subject, body string) error {
	if m.from == "" || m.password == "" || m.smtpHost == "" || m.smtpPort == "" {
		return fmt.Errorf("email configuration not set")
	}

	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", m.companyName, m.from)
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", m.from, m.password, m.smtpHost)

	err := smtp.SendMail(m.smtpHost+":"+m.smtpPort, auth, m.from, to, []byte(message))
	if err != nil {
		log.Printf("Failed to send email: %v", err)
		return err
	}

	log.Printf("Successfully sent email to recipients: %v", to)
	return nil
}

func (m *Mailer) SendBookingConfirmation(booking *models.Booking, guest *models.GuestDirectory, pod *models.Pod) error {
	podName := ""
	if pod != nil {
		podName = pod.PodName
	}
	subject := fmt.Sprintf("Booking Confirmation - %s", booking.BookingReference)
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Booking Confirmed</h1>
					<p>Hello %s,</p>
					<p>Your booking <strong>%s</strong> for <strong>%s</strong> is confirmed.</p>
					<p>Check-in: <strong>%s</strong><br>Check-out: <strong>%s</strong></p>
					<p>We look forward to welcoming you.</p>
					<p>Best regards,<br>The Podstay Team</p>
				</div>`+emailFooter,
		guest.FullName, booking.BookingReference, podName,
		booking.CheckIn.Format("2006-01-02"), booking.CheckOut.Format("2006-01-02"))

	return m.send([]string{guest.Email}, subject, body)
}

func (m *Mailer) SendPaymentSuccess(booking *models.Booking, guest *models.GuestDirectory, payment *models.BookingPayment) error {
	subject := fmt.Sprintf("Payment Confirmed - %s", booking.BookingReference)
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Payment Received</h1>
					<p>Hello %s,</p>
					<p>We received your payment of <strong>%s</strong> for booking <strong>%s</strong> via %s.</p>
					<p>Transaction reference: <strong>%s</strong></p>
					<p>Best regards,<br>The Podstay Team</p>
				</div>`+emailFooter,
		guest.FullName, payment.Amount.StringFixed(2), booking.BookingReference,
		payment.Gateway, payment.TransactionReference)

	return m.send([]string{guest.Email}, subject, body)
}

// paymentFailedBody renders the retry email. retryURL must be a route the
// guest can actually follow; it never carries the internal booking id.
func paymentFailedBody(guestName, bookingReference, retryURL string) string {
	return fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Payment Failed</h1>
					<p>Hello %s,</p>
					<p>Your payment for booking <strong>%s</strong> did not go through.</p>
					<p>Your booking is still held for you and you can retry the payment.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s" style="background-color: #2E7D32; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Retry Payment</a>
					</div>
					<p>Best regards,<br>The Podstay Team</p>
				</div>`+emailFooter,
		guestName, bookingReference, retryURL)
}

func (m *Mailer) SendPaymentFailed(booking *models.Booking, guest *models.GuestDirectory, retryURL string) error {
	subject := fmt.Sprintf("Payment Failed - %s", booking.BookingReference)
	body := paymentFailedBody(guest.FullName, booking.BookingReference, retryURL)

	return m.send([]string{guest.Email}, subject, body)
}

func (m *Mailer) SendBookingCancellation(booking *models.Booking, guest *models.GuestDirectory, pod *models.Pod) error {
	podName := ""
	if pod != nil {
		podName = pod.PodName
	}
	subject := fmt.Sprintf("Booking Cancelled - %s", booking.BookingReference)
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Booking Cancelled</h1>
					<p>Hello %s,</p>
					<p>Your booking <strong>%s</strong>%s has been cancelled.</p>
					<p>If this was not you, please contact us.</p>
					<p>Best regards,<br>The Podstay Team</p>
				</div>`+emailFooter,
		guest.FullName, booking.BookingReference, podSuffix(podName))

	return m.send([]string{guest.Email}, subject, body)
}

func (m *Mailer) SendAdminBookingAlert(booking *models.Booking, guest *models.GuestDirectory, pod *models.Pod) error {
	if m.adminEmail == "" {
		return fmt.Errorf("admin email not configured")
	}
	podName := ""
	if pod != nil {
		podName = pod.PodName
	}
	subject := fmt.Sprintf("New Confirmed Booking - %s", booking.BookingReference)
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">New Confirmed Booking</h1>
					<p>Booking <strong>%s</strong>%s was just paid.</p>
					<p>Guest: <strong>%s</strong> (%s)</p>
					<p>Stay: %s to %s</p>
					<p>Total: <strong>%s</strong></p>
				</div>`+emailFooter,
		booking.BookingReference, podSuffix(podName), guest.FullName, guest.Email,
		booking.CheckIn.Format("2006-01-02"), booking.CheckOut.Format("2006-01-02"),
		booking.TotalPrice.StringFixed(2))

	return m.send([]string{m.adminEmail}, subject, body)
}

func podSuffix(podName string) string {
	if podName == "" {
		return ""
	}
	return fmt.Sprintf(" for <strong>%s</strong>", podName)
}
