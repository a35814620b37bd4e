package utils

import (
	"fmt"
	"log"

	"lse/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendEmail sends an HTML email through SendGrid. Callers fire these from
// goroutines; a failed notification never fails the request that triggered it.
func SendEmail(toEmail, toName, subject, htmlBody string) error {
	if config.AppConfig.SendGridApiKey == "" {
		log.Printf("--- Email skipped (no SENDGRID_API_KEY) ---\nTo: %s\nSubject: %s\n", toEmail, subject)
		return nil
	}

	from := mail.NewEmail("LSE Academy", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", getEmailTemplate(subject, htmlBody))

	client := sendgrid.NewSendClient(config.AppConfig.SendGridApiKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("Error sending email to %s: %v", toEmail, err)
		return err
	}
	if resp.StatusCode >= 400 {
		log.Printf("SendGrid rejected email to %s: %d %s", toEmail, resp.StatusCode, resp.Body)
		return fmt.Errorf("sendgrid status %d", resp.StatusCode)
	}

	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1B3A5C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1B3A5C; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>LSE ACADEMY</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 LSE Academy. Aprende lengua de señas a tu ritmo.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

// SendWelcomeEmail greets a freshly registered demo account.
func SendWelcomeEmail(email, name string, trialDays int) {
	subject := "Bienvenido a LSE Academy"
	body := fmt.Sprintf(`
		<p>Hola %s,</p>
		<p>Tu cuenta de prueba ha sido creada. Tienes <strong>%d días</strong> para explorar las lecciones de demostración.</p>
		<p>Compra un curso para desbloquear todo el contenido y empezar a ganar puntos.</p>
	`, name, trialDays)

	go SendEmail(email, name, subject, body)
}

// SendPurchaseConfirmationEmail confirms a purchase that reached paid state.
func SendPurchaseConfirmationEmail(email, name, courseTitle string, points int) {
	subject := "Compra confirmada: " + courseTitle
	body := fmt.Sprintf(`
		<p>Hola %s,</p>
		<p>Tu compra del curso <strong>%s</strong> se ha completado correctamente.</p>
		<p>Has ganado <strong>%d puntos</strong>. ¡A practicar!</p>
	`, name, courseTitle, points)

	go SendEmail(email, name, subject, body)
}
