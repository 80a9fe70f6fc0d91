// Package email, davet bildirimleri için email gönderim soyutlaması.
//
// EmailSender interface'i ile gönderim detayları soyutlanır; mevcut
// implementasyon Resend API kullanır. Davet emaili best-effort'tur:
// gönderim hatası davet oluşturmayı geri almaz, sadece loglanır.
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// EmailSender, email gönderimi için interface.
// Service katmanı bu interface'e bağımlıdır, concrete Resend implementasyonuna değil.
type EmailSender interface {
	// SendInvitation, alıcıya sunucu daveti bildirimi gönderir.
	// serverName: davet edilen sunucunun adı, inviterName: daveti gönderen kullanıcı.
	SendInvitation(ctx context.Context, toEmail, serverName, inviterName string) error
}

// resendSender, Resend API ile email gönderen EmailSender implementasyonu.
type resendSender struct {
	client    *resend.Client
	fromEmail string // Gönderici adresi (ör: noreply@kumru.app)
	appURL    string // Uygulamanın public URL'i (ör: https://app.kumru.app)
}

// NewResendSender, Resend API client'ı ile yeni bir EmailSender oluşturur.
//
// apiKey: Resend dashboard'dan alınan API key.
// fromEmail: Resend'de doğrulanmış domain altında bir gönderici adresi.
// appURL: Davet linkinde kullanılan public URL.
func NewResendSender(apiKey, fromEmail, appURL string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

// SendInvitation, davet bildirim emaili gönderir.
//
// Link davetleri listeleyen sayfaya gider; davetin kendisi uygulama
// içinde kabul/iptal edilir, email sadece haber verir.
func (s *resendSender) SendInvitation(ctx context.Context, toEmail, serverName, inviterName string) error {
	invitesLink := fmt.Sprintf("%s/invitations", s.appURL)

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#0f172a;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#0f172a;padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#1e293b;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#e2e8f0;font-size:24px;margin:0 0 8px 0;">kumru</h1>
              <h2 style="color:#e2e8f0;font-size:18px;margin:0 0 24px 0;">You've been invited</h2>
              <p style="color:#94a3b8;font-size:15px;line-height:1.6;margin:0 0 24px 0;">
                %s invited you to join the server <strong style="color:#e2e8f0;">%s</strong>.
                Open your invitations to accept or dismiss it.
              </p>
              <table cellpadding="0" cellspacing="0" style="margin:0 0 24px 0;">
                <tr>
                  <td style="background-color:#0ea5e9;border-radius:6px;padding:12px 32px;">
                    <a href="%s" style="color:#ffffff;text-decoration:none;font-size:15px;font-weight:600;">
                      View Invitations
                    </a>
                  </td>
                </tr>
              </table>
              <p style="color:#64748b;font-size:13px;line-height:1.6;margin:0;">
                If you weren't expecting this invitation, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, inviterName, serverName, invitesLink)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("kumru <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: fmt.Sprintf("%s invited you to %s — kumru", inviterName, serverName),
		Html:    html,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}

	return nil
}
