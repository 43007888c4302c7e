// Package fcm implements domain.Dispatcher on Firebase Cloud Messaging
// webpush delivery.
package fcm

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"

	"github.com/dorjecito/thermosafe-sub000/internal/domain"
)

// Error classifiers, swappable in tests because the SDK's error values
// cannot be constructed outside it.
var (
	isUnregistered    = messaging.IsUnregistered
	isInvalidArgument = errorutils.IsInvalidArgument
	isUnavailable     = errorutils.IsUnavailable
	isInternal        = errorutils.IsInternal
)

// sender is the subset of *messaging.Client the dispatcher uses.
type sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendDryRun(ctx context.Context, message *messaging.Message) (string, error)
}

// Dispatcher formats localized webpush payloads and sends them via FCM.
type Dispatcher struct {
	client  sender
	siteURL string
	logger  *slog.Logger
}

// New creates a Dispatcher. siteURL is the deep-link target opened when the
// notification is clicked.
func New(client *messaging.Client, siteURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{client: client, siteURL: siteURL, logger: logger}
}

// Send delivers one localized push. Level 0 is an explicit no-op. Delivery
// failures are classified into the domain taxonomy where possible.
func (d *Dispatcher) Send(ctx context.Context, n domain.Notification) error {
	if n.Level == 0 {
		return nil
	}

	msg := d.buildMessage(n)
	if _, err := d.client.Send(ctx, msg); err != nil {
		return classify(err)
	}
	return nil
}

// Probe performs a non-visible dry-run delivery to test token validity. It
// returns false only on an unambiguous permanent-failure signal; transient
// and unclassified errors report the token as still valid so the garbage
// collector never deletes on an ambiguous probe.
func (d *Dispatcher) Probe(ctx context.Context, token string) bool {
	msg := &messaging.Message{
		Token: token,
		Data:  map[string]string{"probe": "1"},
	}

	_, err := d.client.SendDryRun(ctx, msg)
	if err == nil {
		return true
	}
	if isUnregistered(err) || isInvalidArgument(err) {
		return false
	}
	d.logger.Debug("ambiguous probe failure, keeping token", "error", err)
	return true
}

func classify(err error) error {
	switch {
	case isUnregistered(err) || isInvalidArgument(err):
		return fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	case isUnavailable(err) || isInternal(err):
		return fmt.Errorf("%w: %w", domain.ErrTransientDelivery, err)
	default:
		return fmt.Errorf("send push: %w", err)
	}
}

func (d *Dispatcher) buildMessage(n domain.Notification) *messaging.Message {
	lang := domain.NormalizeLang(n.Lang)
	title := titles[n.Family][lang]
	if n.Place != "" {
		title = title + " · " + n.Place
	}
	body := fmt.Sprintf("%s %.1f %s (%s). %s",
		metrics[n.Family][lang], n.Value, units[n.Family], n.Labels.Label(lang), ctas[lang])

	return &messaging.Message{
		Token: n.Token,
		Data: map[string]string{
			"url":   d.siteURL,
			"level": fmt.Sprintf("%d", n.Level),
			"value": fmt.Sprintf("%.1f", n.Value),
			"lang":  string(lang),
			"place": n.Place,
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: title,
				Body:  body,
				Icon:  "/icons/icon-192.png",
				Badge: "/icons/badge-72.png",
				// Constant tag per hazard family so the client replaces a
				// prior visible notification instead of stacking them.
				Tag: "thermosafe-" + string(n.Family),
				Actions: []*messaging.WebpushNotificationAction{
					{Action: "open", Title: ctas[lang]},
				},
			},
		},
	}
}

// Localized payload text.
var (
	titles = map[domain.HazardFamily]map[domain.Lang]string{
		domain.HazardHeat: {
			domain.LangCA: "Avís per calor",
			domain.LangES: "Aviso por calor",
			domain.LangEU: "Beroagatiko abisua",
			domain.LangGL: "Aviso por calor",
		},
		domain.HazardCold: {
			domain.LangCA: "Avís per fred",
			domain.LangES: "Aviso por frío",
			domain.LangEU: "Hotzagatiko abisua",
			domain.LangGL: "Aviso por frío",
		},
		domain.HazardWind: {
			domain.LangCA: "Avís per vent",
			domain.LangES: "Aviso por viento",
			domain.LangEU: "Haizeagatiko abisua",
			domain.LangGL: "Aviso por vento",
		},
	}

	metrics = map[domain.HazardFamily]map[domain.Lang]string{
		domain.HazardHeat: {
			domain.LangCA: "Índex de calor",
			domain.LangES: "Índice de calor",
			domain.LangEU: "Bero-indizea",
			domain.LangGL: "Índice de calor",
		},
		domain.HazardCold: {
			domain.LangCA: "Sensació tèrmica",
			domain.LangES: "Sensación térmica",
			domain.LangEU: "Sentsazio termikoa",
			domain.LangGL: "Sensación térmica",
		},
		domain.HazardWind: {
			domain.LangCA: "Vent",
			domain.LangES: "Viento",
			domain.LangEU: "Haizea",
			domain.LangGL: "Vento",
		},
	}

	units = map[domain.HazardFamily]string{
		domain.HazardHeat: "°C",
		domain.HazardCold: "°C",
		domain.HazardWind: "km/h",
	}

	ctas = map[domain.Lang]string{
		domain.LangCA: "Consulta les recomanacions",
		domain.LangES: "Consulta las recomendaciones",
		domain.LangEU: "Ikusi gomendioak",
		domain.LangGL: "Consulta as recomendacións",
	}
)
