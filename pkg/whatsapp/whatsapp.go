package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"FocusSentry/database/postgres"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

var ErrInvalidPhone = errors.New("phone number has no digits")

type IWhatsappSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
	Disconnect() error
	IsConnected() bool
}

type whatsappSender struct {
	client *whatsmeow.Client
}

// New pairs (or resumes) a device stored in the service database and waits
// up to connectTimeout for the connection. A first run prints a QR code to
// the log that has to be scanned from the phone.
func New(ctx context.Context, connectTimeout time.Duration) (IWhatsappSender, error) {
	container, err := sqlstore.New(ctx, "postgres", postgres.FormatDSN(), waLog.Stdout("Database", "INFO", true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device store: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "INFO", true))

	connected := make(chan struct{}, 1)
	client.AddEventHandler(func(evt interface{}) {
		if _, ok := evt.(*events.Connected); ok {
			select {
			case connected <- struct{}{}:
			default:
			}
		}
	})

	if client.Store.ID == nil {
		qrChan, _ := client.GetQRChannel(ctx)
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}

		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					logrus.WithField("qr", evt.Code).Info("Scan the WhatsApp pairing code")
				}
			}
		}()
	} else if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	select {
	case <-connected:
		logrus.Info("WhatsApp connected")
	case <-time.After(connectTimeout):
		client.Disconnect()
		return nil, errors.New("whatsapp connection timeout")
	}

	return &whatsappSender{client: client}, nil
}

func (w *whatsappSender) SendMessage(ctx context.Context, phoneNumber, message string) error {
	user, err := JIDUser(phoneNumber)
	if err != nil {
		return err
	}

	waMsg := &waE2E.Message{
		Conversation: proto.String(message),
	}

	if _, err := w.client.SendMessage(ctx, types.NewJID(user, types.DefaultUserServer), waMsg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func (w *whatsappSender) Disconnect() error {
	w.client.Disconnect()
	return nil
}

func (w *whatsappSender) IsConnected() bool {
	return w.client.IsConnected()
}

// JIDUser strips formatting from an E.164 number, leaving the digits
// WhatsApp uses as the user part of a JID.
func JIDUser(phoneNumber string) (string, error) {
	var b strings.Builder
	for _, r := range phoneNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", ErrInvalidPhone
	}
	return b.String(), nil
}
