package jobs

import (
	"context"
	"log/slog"

	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/customers"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/devices"
	"github.com/zaher-almasriah/Mobile-Maintenance-sub000/internal/notify"
)

// CustomerDirectory resolves the recipient of a delivery notification.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id int64) (customers.Customer, error)
}

// DeliveryNotifier enqueues a pickup text when a device is handed back.
type DeliveryNotifier struct {
	client     *Client
	customers  CustomerDirectory
	senderName string
	logger     *slog.Logger
}

// NewDeliveryNotifier constructs a DeliveryNotifier.
func NewDeliveryNotifier(client *Client, customers CustomerDirectory, senderName string, logger *slog.Logger) *DeliveryNotifier {
	return &DeliveryNotifier{client: client, customers: customers, senderName: senderName, logger: logger}
}

// NotifyDelivered queues the pickup text for the device's customer.
// Customers without a phone number are skipped.
func (n *DeliveryNotifier) NotifyDelivered(ctx context.Context, device devices.Device) error {
	customer, err := n.customers.GetCustomer(ctx, device.CustomerID)
	if err != nil {
		return err
	}
	if customer.Phone == "" {
		n.logger.Info("customer has no phone, skipping delivery sms",
			slog.Int64("customer_id", customer.ID), slog.Int64("device_id", device.ID))
		return nil
	}
	_, err = n.client.EnqueueSendSMS(ctx, SendSMSPayload{
		To:   customer.Phone,
		From: n.senderName,
		Body: notify.DeliveredBody(customer.Name, device.Brand, device.Model),
	})
	return err
}

var _ devices.DeliveryNotifier = (*DeliveryNotifier)(nil)
