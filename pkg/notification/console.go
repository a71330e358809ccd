package notification

import (
	"context"

	"go.uber.org/zap"
)

// Console logs deliveries instead of sending them. Used in development and as
// the default when no gateway is configured.
type Console struct {
	Log *zap.Logger
}

func (c *Console) SendSMS(_ context.Context, phone, message string) error {
	c.Log.Info("sms (console)", zap.String("to", phone), zap.String("message", message))
	return nil
}

func (c *Console) PlaceCall(_ context.Context, phone string) error {
	c.Log.Info("call (console)", zap.String("to", phone))
	return nil
}

func (c *Console) PlaceEmergencyCall(_ context.Context, number string) error {
	c.Log.Info("emergency call (console)", zap.String("to", number))
	return nil
}
