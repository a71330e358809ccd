package notification

import "context"

// Sender delivers text messages.
type Sender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// Caller places voice calls. Emergency calls go to short codes and may be
// handled by a different trunk than contact calls.
type Caller interface {
	PlaceCall(ctx context.Context, phone string) error
	PlaceEmergencyCall(ctx context.Context, number string) error
}
