package logger

import (
	"log/slog"

	"github.com/google/uuid"
)

// Error records err under "error". A nil err yields an empty Attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func AccountID(id uuid.UUID) slog.Attr {
	return slog.String("account_id", id.String())
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}
