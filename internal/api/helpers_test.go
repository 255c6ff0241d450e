// Copyright (c) 2026 Folivafy authors. All rights reserved.

package api_test

import (
	"io"
	"log/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
