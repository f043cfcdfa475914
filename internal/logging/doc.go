// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

// Package logging provides the process-wide zerolog logger for WACRM.
//
// The logger is usable before Init is called; Init reconfigures level and
// format from the loaded configuration:
//
//	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
//	logging.Info().Str("addr", addr).Msg("Server starting")
//
// Request handlers and update jobs log through Ctx so that request and
// correlation IDs follow every line:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Warn().Err(err).Msg("Update failed, rolled back")
//
// Libraries that expect log/slog (the suture supervisor) are bridged with
// NewSlogHandler.
//
// Always terminate event chains with Msg or Send; an unterminated event is
// never written.
package logging
