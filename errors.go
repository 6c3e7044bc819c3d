/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Seednode/killchain/internal/game"
	"github.com/Seednode/killchain/internal/store"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}

// userMessage translates engine and store failures into text safe to
// show the acting player. Precondition violations surface verbatim;
// store trouble is reported as retryable and never dressed up as a
// business error.
func userMessage(err error) string {
	var verr *game.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}

	switch {
	case errors.Is(err, game.ErrAlreadyEliminated),
		errors.Is(err, game.ErrUnknownPlayer),
		errors.Is(err, game.ErrNotYourTarget),
		errors.Is(err, game.ErrDuplicatePending),
		errors.Is(err, game.ErrNoPendingKill),
		errors.Is(err, game.ErrWrongState):
		return err.Error()
	case errors.Is(err, store.ErrNotFound):
		return "that game no longer exists"
	case errors.Is(err, store.ErrConflict):
		return "the game changed while processing your request; please try again"
	case errors.Is(err, store.ErrUnavailable):
		return "the game store is temporarily unavailable; please try again"
	default:
		return "something went wrong; please try again"
	}
}
