// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of algo-builder-sub005
//
// algo-builder-sub005 is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// algo-builder-sub005 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with algo-builder-sub005.  If not, see <https://www.gnu.org/licenses/>.

// Package serr provides errors that carry key/value attributes alongside their
// message, so a rejection can say which account, asset or app it was about.
package serr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/slog"
)

// Error is a structured error.
type Error struct {
	Msg     string
	Attrs   map[string]any
	Wrapped error
}

// New creates a new structured error object using the supplied message and attributes.
func New(msg string, pairs ...any) *Error {
	return &Error{Msg: msg, Attrs: toAttrs(pairs)}
}

// Wrap creates a structured error with its own message that unwraps to err.
func Wrap(err error, msg string, pairs ...any) *Error {
	e := New(msg, pairs...)
	e.Wrapped = err
	return e
}

func toAttrs(pairs []any) map[string]any {
	attrs := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			key = fmt.Sprint(pairs[i])
		}
		attrs[key] = pairs[i+1]
	}
	return attrs
}

// Error returns the message followed by the attributes in key order. A wrapped
// error's text is appended after a colon.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	if len(e.Attrs) > 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.attrString())
	}
	if e.Wrapped != nil && e.Wrapped.Error() != e.Msg {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

func (e *Error) attrString() string {
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, e.Attrs[k])
	}

	var buf strings.Builder
	drop := func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.TimeKey, slog.LevelKey, slog.MessageKey:
			return slog.Attr{}
		}
		return a
	}
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{ReplaceAttr: drop}))
	l.Info("", args...)
	return strings.TrimSpace(buf.String())
}

// Extend adds additional attributes to an existing error. If the supplied error
// is nil, a new structured error is created with the given attributes and no
// message. If the error is not a structured error, it is wrapped in one using
// its existing message and the new attributes.
func Extend(err error, pairs ...any) error {
	if err == nil {
		return New("", pairs...)
	}
	var se *Error
	if errors.As(err, &se) {
		for k, v := range toAttrs(pairs) {
			se.Attrs[k] = v
		}
		return err
	}
	return Wrap(err, err.Error(), pairs...)
}

// Attr looks up key on the first structured error in err's chain.
func Attr(err error, key string) (any, bool) {
	var se *Error
	if !errors.As(err, &se) {
		return nil, false
	}
	v, ok := se.Attrs[key]
	return v, ok
}

// Unwrap returns the inner error, if it exists.
func (e *Error) Unwrap() error {
	return e.Wrapped
}
