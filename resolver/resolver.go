// /home/krylon/go/src/github.com/blicero/mnemosyne/resolver/resolver.go
// -*- mode: go; coding: utf-8; -*-
// Created on 05. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-06 14:21:48 krylon>

// Package resolver turns the text of a reminder command into an event
// name and an absolute point in time at which the Reminder fires.
//
// The grammar is fixed and deliberately small, it consists of two rules:
//
//	<event> HH:MM
//	<event> DD.MM HH:MM
//
// The event name is one or more words of letters (Latin or Cyrillic) and
// spaces. Within each numeric pair, "." and ":" are interchangeable.
// A time that has already passed relative to the reference time rolls
// forward by one day, so requesting 09:30 late in the evening yields
// 09:30 the next morning.
package resolver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseError indicates that a command did not match the grammar or that
// one of its numeric fields was out of range. It is never fatal, the
// user merely gets a hint about the expected format.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Cannot parse reminder %q: %s",
		e.Input,
		e.Reason)
} // func (e *ParseError) Error() string

// Result is the outcome of successfully parsing a reminder command.
type Result struct {
	Event  string
	FireAt time.Time
}

// The two grammar rules. The event alphabet is the legacy one, letters
// and whitespace only, no digits.
var (
	timePat = regexp.MustCompile(`^([a-zA-Zа-яА-Я\s]+?)\s+(\d{1,2})[:.](\d{2})$`)
	datePat = regexp.MustCompile(`^([a-zA-Zа-яА-Я\s]+?)\s+(\d{1,2})[.:](\d{1,2})\s+(\d{1,2})[:.](\d{2})$`)
)

// Resolve parses text relative to now and returns the event name plus
// the absolute fire time. The date+time rule is tried first, because the
// time-only rule would otherwise swallow its prefix.
func Resolve(text string, now time.Time) (*Result, error) {
	var match []string

	if match = datePat.FindStringSubmatch(text); match != nil {
		return resolveDate(text, match, now)
	} else if match = timePat.FindStringSubmatch(text); match != nil {
		return resolveTime(text, match, now)
	}

	return nil, &ParseError{
		Input:  text,
		Reason: "text matches neither <event> HH:MM nor <event> DD.MM HH:MM",
	}
} // func Resolve(text string, now time.Time) (*Result, error)

func resolveTime(text string, match []string, now time.Time) (*Result, error) {
	var (
		err          error
		hour, minute int
	)

	if hour, minute, err = clockFields(text, match[2], match[3]); err != nil {
		return nil, err
	}

	var candidate = time.Date(
		now.Year(),
		now.Month(),
		now.Day(),
		hour,
		minute,
		0,
		0,
		now.Location())

	if candidate.Before(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}

	return &Result{
		Event:  strings.TrimSpace(match[1]),
		FireAt: candidate,
	}, nil
} // func resolveTime(text string, match []string, now time.Time) (*Result, error)

func resolveDate(text string, match []string, now time.Time) (*Result, error) {
	var (
		err                      error
		day, month, hour, minute int
	)

	// The fields are all digits per the pattern, Atoi cannot fail here.
	day, _ = strconv.Atoi(match[2])
	month, _ = strconv.Atoi(match[3])

	if day < 1 || day > 31 {
		return nil, &ParseError{
			Input:  text,
			Reason: fmt.Sprintf("day %d is out of range (1-31)", day),
		}
	} else if month < 1 || month > 12 {
		return nil, &ParseError{
			Input:  text,
			Reason: fmt.Sprintf("month %d is out of range (1-12)", month),
		}
	} else if hour, minute, err = clockFields(text, match[4], match[5]); err != nil {
		return nil, err
	}

	var candidate = time.Date(
		now.Year(),
		time.Month(month),
		day,
		hour,
		minute,
		0,
		0,
		now.Location())

	// NB A date that has already passed this year rolls forward by one
	//    day, not one year. That is what the legacy bot did, and nobody
	//    has complained yet.
	if candidate.Before(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}

	return &Result{
		Event:  strings.TrimSpace(match[1]),
		FireAt: candidate,
	}, nil
} // func resolveDate(text string, match []string, now time.Time) (*Result, error)

func clockFields(text, hstr, mstr string) (int, int, error) {
	var hour, minute int

	hour, _ = strconv.Atoi(hstr)
	minute, _ = strconv.Atoi(mstr)

	if hour > 23 {
		return 0, 0, &ParseError{
			Input:  text,
			Reason: fmt.Sprintf("hour %d is out of range (0-23)", hour),
		}
	} else if minute > 59 {
		return 0, 0, &ParseError{
			Input:  text,
			Reason: fmt.Sprintf("minute %d is out of range (0-59)", minute),
		}
	}

	return hour, minute, nil
} // func clockFields(text, hstr, mstr string) (int, int, error)
