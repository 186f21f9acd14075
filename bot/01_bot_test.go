// /home/krylon/go/src/github.com/blicero/mnemosyne/bot/01_bot_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-09 20:31:27 krylon>

package bot

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/blicero/mnemosyne/database"
	"github.com/blicero/mnemosyne/objects"
)

const testChat int64 = 42

type sentMessage struct {
	chatID int64
	msgID  int64
	text   string
}

// fakeTransport is a Transport backed by channels, so the tests can
// inject inbound messages and inspect what the Bot sends.
type fakeTransport struct {
	inbound chan objects.Message
	sent    chan sentMessage
	msgCnt  int64
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan objects.Message, 8),
		sent:    make(chan sentMessage, 8),
	}
} // func newFakeTransport() *fakeTransport

func (tp *fakeTransport) SendMessage(chatID int64, text string) (int64, error) {
	tp.msgCnt++
	tp.sent <- sentMessage{
		chatID: chatID,
		msgID:  tp.msgCnt,
		text:   text,
	}
	return tp.msgCnt, nil
} // func (tp *fakeTransport) SendMessage(chatID int64, text string) (int64, error)

func (tp *fakeTransport) DeleteMessage(chatID, msgID int64) error {
	return nil
} // func (tp *fakeTransport) DeleteMessage(chatID, msgID int64) error

func (tp *fakeTransport) Inbound() <-chan objects.Message {
	return tp.inbound
} // func (tp *fakeTransport) Inbound() <-chan objects.Message

func (tp *fakeTransport) say(text string) {
	tp.inbound <- objects.Message{
		ChatID: testChat,
		Text:   text,
	}
} // func (tp *fakeTransport) say(text string)

func (tp *fakeTransport) awaitReply(t *testing.T) sentMessage {
	t.Helper()

	select {
	case m := <-tp.sent:
		return m
	case <-time.After(time.Second * 5):
		t.Fatal("Timed out waiting for the Bot to reply")
		return sentMessage{}
	}
} // func (tp *fakeTransport) awaitReply(t *testing.T) sentMessage

func (tp *fakeTransport) expectSilence(t *testing.T, wait time.Duration) {
	t.Helper()

	select {
	case m := <-tp.sent:
		t.Fatalf("Unexpected message to chat %d: %q",
			m.chatID,
			m.text)
	case <-time.After(wait):
		// All is well.
	}
} // func (tp *fakeTransport) expectSilence(t *testing.T, wait time.Duration)

var (
	pool *database.Pool
	tb   *Bot
	tp   *fakeTransport
)

func TestBotCreate(t *testing.T) {
	var err error

	tp = newFakeTransport()

	if pool, err = database.NewPool(2); err != nil {
		t.Fatalf("Cannot create database pool: %s",
			err.Error())
	} else if tb, err = Create(pool, tp); err != nil {
		tb = nil
		t.Fatalf("Cannot create Bot: %s",
			err.Error())
	}

	go tb.Run()
} // func TestBotCreate(t *testing.T)

func TestListEmpty(t *testing.T) {
	if tb == nil {
		t.SkipNow()
	}

	tp.say("!лист")

	var reply = tp.awaitReply(t)

	if reply.chatID != testChat {
		t.Errorf("Reply went to chat %d (expected %d)",
			reply.chatID,
			testChat)
	} else if reply.text != msgEmptyList {
		t.Errorf("Unexpected reply: %q (expected %q)",
			reply.text,
			msgEmptyList)
	}
} // func TestListEmpty(t *testing.T)

func TestRemindInvalid(t *testing.T) {
	if tb == nil {
		t.SkipNow()
	}

	tp.say("!напомни ужин в восемь")

	var reply = tp.awaitReply(t)

	if reply.text != msgInvalidFormat {
		t.Errorf("Unexpected reply: %q (expected the format hint)",
			reply.text)
	}
} // func TestRemindInvalid(t *testing.T)

func TestRemind(t *testing.T) {
	if tb == nil {
		t.SkipNow()
	}

	tp.say("!напомни тест 23:59")

	var reply = tp.awaitReply(t)

	if reply.text != msgDone {
		t.Fatalf("Unexpected reply: %q (expected %q)",
			reply.text,
			msgDone)
	}

	var (
		err error
		r   *objects.Reminder
		db  = pool.Get()
	)

	r, err = db.ReminderGetByEvent("тест")
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot look up Reminder: %s", err.Error())
	} else if r == nil {
		t.Fatal("Reminder \"тест\" was not stored")
	} else if r.ChatID != testChat {
		t.Errorf("Reminder belongs to chat %d (expected %d)",
			r.ChatID,
			testChat)
	} else if !tb.Scheduler().IsArmed(r.ID) {
		t.Errorf("Reminder %d has no timer", r.ID)
	}
} // func TestRemind(t *testing.T)

func TestListOne(t *testing.T) {
	if tb == nil {
		t.SkipNow()
	}

	var (
		err error
		r   *objects.Reminder
		db  = pool.Get()
	)

	r, err = db.ReminderGetByEvent("тест")
	pool.Put(db)

	if err != nil || r == nil {
		t.Skipf("Reminder \"тест\" is not available: %v", err)
	}

	tp.say("!лист")

	var (
		reply    = tp.awaitReply(t)
		expected = fmt.Sprintf("%s\n- %s (%s)",
			msgListHeader,
			r.Event,
			r.DueString())
	)

	if reply.text != expected {
		t.Errorf("Unexpected reply:\n%q\nexpected:\n%q",
			reply.text,
			expected)
	}
} // func TestListOne(t *testing.T)

func TestDeleteNotFound(t *testing.T) {
	if tb == nil {
		t.SkipNow()
	}

	tp.say("!удалить нет такого")

	var reply = tp.awaitReply(t)

	if !strings.Contains(reply.text, "не найдено") {
		t.Errorf("Unexpected reply: %q", reply.text)
	}
} // func TestDeleteNotFound(t *testing.T)

func TestDelete(t *testing.T) {
	if tb == nil {
		t.SkipNow()
	}

	tp.say("!удалить тест")

	var reply = tp.awaitReply(t)

	if reply.text != fmt.Sprintf(fmtDeleted, "тест") {
		t.Fatalf("Unexpected reply: %q", reply.text)
	}

	var (
		err error
		r   *objects.Reminder
		db  = pool.Get()
	)

	r, err = db.ReminderGetByEvent("тест")
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot look up Reminder: %s", err.Error())
	} else if r != nil {
		t.Errorf("Reminder %d should be gone after deletion", r.ID)
	}

	if cnt := tb.Scheduler().CntArmed(); cnt != 0 {
		t.Errorf("Scheduler still has %d armed timer(s)", cnt)
	}
} // func TestDelete(t *testing.T)

func TestDeliverCancelled(t *testing.T) {
	if tb == nil {
		t.SkipNow()
	}

	// Delivering an ID whose row is gone must not send anything.
	tb.Deliver(4095)

	tp.expectSilence(t, time.Millisecond*500)
} // func TestDeliverCancelled(t *testing.T)

func TestDeliver(t *testing.T) {
	if tb == nil {
		t.SkipNow()
	}

	tp.say("!напомни чай 0:01")

	var reply = tp.awaitReply(t)

	if reply.text != msgDone {
		t.Fatalf("Unexpected reply: %q (expected %q)",
			reply.text,
			msgDone)
	}

	var (
		err error
		r   *objects.Reminder
		db  = pool.Get()
	)

	r, err = db.ReminderGetByEvent("чай")
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot look up Reminder: %s", err.Error())
	} else if r == nil {
		t.Fatal("Reminder \"чай\" was not stored")
	}

	tb.Deliver(r.ID)

	reply = tp.awaitReply(t)

	if reply.chatID != testChat {
		t.Errorf("Notification went to chat %d (expected %d)",
			reply.chatID,
			testChat)
	} else if reply.text != r.Payload() {
		t.Errorf("Unexpected notification: %q (expected %q)",
			reply.text,
			r.Payload())
	}

	db = pool.Get()
	var ref *objects.Reminder
	ref, err = db.ReminderGetByID(r.ID)
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot look up Reminder %d: %s",
			r.ID,
			err.Error())
	} else if ref != nil {
		t.Errorf("Reminder %d should be gone after delivery", r.ID)
	}

	// The timer armed at creation is still live; clean it up so later
	// tests start from a blank slate. Its eventual fire is harmless,
	// the row is already gone.
	tb.Scheduler().Cancel(r.ID) // nolint: errcheck
} // func TestDeliver(t *testing.T)

func TestBotStop(t *testing.T) {
	if tb == nil {
		t.SkipNow()
	}

	tb.Stop()

	if tb.IsAlive() {
		t.Error("Bot should not be alive after Stop")
	}
} // func TestBotStop(t *testing.T)
