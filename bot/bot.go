// /home/krylon/go/src/github.com/blicero/mnemosyne/bot/bot.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-09 19:55:40 krylon>

// Package bot implements the command surface of the application: it
// consumes inbound chat messages, creates, lists and deletes Reminders,
// and delivers the notification when a Reminder comes due.
package bot

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/database"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/blicero/mnemosyne/objects"
	"github.com/blicero/mnemosyne/resolver"
	"github.com/blicero/mnemosyne/scheduler"
)

// Transport is the chat channel the Bot talks through. The Bot does not
// care what is on the other side - Telegram, DBus, a test harness - it
// only sends messages, deletes messages it sent earlier, and consumes
// the inbound stream.
type Transport interface {
	SendMessage(chatID int64, text string) (int64, error)
	DeleteMessage(chatID, msgID int64) error
	Inbound() <-chan objects.Message
}

// Feeder is implemented by Transports whose inbound stream is fed from
// within the process, e.g. by the Daemon's web API.
type Feeder interface {
	Feed(m objects.Message)
}

// Command prefixes and user-visible messages, verbatim from the legacy
// bot. Yes, they are Russian.
const (
	cmdRemind = "!напомни"
	cmdList   = "!лист"
	cmdDelete = "!удалить"

	msgEmptyList     = "Список напоминаний пуст."
	msgListHeader    = "Список напоминаний:"
	msgInvalidFormat = `Неверный формат. Введите событие и время/дату в формате: "событие ЧЧ:ММ" или "событие ДД.MM ЧЧ:ММ"`
	msgDone          = "Готово! ✔️"
	fmtNotFound      = "Напоминание %q не найдено."
	fmtDeleted       = "Напоминание %q успешно удалено."
)

// Lifetimes of the ephemeral replies.
const (
	hintTTL     = time.Second * 30
	confirmTTL  = time.Second * 15
	loopTimeout = time.Second * 2
)

// Bot ties the Transport, the Scheduler and the database together.
type Bot struct {
	log    *log.Logger
	pool   *database.Pool
	sched  *scheduler.Scheduler
	tp     Transport
	lock   sync.RWMutex
	active bool
}

// Create creates a Bot that talks through the given Transport. The Bot
// owns its Scheduler; delivery goes back out through the same Transport.
func Create(pool *database.Pool, tp Transport) (*Bot, error) {
	var (
		err error
		b   = &Bot{
			pool:   pool,
			tp:     tp,
			active: true,
		}
	)

	if b.log, err = common.GetLogger(logdomain.Bot); err != nil {
		return nil, err
	} else if b.sched, err = scheduler.New(pool, b.Deliver); err != nil {
		b.log.Printf("[ERROR] Cannot create Scheduler: %s\n",
			err.Error())
		return nil, err
	}

	return b, nil
} // func Create(pool *database.Pool, tp Transport) (*Bot, error)

// Scheduler returns the Bot's Scheduler.
func (b *Bot) Scheduler() *scheduler.Scheduler {
	return b.sched
} // func (b *Bot) Scheduler() *scheduler.Scheduler

// IsAlive returns true if the Bot's active flag is set.
func (b *Bot) IsAlive() bool {
	b.lock.RLock()
	var alive = b.active
	b.lock.RUnlock()

	return alive
} // func (b *Bot) IsAlive() bool

// Stop clears the active flag and shuts down the Scheduler.
func (b *Bot) Stop() {
	b.lock.Lock()
	b.active = false
	b.lock.Unlock()

	b.sched.Shutdown()
} // func (b *Bot) Stop()

// Run re-arms the timers for any Reminders that survived a restart in
// the database, then processes inbound messages until the Bot is
// stopped. Reconciliation has to come first, or a Reminder persisted
// before a crash would never fire again.
func (b *Bot) Run() {
	defer b.log.Println("[TRACE] Quitting message loop")

	var err error

	if err = b.sched.Reconcile(); err != nil {
		b.log.Printf("[ERROR] Startup reconciliation failed: %s\n",
			err.Error())
	}

	var tick = time.NewTicker(loopTimeout)
	defer tick.Stop()

	for b.IsAlive() {
		select {
		case <-tick.C:
			continue
		case m := <-b.tp.Inbound():
			b.handleMessage(m)
		}
	}
} // func (b *Bot) Run()

func (b *Bot) handleMessage(m objects.Message) {
	var txt = strings.TrimSpace(m.Text)

	b.log.Printf("[TRACE] Message from chat %d: %q\n",
		m.ChatID,
		txt)

	switch {
	case txt == cmdList:
		b.handleList(m.ChatID)
	case strings.HasPrefix(txt, cmdDelete+" "):
		b.handleDelete(m.ChatID, strings.TrimSpace(txt[len(cmdDelete):]))
	case strings.HasPrefix(txt, cmdRemind+" "):
		b.handleRemind(m.ChatID, strings.TrimSpace(txt[len(cmdRemind):]))
	default:
		// Not addressed to us, ignore.
	}
} // func (b *Bot) handleMessage(m objects.Message)

func (b *Bot) handleList(chatID int64) {
	var (
		err       error
		reminders []objects.Reminder
		db        = b.pool.Get()
	)
	defer b.pool.Put(db)

	if reminders, err = db.ReminderGetAll(); err != nil {
		b.log.Printf("[ERROR] Cannot load Reminders: %s\n",
			err.Error())
		return
	}

	if len(reminders) == 0 {
		b.send(chatID, msgEmptyList)
		return
	}

	var buf strings.Builder

	buf.WriteString(msgListHeader)

	for idx := range reminders {
		var r = &reminders[idx]
		fmt.Fprintf(&buf, "\n- %s (%s)",
			r.Event,
			r.DueString())
	}

	b.send(chatID, buf.String())
} // func (b *Bot) handleList(chatID int64)

func (b *Bot) handleDelete(chatID int64, event string) {
	var (
		err error
		r   *objects.Reminder
		db  = b.pool.Get()
	)

	r, err = db.ReminderGetByEvent(event)
	b.pool.Put(db)

	if err != nil {
		b.log.Printf("[ERROR] Cannot look up Reminder %q: %s\n",
			event,
			err.Error())
		return
	} else if r == nil {
		b.send(chatID, fmt.Sprintf(fmtNotFound, event))
		return
	}

	if err = b.sched.Cancel(r.ID); err != nil {
		b.log.Printf("[ERROR] Cannot cancel Reminder %d (%q): %s\n",
			r.ID,
			event,
			err.Error())
		return
	}

	b.send(chatID, fmt.Sprintf(fmtDeleted, event))
} // func (b *Bot) handleDelete(chatID int64, event string)

func (b *Bot) handleRemind(chatID int64, text string) {
	var (
		err error
		res *resolver.Result
	)

	if res, err = resolver.Resolve(text, time.Now()); err != nil {
		b.log.Printf("[DEBUG] %s\n", err.Error())
		b.sendEphemeral(chatID, msgInvalidFormat, hintTTL)
		return
	}

	var r = objects.Reminder{
		Event:     res.Event,
		Timestamp: res.FireAt,
		ChatID:    chatID,
		UUID:      common.GetUUID(),
	}

	var db = b.pool.Get()
	err = db.ReminderAdd(&r)
	b.pool.Put(db)

	if err != nil {
		b.log.Printf("[ERROR] Cannot add Reminder %q: %s\n",
			r.Event,
			err.Error())
		return
	}

	b.sched.Arm(&r)
	b.sendEphemeral(chatID, msgDone, confirmTTL)

	b.log.Printf("[INFO] New Reminder %d (%q), due %s\n",
		r.ID,
		r.Event,
		r.Timestamp.Format(common.TimestampFormat))
} // func (b *Bot) handleRemind(chatID int64, text string)

// Deliver is the terminal step of a Reminder's life: it sends the
// notification and removes the row. A Reminder whose row is already gone
// was cancelled after its timer was scheduled, so nothing is delivered -
// the legacy bot skipped this check and would happily remind the user of
// things they had just cancelled.
func (b *Bot) Deliver(id int64) {
	var (
		err error
		r   *objects.Reminder
		db  = b.pool.Get()
	)
	defer b.pool.Put(db)

	if r, err = db.ReminderGetByID(id); err != nil {
		b.log.Printf("[ERROR] Cannot look up Reminder %d: %s\n",
			id,
			err.Error())
		return
	} else if r == nil {
		b.log.Printf("[DEBUG] Reminder %d is gone, probably cancelled\n",
			id)
		return
	}

	// A failed send does not block the cleanup. Past its fire time the
	// Reminder has no meaningful retry window anyway.
	if _, err = b.tp.SendMessage(r.ChatID, r.Payload()); err != nil {
		b.log.Printf("[ERROR] Cannot deliver Reminder %d (%q) to chat %d: %s\n",
			r.ID,
			r.Event,
			r.ChatID,
			err.Error())
	}

	if err = db.ReminderDelete(id); err != nil {
		b.log.Printf("[ERROR] Cannot delete Reminder %d after delivery: %s\n",
			id,
			err.Error())
	}
} // func (b *Bot) Deliver(id int64)

func (b *Bot) send(chatID int64, text string) {
	var err error

	if _, err = b.tp.SendMessage(chatID, text); err != nil {
		b.log.Printf("[ERROR] Cannot send message to chat %d: %s\n",
			chatID,
			err.Error())
	}
} // func (b *Bot) send(chatID int64, text string)

// sendEphemeral sends a message that deletes itself after ttl.
// Deletion is best effort, a failure is logged and forgotten.
func (b *Bot) sendEphemeral(chatID int64, text string, ttl time.Duration) {
	var (
		err   error
		msgID int64
	)

	if msgID, err = b.tp.SendMessage(chatID, text); err != nil {
		b.log.Printf("[ERROR] Cannot send message to chat %d: %s\n",
			chatID,
			err.Error())
		return
	}

	time.AfterFunc(ttl, func() {
		if e := b.tp.DeleteMessage(chatID, msgID); e != nil {
			b.log.Printf("[WARN] Cannot delete message %d in chat %d: %s\n",
				msgID,
				chatID,
				e.Error())
		}
	})
} // func (b *Bot) sendEphemeral(chatID int64, text string, ttl time.Duration)
