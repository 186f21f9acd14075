// /home/krylon/go/src/github.com/blicero/mnemosyne/scheduler/scheduler.go
// -*- mode: go; coding: utf-8; -*-
// Created on 10. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-08 20:27:19 krylon>

// Package scheduler keeps one timer per pending Reminder and hands a
// Reminder over for delivery when its timer goes off.
//
// The database is the source of truth, the timer registry is merely a
// projection of it into the running process. Timers do not survive a
// restart, so Reconcile must run on startup to re-arm a timer for every
// row that is still in the database.
package scheduler

import (
	"log"
	"sync"
	"time"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/database"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/blicero/mnemosyne/objects"
)

// DeliverFunc is called - on the timer's goroutine - when a Reminder
// comes due. The callback has to look the Reminder up itself and treat
// a missing row as "already cancelled".
type DeliverFunc func(id int64)

// Scheduler owns the timer registry. Keying the registry by the
// Reminder's ID means cancellation can find the right timer without
// relying on closures.
type Scheduler struct {
	log     *log.Logger
	pool    *database.Pool
	deliver DeliverFunc
	lock    sync.Mutex
	timers  map[int64]*time.Timer
	active  bool
}

// New creates a Scheduler that uses the given connection pool and
// delivery callback.
func New(pool *database.Pool, deliver DeliverFunc) (*Scheduler, error) {
	var (
		err error
		s   = &Scheduler{
			pool:    pool,
			deliver: deliver,
			timers:  make(map[int64]*time.Timer),
			active:  true,
		}
	)

	if s.log, err = common.GetLogger(logdomain.Scheduler); err != nil {
		return nil, err
	}

	return s, nil
} // func New(pool *database.Pool, deliver DeliverFunc) (*Scheduler, error)

// Arm registers a timer for the given Reminder. A Reminder whose fire
// time has already passed - clock skew, or a row that came out of the
// database after a restart - fires immediately; a late delivery beats a
// silently dropped one. Arming a Reminder that already has a live timer
// is a no-op.
func (s *Scheduler) Arm(r *objects.Reminder) {
	var delay = time.Until(r.Timestamp)

	if delay < 0 {
		delay = 0
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.active {
		s.log.Printf("[DEBUG] Scheduler is shut down, not arming Reminder %d\n",
			r.ID)
		return
	} else if _, armed := s.timers[r.ID]; armed {
		return
	}

	var id = r.ID

	s.timers[id] = time.AfterFunc(delay, func() {
		s.fire(id)
	})

	s.log.Printf("[DEBUG] Armed Reminder %d (%q), due %s\n",
		r.ID,
		r.Event,
		r.Timestamp.Format(common.TimestampFormat))
} // func (s *Scheduler) Arm(r *objects.Reminder)

// fire runs on the timer's goroutine. The registry entry acts as the
// token for the terminal transition: whoever removes it - fire or
// Cancel - wins, so delivery is attempted at most once per Reminder.
func (s *Scheduler) fire(id int64) {
	s.lock.Lock()

	if _, armed := s.timers[id]; !armed || !s.active {
		s.lock.Unlock()
		return
	}

	delete(s.timers, id)
	s.lock.Unlock()

	s.log.Printf("[TRACE] Reminder %d is due\n", id)
	s.deliver(id)
} // func (s *Scheduler) fire(id int64)

// Cancel stops the Reminder's timer, if one is live, and removes the
// Reminder from the database. If the timer fired concurrently, the
// idempotent delete absorbs the race. If the database delete fails, the
// timer is re-armed, so a live row is never left without a timer.
func (s *Scheduler) Cancel(id int64) error {
	s.lock.Lock()
	if t, armed := s.timers[id]; armed {
		t.Stop()
		delete(s.timers, id)
	}
	s.lock.Unlock()

	var (
		err error
		db  = s.pool.Get()
	)
	defer s.pool.Put(db)

	if err = db.ReminderDelete(id); err != nil {
		s.log.Printf("[ERROR] Cannot delete Reminder %d: %s\n",
			id,
			err.Error())

		var r *objects.Reminder

		if r, _ = db.ReminderGetByID(id); r != nil {
			s.Arm(r)
		}

		return err
	}

	s.log.Printf("[DEBUG] Cancelled Reminder %d\n", id)
	return nil
} // func (s *Scheduler) Cancel(id int64) error

// Reconcile arms a timer for every Reminder in the database that does
// not have one yet. It must run on startup, before any commands are
// processed, or Reminders persisted before a restart are silently lost.
func (s *Scheduler) Reconcile() error {
	var (
		err       error
		reminders []objects.Reminder
		db        = s.pool.Get()
	)
	defer s.pool.Put(db)

	if reminders, err = db.ReminderGetAll(); err != nil {
		s.log.Printf("[ERROR] Cannot load Reminders for reconciliation: %s\n",
			err.Error())
		return err
	}

	for idx := range reminders {
		s.Arm(&reminders[idx])
	}

	s.log.Printf("[INFO] Reconciled %d Reminder(s) from the database\n",
		len(reminders))
	return nil
} // func (s *Scheduler) Reconcile() error

// CntArmed returns the number of currently armed timers.
func (s *Scheduler) CntArmed() int {
	s.lock.Lock()
	var cnt = len(s.timers)
	s.lock.Unlock()
	return cnt
} // func (s *Scheduler) CntArmed() int

// IsArmed returns true if a timer is live for the given Reminder.
func (s *Scheduler) IsArmed(id int64) bool {
	s.lock.Lock()
	var _, armed = s.timers[id]
	s.lock.Unlock()
	return armed
} // func (s *Scheduler) IsArmed(id int64) bool

// Shutdown stops all timers. Pending Reminders stay in the database and
// get re-armed by Reconcile on the next startup.
func (s *Scheduler) Shutdown() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.active = false

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}

	s.log.Println("[INFO] Scheduler has shut down")
} // func (s *Scheduler) Shutdown()
