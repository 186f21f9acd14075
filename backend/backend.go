// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/backend.go
// -*- mode: go; coding: utf-8; -*-
// Created on 17. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-10 21:18:47 krylon>

// Package backend implements the Daemon that ties the pieces together:
// the database pool, the Bot with its Scheduler, the Transport and the
// web interface.
package backend

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/blicero/mnemosyne/bot"
	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/database"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/gorilla/mux"
	"github.com/grandcat/zeroconf"
)

const poolSize = 4

// Daemon is the centerpiece of the backend, coordinating between the
// database, the Bot, and the clients.
type Daemon struct {
	log        *log.Logger
	pool       *database.Pool
	bot        *bot.Bot
	transport  bot.Transport
	lock       sync.RWMutex
	active     bool
	web        http.Server
	router     *mux.Router
	listenAddr string
	hostname   string
	dnssd      *zeroconf.Server
	idLock     sync.Mutex
	idCnt      int64
}

// Summon summons a Daemon and returns it. No sacrifice or idolatry is
// required. If tp is nil, the Daemon talks through the DBus desktop
// notification Transport.
func Summon(addr string, tp bot.Transport) (*Daemon, error) {
	var (
		err error
		d   = &Daemon{
			listenAddr: addr,
			active:     true,
			transport:  tp,
			router:     mux.NewRouter(),
		}
	)

	if d.log, err = common.GetLogger(logdomain.Backend); err != nil {
		fmt.Printf("ERROR initializing Logger: %s\n",
			err.Error())
		return nil, err
	} else if d.pool, err = database.NewPool(poolSize); err != nil {
		d.log.Printf("[ERROR] Cannot initialize database pool: %s\n",
			err.Error())
		return nil, err
	}

	if d.transport == nil {
		if d.transport, err = NewNotifier(); err != nil {
			d.log.Printf("[ERROR] Cannot connect to DBus: %s\n",
				err.Error())
			return nil, err
		}
	}

	if d.bot, err = bot.Create(d.pool, d.transport); err != nil {
		d.log.Printf("[ERROR] Cannot create Bot: %s\n",
			err.Error())
		return nil, err
	}

	if d.hostname, err = os.Hostname(); err != nil {
		d.log.Printf("[WARN] Cannot determine hostname: %s\n",
			err.Error())
		d.hostname = "localhost"
	}

	d.web.Addr = addr
	d.web.ErrorLog = d.log
	d.web.Handler = d.router

	if err = d.initWebHandlers(); err != nil {
		d.log.Printf("[ERROR] Failed to initialize web server: %s\n",
			err.Error())
		return nil, err
	}

	if err = d.initDNSSd(); err != nil {
		// Not being discoverable is unfortunate, but no reason to
		// refuse service.
		d.log.Printf("[WARN] Cannot announce service via DNS-SD: %s\n",
			err.Error())
	}

	go d.bot.Run()
	go d.serveHTTP()

	return d, nil
} // func Summon(addr string, tp bot.Transport) (*Daemon, error)

// Bot returns the Daemon's Bot.
func (d *Daemon) Bot() *bot.Bot {
	return d.bot
} // func (d *Daemon) Bot() *bot.Bot

// IsAlive returns true if the Daemon's active flag is set.
func (d *Daemon) IsAlive() bool {
	d.lock.RLock()
	var alive = d.active
	d.lock.RUnlock()

	return alive
} // func (d *Daemon) IsAlive() bool

// Banish clears the Daemon's active flag, telling components to shut down.
func (d *Daemon) Banish() error {
	var (
		err         error
		ctx, cancel = context.WithTimeout(context.Background(), time.Second*3)
	)
	defer cancel()

	if err = d.web.Shutdown(ctx); err != nil {
		d.log.Printf("[ERROR] Failed to shutdown web server: %s\n",
			err.Error())
	}

	if ctx.Err() != nil {
		err = ctx.Err()
		d.log.Printf("[ERROR] Failed to gracefully shut down web server: %s\n",
			ctx.Err().Error())
		d.web.Close() // nolint: errcheck
	}

	d.bot.Stop()
	d.finishDNSSd()

	if e := d.pool.Close(); e != nil {
		d.log.Printf("[ERROR] Failed to close database pool: %s\n",
			e.Error())
		if err == nil {
			err = e
		}
	}

	d.lock.Lock()
	d.active = false
	d.lock.Unlock()
	return err
} // func (d *Daemon) Banish() error
