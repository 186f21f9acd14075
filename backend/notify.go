// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/notify.go
// -*- mode: go; coding: utf-8; -*-
// Created on 18. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-10 21:25:12 krylon>

package backend

import (
	"fmt"
	"log"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/blicero/mnemosyne/objects"
	"github.com/godbus/dbus/v5"
)

const (
	notifyObj    = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"
	notifyClose  = "org.freedesktop.Notifications.CloseNotification"
	inboundDepth = 8
)

// Notifier is a Transport that renders outbound messages as desktop
// notifications on the session bus. The notification ID the server
// hands back doubles as the message handle, so deleting a message
// closes the notification. The inbound side is fed by the Daemon's
// web API via Feed.
type Notifier struct {
	log     *log.Logger
	bus     *dbus.Conn
	inbound chan objects.Message
}

// NewNotifier connects to the DBus session bus.
func NewNotifier() (*Notifier, error) {
	var (
		err error
		n   = &Notifier{
			inbound: make(chan objects.Message, inboundDepth),
		}
	)

	if n.log, err = common.GetLogger(logdomain.DBus); err != nil {
		return nil, err
	} else if n.bus, err = dbus.SessionBus(); err != nil {
		n.log.Printf("[ERROR] Failed to connect to DBus Session bus: %s\n",
			err.Error())
		return nil, err
	}

	return n, nil
} // func NewNotifier() (*Notifier, error)

// SendMessage posts a desktop notification and returns its ID.
// The chat ID has no meaning on a single desktop, every conversation
// ends up on the same screen.
func (n *Notifier) SendMessage(chatID int64, text string) (int64, error) {
	var obj = n.bus.Object(notifyObj, notifyPath)

	if obj == nil {
		var err = fmt.Errorf("Did not find object %s (%s) on session bus",
			notifyObj,
			notifyPath)
		n.log.Printf("[ERROR] %s\n", err.Error())
		return 0, err
	}

	var res = obj.Call(
		notifyMethod,
		0,
		common.AppName,
		uint32(0),
		"",
		common.AppName,
		text,
		[]string{},
		map[string]dbus.Variant{},
		int32(-1),
	)

	if res.Err != nil {
		n.log.Printf("[ERROR] Cannot send Notification %q: %s\n",
			text,
			res.Err.Error())
		return 0, res.Err
	}

	var id uint32

	if err := res.Store(&id); err != nil {
		n.log.Printf("[ERROR] Cannot get ID of Notification: %s\n",
			err.Error())
		return 0, err
	}

	return int64(id), nil
} // func (n *Notifier) SendMessage(chatID int64, text string) (int64, error)

// DeleteMessage closes a notification posted earlier.
func (n *Notifier) DeleteMessage(chatID, msgID int64) error {
	var obj = n.bus.Object(notifyObj, notifyPath)

	if obj == nil {
		var err = fmt.Errorf("Did not find object %s (%s) on session bus",
			notifyObj,
			notifyPath)
		n.log.Printf("[ERROR] %s\n", err.Error())
		return err
	}

	var res = obj.Call(notifyClose, 0, uint32(msgID))

	if res.Err != nil {
		n.log.Printf("[ERROR] Cannot close Notification %d: %s\n",
			msgID,
			res.Err.Error())
		return res.Err
	}

	return nil
} // func (n *Notifier) DeleteMessage(chatID, msgID int64) error

// Inbound returns the stream of inbound messages.
func (n *Notifier) Inbound() <-chan objects.Message {
	return n.inbound
} // func (n *Notifier) Inbound() <-chan objects.Message

// Feed hands an inbound message to whoever consumes the stream.
func (n *Notifier) Feed(m objects.Message) {
	n.inbound <- m
} // func (n *Notifier) Feed(m objects.Message)
