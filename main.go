// /home/krylon/go/src/github.com/blicero/mnemosyne/main.go
// -*- mode: go; coding: utf-8; -*-
// Created on 03. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-11 19:40:23 krylon>

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blicero/mnemosyne/backend"
	"github.com/blicero/mnemosyne/clients/clientlib"
	"github.com/blicero/mnemosyne/common"
)

func main() {
	fmt.Printf("%s %s (built %s)\n",
		common.AppName,
		common.Version,
		common.BuildStamp.Format(common.TimestampFormat))

	var (
		err                      error
		daemon                   *backend.Daemon
		appDir, mode, addr, text string
		chatID                   int64
	)

	flag.StringVar(
		&appDir,
		"appdir",
		common.BaseDir,
		"The directory where application-specific files live")

	flag.StringVar(
		&mode,
		"mode",
		"daemon",
		"Whether to run the *daemon* or submit a *command*",
	)

	flag.StringVar(
		&addr,
		"address",
		fmt.Sprintf("localhost:%d", common.DefaultPort),
		"Address to either listen on (daemon) or connect to (command)",
	)

	flag.StringVar(
		&text,
		"text",
		"",
		"The command to submit (command mode only)",
	)

	flag.Int64Var(
		&chatID,
		"chat",
		1,
		"The conversation to submit the command for (command mode only)",
	)

	flag.Parse()

	if appDir != common.BaseDir {
		if err = common.SetBaseDir(appDir); err != nil {
			fmt.Fprintf(
				os.Stderr,
				"Cannot set application directory to %s: %s\n",
				appDir,
				err.Error())
			os.Exit(1)
		}
	}

	if mode == "daemon" {
		if daemon, err = backend.Summon(addr, nil); err != nil {
			fmt.Fprintf(
				os.Stderr,
				"Failed to initialize backend: %s\n",
				err.Error())
			os.Exit(1)
		}

		var sigQ = make(chan os.Signal, 1)
		var ticker = time.NewTicker(time.Second * 2)

		signal.Notify(sigQ, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

		for daemon.IsAlive() {
			select {
			case sig := <-sigQ:
				fmt.Printf("Quitting on signal %s\n", sig)
				daemon.Banish() // nolint: errcheck
				os.Exit(0)
			case <-ticker.C:
				continue
			}
		}
	} else if mode == "command" {
		var client *clientlib.Client

		if client, err = clientlib.NewClient(addr); err != nil {
			fmt.Fprintf(
				os.Stderr,
				"Cannot create client: %s\n",
				err.Error())
			os.Exit(1)
		} else if err = client.SubmitCommand(chatID, text); err != nil {
			fmt.Fprintf(
				os.Stderr,
				"Cannot submit command: %s\n",
				err.Error())
			os.Exit(1)
		}
	} else {
		fmt.Fprintf(
			os.Stderr,
			"Unknown mode %q",
			mode,
		)

		os.Exit(1)
	}
}
