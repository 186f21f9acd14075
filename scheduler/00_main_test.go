// /home/krylon/go/src/github.com/blicero/mnemosyne/scheduler/00_main_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-24 18:12:30 krylon>

package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blicero/mnemosyne/common"
)

func TestMain(m *testing.M) {
	var (
		err     error
		result  int
		baseDir = filepath.Join(
			os.TempDir(),
			fmt.Sprintf("mnemosyne_scheduler_test_%s",
				time.Now().Format("20060102_150405")))
	)

	if err = common.SetBaseDir(baseDir); err != nil {
		fmt.Printf("Cannot set base directory to %s: %s\n",
			baseDir,
			err.Error())
		os.Exit(1)
	}

	result = m.Run()

	os.RemoveAll(baseDir) // nolint: errcheck

	os.Exit(result)
} // func TestMain(m *testing.M)
