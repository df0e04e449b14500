// Copyright 2026 The QWDash Authors
// SPDX-License-Identifier: Apache-2.0

package activity

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"
)

// Event types from <linux/input-event-codes.h>.
const (
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03
)

// keyPress is the EV_KEY value for a press; 0 is release, 2 repeat.
const keyPress = 1

// inputEvent mirrors struct input_event.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

var eventSize = binary.Size(inputEvent{})

// readBatch is how many events one read asks for.
const readBatch = 64

func (e inputEvent) isActivity() bool {
	switch e.Type {
	case evKey:
		return e.Value == keyPress
	case evAbs, evRel:
		return true
	}
	return false
}

type device struct {
	path string
	file *os.File
	done chan struct{}
}

// Run opens the matching devices and reads them until ctx is
// cancelled. It fails only when the directory cannot be watched.
func (m *Monitor) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating input watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(m.dir); err != nil {
		return fmt.Errorf("watching %s: %w", m.dir, err)
	}

	var readers sync.WaitGroup
	defer func() {
		m.closeAll()
		readers.Wait()
	}()

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", m.dir, err)
	}
	for _, entry := range entries {
		m.open(filepath.Join(m.dir, entry.Name()), &readers)
	}
	if len(m.Devices()) == 0 {
		m.logger.Warn("no input devices opened, waiting for hotplug", "dir", m.dir)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Has(fsnotify.Create):
				m.open(event.Name, &readers)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				m.close(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn("input watcher error", "error", err)
		}
	}
}

func (m *Monitor) open(path string, readers *sync.WaitGroup) {
	if !m.matches(path) {
		return
	}
	m.devicesMu.Lock()
	defer m.devicesMu.Unlock()
	if _, exists := m.devices[path]; exists {
		return
	}

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		m.logger.Warn("cannot open input device", "path", path, "error", err)
		return
	}
	d := &device{path: path, file: os.NewFile(uintptr(fd), path), done: make(chan struct{})}
	m.devices[path] = d
	m.logger.Info("input device opened", "path", path)

	readers.Add(1)
	go func() {
		defer readers.Done()
		defer close(d.done)
		m.read(d)
	}()
}

func (m *Monitor) read(d *device) {
	buffer := make([]byte, eventSize*readBatch)
	var pending []byte
	for {
		n, err := d.file.Read(buffer)
		if n > 0 {
			pending = append(pending, buffer[:n]...)
			pending = m.consume(pending)
		}
		if err != nil {
			if errors.Is(err, os.ErrClosed) {
				return
			}
			if errors.Is(err, io.EOF) {
				m.logger.Info("input device closed", "path", d.path)
			} else {
				m.logger.Warn("input device read failed", "path", d.path, "error", err)
			}
			m.forget(d)
			return
		}
	}
}

// consume handles every whole event in data and returns the partial
// tail.
func (m *Monitor) consume(data []byte) []byte {
	active := false
	for len(data) >= eventSize {
		var event inputEvent
		if err := binary.Read(bytes.NewReader(data[:eventSize]), binary.NativeEndian, &event); err == nil && event.isActivity() {
			active = true
		}
		data = data[eventSize:]
	}
	if active {
		m.signal()
	}
	return append([]byte(nil), data...)
}

func (m *Monitor) close(path string) {
	m.devicesMu.Lock()
	d, exists := m.devices[path]
	delete(m.devices, path)
	m.devicesMu.Unlock()
	if exists {
		d.file.Close()
		m.logger.Info("input device removed", "path", path)
	}
}

// forget drops a device whose reader stopped on its own.
func (m *Monitor) forget(d *device) {
	m.devicesMu.Lock()
	if m.devices[d.path] == d {
		delete(m.devices, d.path)
	}
	m.devicesMu.Unlock()
	d.file.Close()
}

func (m *Monitor) closeAll() {
	m.devicesMu.Lock()
	devices := m.devices
	m.devices = make(map[string]*device)
	m.devicesMu.Unlock()
	for _, d := range devices {
		d.file.Close()
	}
}
