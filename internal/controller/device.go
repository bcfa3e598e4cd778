package controller

import (
	"context"

	"github.com/sweeney/relay-switch/internal/activity"
	"github.com/sweeney/relay-switch/internal/web"
)

// httpDevice adapts the controller to web.Device.
type httpDevice struct {
	c   *Controller
	ctx context.Context
}

func (d *httpDevice) apply(body []byte) error {
	var err error
	if callErr := d.c.do(d.ctx, func() {
		_, err = d.c.sync.Apply(body, true)
	}); callErr != nil {
		return callErr
	}
	return err
}

func (d *httpDevice) Hello(body []byte) ([]byte, error) {
	var detail string
	var err error
	if callErr := d.c.do(d.ctx, func() {
		if _, err = d.c.sync.Apply(body, true); err == nil {
			detail = d.c.details.Detail()
		}
	}); callErr != nil {
		return nil, callErr
	}
	return []byte(detail), err
}

func (d *httpDevice) Set(body []byte) error {
	return d.apply(body)
}

func (d *httpDevice) Value() string {
	var v string
	if err := d.c.do(d.ctx, func() { v = d.c.state.Value() }); err != nil {
		return "0"
	}
	return v
}

func (d *httpDevice) BasicData(body []byte) (web.BasicData, error) {
	var out web.BasicData
	var err error
	if callErr := d.c.do(d.ctx, func() {
		if _, err = d.c.sync.Apply(body, true); err != nil {
			return
		}
		st := d.c.state
		out = web.BasicData{Offset: st.Offset, DST: st.DST}
		if d.c.clock.IsRunning() {
			ts := d.c.clock.Now().Unix() - st.Shift()
			out.Time = &ts
		}
	}); callErr != nil {
		return out, callErr
	}
	return out, err
}

func (d *httpDevice) Logs(limit int) ([]activity.Entry, error) {
	return d.c.activity.Entries(limit)
}

func (d *httpDevice) ClearLogs() error {
	return d.c.activity.Clear()
}

func (d *httpDevice) SetLogging(enabled bool) {
	if enabled {
		d.c.activity.SetEnabled(true)
		d.c.activity.Note("Log enabled")
		return
	}
	d.c.activity.Note("Log disabled")
	d.c.activity.SetEnabled(false)
}

func (d *httpDevice) CheckForUpdate() {
	_ = d.c.do(d.ctx, d.c.publisher.CheckForUpdate)
}
