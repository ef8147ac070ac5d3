//go:build linux

package source

import (
	"context"

	"github.com/godbus/dbus/v5"
)

// DBusRoundTripSource times message round-trips to the bus daemon, the
// Linux analogue of kernel IPC port timing: queueing, context switches,
// and socket wakeups all land in the measured interval.
type DBusRoundTripSource struct {
	conn *dbus.Conn
}

// NewDBusRoundTripSource connects to the session bus, falling back to
// the system bus. Returns an error when neither is reachable.
func NewDBusRoundTripSource() (*DBusRoundTripSource, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		conn, err = dbus.SystemBus()
		if err != nil {
			return nil, NewCollectionError("dbus_roundtrip", err)
		}
	}
	return &DBusRoundTripSource{conn: conn}, nil
}

func (*DBusRoundTripSource) Name() string { return "dbus_roundtrip" }

func (s *DBusRoundTripSource) Collect(ctx context.Context, n int) ([]uint64, error) {
	obj := s.conn.BusObject()
	out := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, NewCollectionError("dbus_roundtrip", err)
		}
		var id string
		t0 := nowTicks()
		call := obj.CallWithContext(ctx, "org.freedesktop.DBus.GetId", 0)
		t1 := nowTicks()
		if call.Err != nil {
			return nil, NewCollectionError("dbus_roundtrip", call.Err)
		}
		call.Store(&id)
		out = append(out, t1-t0)
	}
	return out, nil
}

// Close releases the bus connection.
func (s *DBusRoundTripSource) Close() error {
	return s.conn.Close()
}
