// Package bluez is the BlueZ D-Bus adapter client: adapter initialization
// and the per-tick ObjectManager poll.
package bluez

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"ruuvicollector/internal/util"
)

const (
	busName            = "org.bluez"
	objectManagerIface = "org.freedesktop.DBus.ObjectManager"
	adapterIface       = "org.bluez.Adapter1"
	deviceIface        = "org.bluez.Device1"
	propsIface         = "org.freedesktop.DBus.Properties"

	pollTimeout = 3 * time.Second
)

// Device is one BLE peer as seen in a single poll, carrying only the
// fields the decoders need.
type Device struct {
	ObjectPath string
	Address    string
	MfrData    map[uint16][]byte
	SvcData    map[string][]byte
}

// Snapshot is one poll's result, stamped with a single wall-clock timestamp
// for every device it contains.
type Snapshot struct {
	TimestampMS int64
	Devices     []Device
}

// Client wraps a BlueZ system-bus connection bound to one adapter.
type Client struct {
	conn        *dbus.Conn
	adapterID   string
	adapterPath dbus.ObjectPath
}

func New(adapterID string) *Client {
	adapterID = strings.TrimSpace(adapterID)
	return &Client{
		adapterID:   adapterID,
		adapterPath: dbus.ObjectPath("/org/bluez/" + adapterID),
	}
}

// Initialize connects, powers on the adapter, sets an LE-only discovery
// filter, starts discovery, and confirms discovery actually started. Any
// failure here is fatal — the caller should log it and exit rather than
// enter the collection loop.
func (c *Client) Initialize(ctx context.Context) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("bluez: system bus connection failed: %w", err)
	}
	c.conn = conn

	if !c.adapterExists(ctx) {
		c.restartBluetoothService(ctx)
		if !c.adapterExists(ctx) {
			return fmt.Errorf("bluez: adapter %s not found", c.adapterID)
		}
	}

	adapter := conn.Object(busName, c.adapterPath)

	powered, err := c.getAdapterBool(ctx, adapter, "Powered")
	if err != nil {
		return fmt.Errorf("bluez: cannot read Powered on %s: %w", c.adapterID, err)
	}
	if !powered {
		if err := adapter.CallWithContext(ctx, propsIface+".Set", 0, adapterIface, "Powered", dbus.MakeVariant(true)).Err; err != nil {
			return fmt.Errorf("bluez: cannot power on %s: %w", c.adapterID, err)
		}
		powered, err = c.getAdapterBool(ctx, adapter, "Powered")
		if err != nil || !powered {
			return fmt.Errorf("bluez: adapter %s did not power on", c.adapterID)
		}
	}

	filter := map[string]dbus.Variant{
		"UUIDs":     dbus.MakeVariant([]string{}),
		"Transport": dbus.MakeVariant("le"),
	}
	if err := adapter.CallWithContext(ctx, adapterIface+".SetDiscoveryFilter", 0, filter).Err; err != nil {
		return fmt.Errorf("bluez: SetDiscoveryFilter failed on %s: %w", c.adapterID, err)
	}

	if err := adapter.CallWithContext(ctx, adapterIface+".StartDiscovery", 0).Err; err != nil && !strings.Contains(err.Error(), "InProgress") {
		return fmt.Errorf("bluez: StartDiscovery failed on %s: %w", c.adapterID, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}

	discovering, err := c.getAdapterBool(ctx, adapter, "Discovering")
	if err != nil || !discovering {
		return fmt.Errorf("bluez: adapter %s is not discovering after StartDiscovery", c.adapterID)
	}

	util.Linef("[BLUEZ]", util.ColorGreen, "%s discovering", c.adapterID)
	return nil
}

// Poll issues one ObjectManager.GetManagedObjects
// call, bounded to pollTimeout, decoding every org.bluez.Device1 entry
// under this adapter. A malformed single device is skipped and logged,
// never aborting the whole poll.
func (c *Client) Poll(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	root := c.conn.Object(busName, dbus.ObjectPath("/"))
	call := root.CallWithContext(ctx, objectManagerIface+".GetManagedObjects", 0)
	if call.Err != nil {
		return Snapshot{}, fmt.Errorf("bluez: GetManagedObjects failed: %w", call.Err)
	}

	var managed map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := call.Store(&managed); err != nil {
		return Snapshot{}, fmt.Errorf("bluez: GetManagedObjects decode failed: %w", err)
	}

	now := time.Now()
	prefix := string(c.adapterPath) + "/dev_"
	devices := make([]Device, 0, len(managed))
	for path, ifaces := range managed {
		p := string(path)
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		dev1, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		d, ok := decodeDevice(p, dev1)
		if !ok {
			util.Linef("[BLUEZ]", util.ColorGray, "skipping %s: missing/unrecognized Address", p)
			continue
		}
		devices = append(devices, d)
	}

	return Snapshot{TimestampMS: now.UnixMilli(), Devices: devices}, nil
}

func decodeDevice(path string, props map[string]dbus.Variant) (Device, bool) {
	addrV, ok := props["Address"]
	if !ok {
		return Device{}, false
	}
	addr, ok := addrV.Value().(string)
	if !ok || strings.TrimSpace(addr) == "" {
		return Device{}, false
	}

	return Device{
		ObjectPath: path,
		Address:    addr,
		MfrData:    decodeMfrData(props["ManufacturerData"]),
		SvcData:    decodeSvcData(props["ServiceData"]),
	}, true
}

func decodeMfrData(v dbus.Variant) map[uint16][]byte {
	raw, ok := v.Value().(map[uint16]dbus.Variant)
	if !ok {
		return nil
	}
	out := make(map[uint16][]byte, len(raw))
	for id, vv := range raw {
		if b, ok := vv.Value().([]byte); ok {
			out[id] = append([]byte(nil), b...)
		}
	}
	return out
}

func decodeSvcData(v dbus.Variant) map[string][]byte {
	raw, ok := v.Value().(map[string]dbus.Variant)
	if !ok {
		return nil
	}
	out := make(map[string][]byte, len(raw))
	for uuid, vv := range raw {
		if b, ok := vv.Value().([]byte); ok {
			out[uuid] = append([]byte(nil), b...)
		}
	}
	return out
}

// restartBluetoothService is a best-effort recovery step for a missing
// adapter: if running as root with systemctl available and the bluetooth
// service isn't active, restart it and give BlueZ a moment to re-enumerate
// adapters before the caller re-checks.
func (c *Client) restartBluetoothService(ctx context.Context) {
	if !util.IsRoot() || !util.HasSystemctl() {
		return
	}
	if util.ServiceIsActive(ctx, "bluetooth") {
		return
	}
	util.Line("[BLUEZ]", util.ColorGray, "bluetooth service inactive, restarting")
	if err := util.RestartService(ctx, "bluetooth"); err != nil {
		util.Linef("[BLUEZ]", util.ColorYellow, "restart failed: %v", err)
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(1500 * time.Millisecond):
	}
}

func (c *Client) adapterExists(ctx context.Context) bool {
	root := c.conn.Object(busName, dbus.ObjectPath("/"))
	call := root.CallWithContext(ctx, objectManagerIface+".GetManagedObjects", 0)
	if call.Err != nil {
		return false
	}
	var managed map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := call.Store(&managed); err != nil {
		return false
	}
	ifaces, ok := managed[c.adapterPath]
	if !ok {
		return false
	}
	_, ok = ifaces[adapterIface]
	return ok
}

func (c *Client) getAdapterBool(ctx context.Context, adapter dbus.BusObject, prop string) (bool, error) {
	call := adapter.CallWithContext(ctx, propsIface+".Get", 0, adapterIface, prop)
	if call.Err != nil {
		return false, call.Err
	}
	var v dbus.Variant
	if err := call.Store(&v); err != nil {
		return false, err
	}
	b, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("bluez: property %s is not a bool", prop)
	}
	return b, nil
}
