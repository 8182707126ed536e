package advertise

import (
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/pion/logging"
)

// BlueZ D-Bus names.
const (
	bluezService         = "org.bluez"
	bluezAdapterIface    = "org.bluez.Adapter1"
	bluezAdvManagerIface = "org.bluez.LEAdvertisingManager1"
	bluezAdvIface        = "org.bluez.LEAdvertisement1"
	dbusPropertiesIface  = "org.freedesktop.DBus.Properties"
	dbusIntrospectIface  = "org.freedesktop.DBus.Introspectable"

	// DefaultAdapter is the default HCI adapter name.
	DefaultAdapter = "hci0"

	// DefaultObjectPath is the prefix under which advertisement objects are exported.
	DefaultObjectPath dbus.ObjectPath = "/org/groupbeacon/advertisement"

	// advertisementTypePeripheral advertises as a connectable peripheral.
	advertisementTypePeripheral = "peripheral"
)

// AdapterInfo describes the local Bluetooth adapter.
type AdapterInfo struct {
	Name    string
	Address string
}

// BlueZConfig holds configuration for the BlueZTransport.
type BlueZConfig struct {
	// Conn is the system bus connection. If nil, one is opened and owned
	// by the transport.
	Conn *dbus.Conn

	// Adapter is the HCI adapter name (default: hci0).
	Adapter string

	// ObjectPath is the prefix for exported advertisement objects
	// (default: DefaultObjectPath).
	ObjectPath dbus.ObjectPath

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// BlueZTransport registers BLE advertisements with BlueZ's
// LEAdvertisingManager1 over the system D-Bus.
type BlueZTransport struct {
	conn        *dbus.Conn
	ownsConn    bool
	adapter     string
	adapterPath dbus.ObjectPath
	prefix      dbus.ObjectPath
	log         logging.LeveledLogger

	mu  sync.Mutex
	seq int
}

// NewBlueZTransport connects to BlueZ and powers on the adapter.
func NewBlueZTransport(config BlueZConfig) (*BlueZTransport, error) {
	if config.Adapter == "" {
		config.Adapter = DefaultAdapter
	}
	if config.ObjectPath == "" {
		config.ObjectPath = DefaultObjectPath
	}

	b := &BlueZTransport{
		conn:        config.Conn,
		adapter:     config.Adapter,
		adapterPath: dbus.ObjectPath("/org/bluez/" + config.Adapter),
		prefix:      config.ObjectPath,
	}
	if config.LoggerFactory != nil {
		b.log = config.LoggerFactory.NewLogger("bluez")
	}

	if !b.adapterPath.IsValid() || !b.prefix.IsValid() {
		return nil, fmt.Errorf("bluez: invalid object path for adapter %q", config.Adapter)
	}

	if b.conn == nil {
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			return nil, fmt.Errorf("bluez: connect system bus: %w", err)
		}
		b.conn = conn
		b.ownsConn = true
	}

	adapter := b.conn.Object(bluezService, b.adapterPath)
	if err := adapter.SetProperty(bluezAdapterIface+".Powered", dbus.MakeVariant(true)); err != nil {
		b.Close()
		if isUnknownObject(err) {
			return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, config.Adapter)
		}
		return nil, fmt.Errorf("bluez: power on %s: %w", config.Adapter, err)
	}

	return b, nil
}

// AdapterInfo returns the adapter's name and address.
func (b *BlueZTransport) AdapterInfo() (AdapterInfo, error) {
	adapter := b.conn.Object(bluezService, b.adapterPath)

	addr, err := adapter.GetProperty(bluezAdapterIface + ".Address")
	if err != nil {
		return AdapterInfo{}, fmt.Errorf("bluez: read address of %s: %w", b.adapter, err)
	}

	info := AdapterInfo{Name: b.adapter}
	if s, ok := addr.Value().(string); ok {
		info.Address = s
	}
	return info, nil
}

// Register implements Transport.
func (b *BlueZTransport) Register(ad Advertisement) (Registration, error) {
	if err := ad.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.seq++
	path := dbus.ObjectPath(fmt.Sprintf("%s%d", b.prefix, b.seq))
	b.mu.Unlock()

	obj := &bluezAdvertisement{path: path, log: b.log}

	if err := b.conn.Export(obj, path, bluezAdvIface); err != nil {
		return nil, fmt.Errorf("bluez: export %s: %w", path, err)
	}

	props, err := prop.Export(b.conn, path, advertisementProperties(ad))
	if err != nil {
		b.unexport(path)
		return nil, fmt.Errorf("bluez: export properties on %s: %w", path, err)
	}

	node := &introspect.Node{
		Name: string(path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       bluezAdvIface,
				Methods:    introspect.Methods(obj),
				Properties: props.Introspection(bluezAdvIface),
			},
		},
	}
	if err := b.conn.Export(introspect.NewIntrospectable(node), path, dbusIntrospectIface); err != nil {
		b.unexport(path)
		return nil, fmt.Errorf("bluez: export introspection on %s: %w", path, err)
	}

	manager := b.conn.Object(bluezService, b.adapterPath)
	call := manager.Call(bluezAdvManagerIface+".RegisterAdvertisement", 0, path, map[string]dbus.Variant{})
	if call.Err != nil {
		b.unexport(path)
		return nil, fmt.Errorf("bluez: RegisterAdvertisement %s: %w", path, call.Err)
	}

	if b.log != nil {
		b.log.Debugf("Registered advertisement %s on %s", path, b.adapter)
	}

	return &bluezRegistration{transport: b, path: path, obj: obj}, nil
}

// Close releases the bus connection if the transport opened it.
func (b *BlueZTransport) Close() error {
	if b.ownsConn && b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

func (b *BlueZTransport) unexport(path dbus.ObjectPath) {
	for _, iface := range []string{bluezAdvIface, dbusPropertiesIface, dbusIntrospectIface} {
		_ = b.conn.Export(nil, path, iface)
	}
}

type bluezRegistration struct {
	transport *BlueZTransport
	path      dbus.ObjectPath
	obj       *bluezAdvertisement
	once      sync.Once
	err       error
}

func (r *bluezRegistration) Shutdown() error {
	r.once.Do(func() {
		defer r.transport.unexport(r.path)

		// BlueZ already dropped the advertisement if it called Release.
		if r.obj.isReleased() {
			return
		}

		manager := r.transport.conn.Object(bluezService, r.transport.adapterPath)
		call := manager.Call(bluezAdvManagerIface+".UnregisterAdvertisement", 0, r.path)
		if call.Err != nil {
			r.err = fmt.Errorf("bluez: UnregisterAdvertisement %s: %w", r.path, call.Err)
		}
	})
	return r.err
}

// bluezAdvertisement is the exported org.bluez.LEAdvertisement1 object.
type bluezAdvertisement struct {
	path dbus.ObjectPath
	log  logging.LeveledLogger

	mu       sync.Mutex
	released bool
}

// Release is called by BlueZ when it removes the advertisement.
func (a *bluezAdvertisement) Release() *dbus.Error {
	a.mu.Lock()
	a.released = true
	a.mu.Unlock()

	if a.log != nil {
		a.log.Infof("Advertisement %s released by BlueZ", a.path)
	}
	return nil
}

func (a *bluezAdvertisement) isReleased() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}

// advertisementProperties maps ad onto org.bluez.LEAdvertisement1 properties.
func advertisementProperties(ad Advertisement) prop.Map {
	id := ad.ServiceUUID.String()

	props := map[string]*prop.Prop{
		"Type":         {Value: advertisementTypePeripheral, Emit: prop.EmitFalse},
		"ServiceUUIDs": {Value: []string{id}, Emit: prop.EmitFalse},
		"ServiceData": {
			Value: map[string]dbus.Variant{id: dbus.MakeVariant(append([]byte(nil), ad.ServiceData...))},
			Emit:  prop.EmitFalse,
		},
		"Discoverable": {Value: ad.Discoverable, Emit: prop.EmitFalse},
	}
	if ad.LocalName != "" {
		props["LocalName"] = &prop.Prop{Value: ad.LocalName, Emit: prop.EmitFalse}
	}

	return prop.Map{bluezAdvIface: props}
}

func isUnknownObject(err error) bool {
	var derr dbus.Error
	if e, ok := err.(dbus.Error); ok {
		derr = e
	} else if e, ok := err.(*dbus.Error); ok && e != nil {
		derr = *e
	} else {
		return false
	}
	return strings.HasSuffix(derr.Name, ".UnknownObject") || strings.HasSuffix(derr.Name, ".DoesNotExist")
}
