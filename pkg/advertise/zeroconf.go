package advertise

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// DNS-SD constants for the mDNS fallback transport.
const (
	// ServiceBeacon is the DNS-SD service type beacons are published under.
	ServiceBeacon = "_groupbeacon._udp"

	// DefaultDomain is the default mDNS domain.
	DefaultDomain = "local."

	// DefaultZeroconfPort is announced in the SRV record. No socket is bound;
	// listeners only read the TXT record.
	DefaultZeroconfPort = 9
)

// TXT record keys.
const (
	txtKeyVersion = "v"
	txtKeyUUID    = "u"
	txtKeyData    = "d"
	txtKeyName    = "n"
)

// MDNSServer is the interface for mDNS service registration.
type MDNSServer interface {
	// Shutdown stops the server.
	Shutdown()
}

// MDNSServerFactory creates MDNSServer instances.
type MDNSServerFactory interface {
	// Register creates a new mDNS server for the given service.
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

// zeroconfServerFactory is the production implementation using grandcat/zeroconf.
type zeroconfServerFactory struct{}

func (z *zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// ZeroconfConfig holds configuration for the ZeroconfTransport.
type ZeroconfConfig struct {
	// Port is announced in the SRV record (default: DefaultZeroconfPort).
	Port int

	// Interfaces specifies which network interfaces to advertise on.
	// If nil, all interfaces are used.
	Interfaces []net.Interface

	// ServerFactory is the factory for creating mDNS servers.
	// If nil, the default zeroconf factory is used.
	ServerFactory MDNSServerFactory

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// ZeroconfTransport publishes advertisements as DNS-SD TXT records.
//
// Every registration uses a fresh random instance name, so rotated beacons
// cannot be linked by name.
type ZeroconfTransport struct {
	config  ZeroconfConfig
	factory MDNSServerFactory
	log     logging.LeveledLogger
}

// NewZeroconfTransport creates a ZeroconfTransport.
func NewZeroconfTransport(config ZeroconfConfig) *ZeroconfTransport {
	if config.Port <= 0 || config.Port > 65535 {
		config.Port = DefaultZeroconfPort
	}

	factory := config.ServerFactory
	if factory == nil {
		factory = &zeroconfServerFactory{}
	}

	z := &ZeroconfTransport{
		config:  config,
		factory: factory,
	}
	if config.LoggerFactory != nil {
		z.log = config.LoggerFactory.NewLogger("zeroconf")
	}
	return z
}

// Register implements Transport.
func (z *ZeroconfTransport) Register(ad Advertisement) (Registration, error) {
	if err := ad.Validate(); err != nil {
		return nil, err
	}

	instanceName, err := generateRandomInstanceName()
	if err != nil {
		return nil, fmt.Errorf("zeroconf: failed to generate instance name: %w", err)
	}

	txt := encodeTXT(ad)
	if z.log != nil {
		z.log.Debugf("Registering mDNS service: instance=%s service=%s domain=%s port=%d",
			instanceName, ServiceBeacon, DefaultDomain, z.config.Port)
		z.log.Tracef("TXT records: %v", txt)
	}

	server, err := z.factory.Register(
		instanceName,
		ServiceBeacon,
		DefaultDomain,
		z.config.Port,
		txt,
		z.config.Interfaces,
	)
	if err != nil {
		return nil, fmt.Errorf("zeroconf: mDNS registration failed for %s: %w", ServiceBeacon, err)
	}

	return &zeroconfRegistration{server: server, instance: instanceName}, nil
}

type zeroconfRegistration struct {
	server   MDNSServer
	instance string
}

func (r *zeroconfRegistration) Shutdown() error {
	r.server.Shutdown()
	return nil
}

// encodeTXT builds the TXT records for ad. Service data is base64 (standard
// alphabet) so the record survives resolvers that mangle binary values; its
// leading byte is repeated in v= so listeners can filter without decoding.
func encodeTXT(ad Advertisement) []string {
	txt := []string{
		fmt.Sprintf("%s=%02x", txtKeyVersion, ad.ServiceData[0]),
		txtKeyUUID + "=" + ad.ServiceUUID.String(),
		txtKeyData + "=" + base64.StdEncoding.EncodeToString(ad.ServiceData),
	}
	if ad.LocalName != "" {
		txt = append(txt, txtKeyName+"="+ad.LocalName)
	}
	return txt
}

// generateRandomInstanceName generates a random 64-bit instance name.
// Format: 16 uppercase hex characters.
func generateRandomInstanceName() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016X", binary.BigEndian.Uint64(buf[:])), nil
}
