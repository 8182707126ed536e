package advertise

import (
	"encoding/base64"
	"net"
	"regexp"
	"sync"
	"testing"
)

// mockMDNSServer is a mock implementation of MDNSServer for testing.
type mockMDNSServer struct {
	shutdownCalled bool
}

func (m *mockMDNSServer) Shutdown() {
	m.shutdownCalled = true
}

// mockMDNSServerFactory is a mock implementation of MDNSServerFactory for testing.
type mockMDNSServerFactory struct {
	mu       sync.Mutex
	servers  []*mockMDNSServer
	lastArgs struct {
		instance string
		service  string
		domain   string
		port     int
		txt      []string
	}
	shouldFail bool
}

func (f *mockMDNSServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.shouldFail {
		return nil, ErrClosed
	}

	f.lastArgs.instance = instance
	f.lastArgs.service = service
	f.lastArgs.domain = domain
	f.lastArgs.port = port
	f.lastArgs.txt = txt

	server := &mockMDNSServer{}
	f.servers = append(f.servers, server)
	return server, nil
}

func TestNewZeroconfTransport(t *testing.T) {
	t.Run("default port", func(t *testing.T) {
		z := NewZeroconfTransport(ZeroconfConfig{})
		if z.config.Port != DefaultZeroconfPort {
			t.Errorf("Port = %d, want %d", z.config.Port, DefaultZeroconfPort)
		}
	})

	t.Run("custom port", func(t *testing.T) {
		z := NewZeroconfTransport(ZeroconfConfig{Port: 12345})
		if z.config.Port != 12345 {
			t.Errorf("Port = %d, want 12345", z.config.Port)
		}
	})

	t.Run("invalid port uses default", func(t *testing.T) {
		z := NewZeroconfTransport(ZeroconfConfig{Port: 70000})
		if z.config.Port != DefaultZeroconfPort {
			t.Errorf("Port = %d, want %d", z.config.Port, DefaultZeroconfPort)
		}
	})
}

func TestZeroconfTransport_Register(t *testing.T) {
	factory := &mockMDNSServerFactory{}
	z := NewZeroconfTransport(ZeroconfConfig{ServerFactory: factory})

	data := []byte{0xA1, 0xDE, 0xAD, 0xBE, 0xEF}
	ad := testAd(data...)
	ad.LocalName = "dock-3"

	reg, err := z.Register(ad)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if factory.lastArgs.service != ServiceBeacon {
		t.Errorf("service = %q, want %q", factory.lastArgs.service, ServiceBeacon)
	}
	if factory.lastArgs.domain != DefaultDomain {
		t.Errorf("domain = %q, want %q", factory.lastArgs.domain, DefaultDomain)
	}
	if factory.lastArgs.port != DefaultZeroconfPort {
		t.Errorf("port = %d, want %d", factory.lastArgs.port, DefaultZeroconfPort)
	}
	if !regexp.MustCompile(`^[0-9A-F]{16}$`).MatchString(factory.lastArgs.instance) {
		t.Errorf("instance = %q, want 16 uppercase hex characters", factory.lastArgs.instance)
	}

	want := []string{
		"v=a1",
		"u=" + testServiceUUID.String(),
		"d=" + base64.StdEncoding.EncodeToString(data),
		"n=dock-3",
	}
	if len(factory.lastArgs.txt) != len(want) {
		t.Fatalf("txt = %v, want %v", factory.lastArgs.txt, want)
	}
	for i := range want {
		if factory.lastArgs.txt[i] != want[i] {
			t.Errorf("txt[%d] = %q, want %q", i, factory.lastArgs.txt[i], want[i])
		}
	}

	if err := reg.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if !factory.servers[0].shutdownCalled {
		t.Error("mDNS server not shut down")
	}
}

func TestZeroconfTransport_FreshInstanceNames(t *testing.T) {
	factory := &mockMDNSServerFactory{}
	z := NewZeroconfTransport(ZeroconfConfig{ServerFactory: factory})

	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		if _, err := z.Register(testAd(0xA1)); err != nil {
			t.Fatal(err)
		}
		if seen[factory.lastArgs.instance] {
			t.Fatalf("instance name %s reused", factory.lastArgs.instance)
		}
		seen[factory.lastArgs.instance] = true
	}
}

func TestZeroconfTransport_Errors(t *testing.T) {
	factory := &mockMDNSServerFactory{shouldFail: true}
	z := NewZeroconfTransport(ZeroconfConfig{ServerFactory: factory})

	if _, err := z.Register(testAd(0xA1)); err == nil {
		t.Error("Register() succeeded with failing factory")
	}
	if _, err := z.Register(testAd()); err != ErrEmptyServiceData {
		t.Errorf("Register() error = %v, want ErrEmptyServiceData", err)
	}
}

func TestZeroconfTransport_WithAdvertiser(t *testing.T) {
	factory := &mockMDNSServerFactory{}
	adv, err := NewAdvertiser(AdvertiserConfig{
		Transport: NewZeroconfTransport(ZeroconfConfig{ServerFactory: factory}),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := adv.Start(testAd(0xA1, 0x01)); err != nil {
		t.Fatal(err)
	}
	if err := adv.Update(testAd(0xA1, 0x02)); err != nil {
		t.Fatal(err)
	}
	if err := adv.Close(); err != nil {
		t.Fatal(err)
	}

	if len(factory.servers) != 2 {
		t.Fatalf("servers = %d, want 2", len(factory.servers))
	}
	for i, s := range factory.servers {
		if !s.shutdownCalled {
			t.Errorf("server %d not shut down", i)
		}
	}
}
