// Package device describes the machine the client runs on.
//
// The authority ties refresh tokens to a device, so every login, signup
// and refresh carries a DeviceInfo. The device id is generated once and
// persisted in the profile store.
package device

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/host"

	"maybe/internal/credstore"
	"maybe/pkg/auth"
	"maybe/pkg/logging"
)

// Provider builds DeviceInfo for this machine.
type Provider struct {
	store      credstore.Store
	appVersion string
	build      string

	hostname func() (string, error)
	platform func() (string, string, string, error)

	mu       sync.Mutex
	deviceID string
}

// NewProvider returns a provider persisting the device id in store.
func NewProvider(store credstore.Store, appVersion, build string) *Provider {
	if appVersion == "" {
		appVersion = "dev"
	}
	if build == "" {
		build = "1"
	}
	return &Provider{
		store:      store,
		appVersion: appVersion,
		build:      build,
		hostname:   os.Hostname,
		platform:   host.PlatformInformation,
	}
}

// DeviceID returns the persisted device id, creating it on first use.
func (p *Provider) DeviceID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.deviceID != "" {
		return p.deviceID, nil
	}

	data, err := p.store.Get(credstore.KeyDeviceID)
	switch {
	case err == nil && len(data) > 0:
		p.deviceID = string(data)
		return p.deviceID, nil
	case err != nil && !errors.Is(err, credstore.ErrNotFound):
		return "", fmt.Errorf("failed to read device id: %w", err)
	}

	id := uuid.NewString()
	if err := p.store.Put(credstore.KeyDeviceID, []byte(id)); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}
	logging.Debug("Device", "Generated new device id")
	p.deviceID = id
	return id, nil
}

// Info returns the device description sent to the authority.
func (p *Provider) Info() (auth.DeviceInfo, error) {
	id, err := p.DeviceID()
	if err != nil {
		return auth.DeviceInfo{}, err
	}
	return auth.DeviceInfo{
		DeviceID:   id,
		DeviceName: p.deviceName(),
		DeviceType: runtime.GOOS,
		OSVersion:  p.osVersion(),
		AppVersion: fmt.Sprintf("%s (%s)", p.appVersion, p.build),
	}, nil
}

func (p *Provider) deviceName() string {
	name, err := p.hostname()
	if err != nil || name == "" {
		return "maybe-cli"
	}
	return name
}

func (p *Provider) osVersion() string {
	platform, _, version, err := p.platform()
	if err != nil {
		logging.Debug("Device", "Platform lookup failed: %v", err)
		return runtime.GOOS + "/" + runtime.GOARCH
	}
	return strings.TrimSpace(platform + " " + version)
}
