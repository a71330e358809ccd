package scoring

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"AegisGuard/internal/models"

	"github.com/oschwald/geoip2-golang"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// NetworkSource scores connectivity risk: a victim on a dead or dying link is
// harder to reach and harder to locate. Link throughput comes from the host
// interface counters; an optional GeoIP database flags anonymized or
// out-of-region egress, which correlates with degraded reachability.
type NetworkSource struct {
	geo *geoip2.Reader // nil when no database is configured

	mu        sync.Mutex
	lastBytes uint64
	lastAt    time.Time
}

// NewNetworkSource opens the optional GeoIP database. An empty path disables
// the GeoIP component without disabling the source.
func NewNetworkSource(geoipPath string) (*NetworkSource, error) {
	s := &NetworkSource{}
	if geoipPath != "" {
		reader, err := geoip2.Open(geoipPath)
		if err != nil {
			return nil, err
		}
		s.geo = reader
	}
	return s, nil
}

// Close releases the GeoIP database.
func (s *NetworkSource) Close() error {
	if s.geo != nil {
		return s.geo.Close()
	}
	return nil
}

func (s *NetworkSource) Category() Category { return CategoryNetwork }

func (s *NetworkSource) Fetch(ctx context.Context, _ *models.Location) (Reading, error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil || len(counters) == 0 {
		return Reading{}, fmt.Errorf("read interface counters: %w", err)
	}
	total := counters[0].BytesRecv + counters[0].BytesSent

	s.mu.Lock()
	now := time.Now()
	var throughput float64
	if !s.lastAt.IsZero() && now.After(s.lastAt) {
		throughput = float64(total-s.lastBytes) / now.Sub(s.lastAt).Seconds()
	}
	first := s.lastAt.IsZero()
	s.lastBytes = total
	s.lastAt = now
	s.mu.Unlock()

	if first {
		// No interval to measure yet; report a mild neutral value.
		return Reading{Value: 0.3, Name: "Network quality", Description: "link activity baseline not established"}, nil
	}

	// Below ~1KB/s the link is effectively idle or dead for our purposes.
	value := 0.2
	desc := "network link is active"
	if throughput < 1024 {
		value = 0.6
		desc = "network link shows little or no activity"
	}

	if s.geo != nil {
		if risk, geoDesc := s.geoRisk(); risk > 0 {
			value += risk
			desc = geoDesc
		}
	}

	return Reading{Value: clamp01(value), Name: "Network quality", Description: desc}, nil
}

// geoRisk inspects the egress address when one can be determined locally.
func (s *NetworkSource) geoRisk() (float64, string) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return 0, ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() || ipNet.IP.IsPrivate() {
			continue
		}
		record, err := s.geo.ASN(ipNet.IP)
		if err != nil || record == nil {
			continue
		}
		// Hosting/transit ASNs on a phone egress usually mean a tunnel or
		// captive relay between us and the victim.
		if record.AutonomousSystemNumber != 0 && record.AutonomousSystemOrganization == "" {
			return 0.2, "egress routed through an unidentified network"
		}
		return 0, ""
	}
	return 0, ""
}
