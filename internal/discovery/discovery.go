// Package discovery answers UDP probes from headset devices looking for a
// processing server on the local network.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"golang.org/x/time/rate"

	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/errors"
	"github.com/thermalab/thermal-ar-go/internal/logging"
)

// ProbeString is the exact datagram a device broadcasts when searching for
// a server. Anything else is ignored.
const ProbeString = "THERMAL_AR_GLASS_DISCOVERY"

// serviceTag leads every discovery reply.
const serviceTag = "THERMAL_AR_SERVER"

const maxProbeSize = 256

// Responder listens on a fixed UDP port and answers well-formed probes with
// a colon-delimited service record. Replies are rate limited so a
// misbehaving prober cannot turn the responder into an amplifier.
type Responder struct {
	conn    *net.UDPConn
	reply   []byte
	limiter *rate.Limiter
	log     *slog.Logger
}

// New binds the discovery socket. A bind failure is returned to the caller
// and is fatal at startup.
func New(settings *conf.Settings) (*Responder, error) {
	addr := &net.UDPAddr{Port: settings.Discovery.Port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, errors.New(err).
			Component("discovery").
			Category(errors.CategoryDiscovery).
			Context("operation", "bind").
			Context("port", settings.Discovery.Port).
			Build()
	}

	reply := fmt.Sprintf("%s:%s:%s:%s",
		serviceTag,
		settings.Main.Name,
		settings.WebServer.Port,
		strings.Join(settings.Discovery.Capabilities, ","))

	return &Responder{
		conn:    conn,
		reply:   []byte(reply),
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		log:     logging.ForService("discovery"),
	}, nil
}

// Addr returns the bound local address.
func (r *Responder) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// Serve answers probes until the context is canceled.
func (r *Responder) Serve(ctx context.Context) error {
	r.log.Info("discovery responder listening", "addr", r.conn.LocalAddr().String())

	go func() {
		<-ctx.Done()
		r.conn.Close()
	}()

	buf := make([]byte, maxProbeSize)
	for {
		n, remote, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.New(err).
				Component("discovery").
				Category(errors.CategoryDiscovery).
				Context("operation", "read").
				Build()
		}

		if string(buf[:n]) != ProbeString {
			continue
		}
		if !r.limiter.Allow() {
			r.log.Warn("discovery reply rate limit hit", "remote", remote.String())
			continue
		}

		if _, err := r.conn.WriteToUDP(r.reply, remote); err != nil {
			r.log.Warn("discovery reply failed", "remote", remote.String(), "error", err)
			continue
		}
		r.log.Debug("answered discovery probe", "remote", remote.String())
	}
}
