// Package wol wakes the worker node over the network and puts it back to
// sleep when the pipeline is done. Waking uses standard Wake-on-LAN magic
// packets; reachability is probed by dialing the node's SSH port.
package wol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"syscall"
	"time"

	"github.com/travelbuddy/backend/internal/config"
)

// ErrWakeFailed is returned when the node stays unreachable after all wake
// attempts are exhausted.
var ErrWakeFailed = errors.New("worker node did not wake up")

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type sendFunc func(addr string, payload []byte) error

// Coordinator manages the worker node's power state.
type Coordinator struct {
	cfg config.WorkerNodeConfig
	mac net.HardwareAddr
	log *slog.Logger

	// injectable for tests
	dial  dialFunc
	send  sendFunc
	sleep func(time.Duration)
}

// NewCoordinator creates a Coordinator for the configured worker node.
// The MAC address may be empty: probing and suspending still work, but Wake
// can then only succeed when the node is already up.
func NewCoordinator(cfg config.WorkerNodeConfig, logger *slog.Logger) (*Coordinator, error) {
	var mac net.HardwareAddr
	if cfg.MACAddress != "" {
		parsed, err := net.ParseMAC(cfg.MACAddress)
		if err != nil {
			return nil, fmt.Errorf("parse worker MAC address: %w", err)
		}
		mac = parsed
	}

	d := &net.Dialer{}
	return &Coordinator{
		cfg:   cfg,
		mac:   mac,
		log:   logger.With("component", "wol"),
		dial:  d.DialContext,
		send:  sendUDP,
		sleep: time.Sleep,
	}, nil
}

// IsReachable reports whether the node's probe port accepts a TCP connection
// within the configured probe timeout.
func (c *Coordinator) IsReachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	addr := net.JoinHostPort(c.cfg.Host, fmt.Sprint(c.cfg.ProbePort))
	conn, err := c.dial(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Wake brings the worker node online. If the node already answers its probe
// port no packet is sent. Otherwise it broadcasts a magic packet, waits for
// the node to settle, then probes until the boot timeout; this repeats up to
// the configured attempt count before giving up with ErrWakeFailed.
func (c *Coordinator) Wake(ctx context.Context) error {
	if c.IsReachable(ctx) {
		c.log.InfoContext(ctx, "worker node already awake", slog.String("host", c.cfg.Host))
		return nil
	}

	if c.mac == nil {
		return fmt.Errorf("%w: node is down and no MAC address is configured", ErrWakeFailed)
	}

	addr := net.JoinHostPort(c.cfg.BroadcastAddr, fmt.Sprint(c.cfg.WOLPort))
	packet := MagicPacket(c.mac)

	for attempt := 1; attempt <= c.cfg.WakeAttempts; attempt++ {
		c.log.InfoContext(ctx, "sending magic packet",
			slog.Int("attempt", attempt),
			slog.String("broadcast", addr),
		)

		if err := c.send(addr, packet); err != nil {
			c.log.WarnContext(ctx, "send magic packet failed", slog.String("error", err.Error()))
		}

		c.sleep(c.cfg.SettleTime)

		if c.awaitBoot(ctx) {
			c.log.InfoContext(ctx, "worker node is up", slog.Int("attempt", attempt))
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < c.cfg.WakeAttempts {
			c.sleep(c.cfg.WakeRetryDelay)
		}
	}

	return fmt.Errorf("%w after %d attempts", ErrWakeFailed, c.cfg.WakeAttempts)
}

// awaitBoot probes the node repeatedly until it answers or the boot timeout
// passes.
func (c *Coordinator) awaitBoot(ctx context.Context) bool {
	deadline := time.Now().Add(c.cfg.BootProbeTimeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}
		if c.IsReachable(ctx) {
			return true
		}
		c.sleep(time.Second)
	}
	return false
}

// RequestSleep asks the node to suspend itself over SSH. Failure is reported
// but never fatal: the node staying on only costs power, and the next run
// works either way.
func (c *Coordinator) RequestSleep(ctx context.Context) error {
	target := c.cfg.Host
	if c.cfg.SSHUser != "" {
		target = c.cfg.SSHUser + "@" + c.cfg.Host
	}

	cmd := exec.CommandContext(ctx, "ssh",
		"-o", "ConnectTimeout=5",
		"-o", "BatchMode=yes",
		target, "sudo systemctl suspend",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("suspend worker node: %v: %s", err, out)
	}

	c.log.InfoContext(ctx, "worker node suspending", slog.String("host", c.cfg.Host))
	return nil
}

// MagicPacket builds the standard Wake-on-LAN payload: six 0xFF bytes
// followed by the target MAC repeated sixteen times.
func MagicPacket(mac net.HardwareAddr) []byte {
	packet := make([]byte, 0, 6+16*len(mac))
	for i := 0; i < 6; i++ {
		packet = append(packet, 0xFF)
	}
	for i := 0; i < 16; i++ {
		packet = append(packet, mac...)
	}
	return packet
}

// sendUDP broadcasts one datagram. The socket needs SO_BROADCAST, otherwise
// kernels enforcing it reject writes to 255.255.255.255 with EACCES.
func sendUDP(addr string, payload []byte) error {
	raddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return fmt.Errorf("resolve broadcast addr: %w", err)
	}

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1)
			}); err != nil {
				return err
			}
			return sockErr
		},
	}

	conn, err := lc.ListenPacket(context.Background(), "udp4", ":0")
	if err != nil {
		return fmt.Errorf("open broadcast socket: %w", err)
	}
	defer conn.Close()

	if _, err := conn.WriteTo(payload, raddr); err != nil {
		return fmt.Errorf("write magic packet: %w", err)
	}
	return nil
}
