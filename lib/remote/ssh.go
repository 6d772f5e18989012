package remote

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/dockwatch/dockwatch/lib/docker"
	"github.com/dockwatch/dockwatch/lib/logger"
)

// DefaultDialTimeout bounds connection establishment; streams themselves have
// no timeout.
const DefaultDialTimeout = 10 * time.Second

// ConnectParams identify a remote docker host reached over SSH. They arrive
// in the request body and live only for that request.
type ConnectParams struct {
	Address  string `json:"address"`
	Username string `json:"username"`
	Password string `json:"password"`
	Port     int    `json:"port"`
}

// Validate fills defaults and rejects incomplete parameters.
func (p *ConnectParams) Validate() error {
	if p.Address == "" {
		return fmt.Errorf("address is required")
	}
	if p.Username == "" {
		return fmt.Errorf("username is required")
	}
	if p.Port == 0 {
		p.Port = 22
	}
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("invalid port %d", p.Port)
	}
	return nil
}

// Client is the remote Host implementation. Every operation shells a docker
// CLI command over the SSH connection and parses its stdout; a non-zero exit
// is a failure carrying the stderr text.
//
// A Client is created per request and never reused.
type Client struct {
	ssh  *ssh.Client
	addr string
}

var _ docker.Host = (*Client)(nil)

// Dial opens an authenticated SSH connection to the remote host. Auth,
// timeout and network failures are all docker.ErrConnection.
func Dial(ctx context.Context, params ConnectParams, timeout time.Duration) (*Client, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", docker.ErrConnection, err)
	}
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	log := logger.FromContext(ctx)
	addr := net.JoinHostPort(params.Address, strconv.Itoa(params.Port))
	log.DebugContext(ctx, "dialing remote host", "addr", addr, "user", params.Username)

	cfg := &ssh.ClientConfig{
		User: params.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(params.Password),
		},
		// Hosts are supplied ad hoc per request; there is no known_hosts
		// store to verify against.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	conn, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: ssh %s: %v", docker.ErrConnection, addr, err)
	}

	return &Client{ssh: conn, addr: addr}, nil
}

func (c *Client) Close() error {
	return c.ssh.Close()
}
