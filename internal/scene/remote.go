package scene

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// RemoteSettings holds what is needed to read scene manifests over SFTP.
type RemoteSettings struct {
	// Used when the URL carries no user.
	User string
	// Path to a PEM private key used for authentication.
	PrivateKeyPath string
	// Connection timeout. If zero, only the context bounds the dial.
	Timeout time.Duration
	// Keep retrying the connection for this long. Zero makes one attempt.
	RetryFor time.Duration
}

const remoteRetryBackoff = time.Second

type remoteTarget struct {
	user string
	host string
	port uint16
	path string
}

func (t remoteTarget) fullHost() string {
	return net.JoinHostPort(t.host, strconv.Itoa(int(t.port)))
}

func parseRemoteTarget(u *url.URL, settings RemoteSettings) (remoteTarget, error) {
	target := remoteTarget{
		user: settings.User,
		host: u.Hostname(),
		port: 22,
		path: u.Path,
	}

	if u.User != nil && u.User.Username() != "" {
		target.user = u.User.Username()
	}

	if target.host == "" {
		return target, fmt.Errorf("missing host in '%s'", u.Redacted())
	}

	if target.user == "" {
		return target, fmt.Errorf("missing user for '%s'", u.Redacted())
	}

	if target.path == "" || target.path == "/" {
		return target, fmt.Errorf("missing manifest path in '%s'", u.Redacted())
	}

	if p := u.Port(); p != "" {
		port, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return target, fmt.Errorf("invalid port '%s': %w", p, err)
		}
		target.port = uint16(port)
	}

	return target, nil
}

func fetchRemoteManifest(ctx context.Context, u *url.URL, settings RemoteSettings) ([]byte, error) {
	target, err := parseRemoteTarget(u, settings)
	if err != nil {
		return nil, err
	}

	if settings.PrivateKeyPath == "" {
		return nil, fmt.Errorf("no SSH private key configured for '%s'", u.Redacted())
	}

	privateKey, err := os.ReadFile(settings.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key file '%s': %w", settings.PrivateKeyPath, err)
	}

	client, err := retry(ctx, settings.RetryFor, remoteRetryBackoff, func(int) (*ssh.Client, error) {
		return dialSsh(ctx, target, privateKey, settings.Timeout)
	})
	if err != nil {
		return nil, err
	}
	defer client.Close()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}
	defer sftpClient.Close()

	file, err := sftpClient.Open(target.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote manifest '%s': %w", target.path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote manifest '%s': %w", target.path, err)
	}

	return data, nil
}

func dialSsh(ctx context.Context, target remoteTarget, privateKey []byte, timeout time.Duration) (*ssh.Client, error) {
	signer, err := ssh.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key: %w", err)
	}

	clientConfig := &ssh.ClientConfig{
		User: target.user,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	host := target.fullHost()

	// Same as ssh.Dial, but through DialContext so the caller's context
	// bounds the connection attempt.
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return nil, fmt.Errorf("failed to dial SSH server '%s': %w", host, err)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, host, clientConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open SSH connection to '%s': %w", host, err)
	}

	return ssh.NewClient(c, chans, reqs), nil
}
